package services

import (
	"context"
	"log/slog"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. Used when
// no SMTP host is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.InfoContext(ctx, "email not delivered, no smtp host configured",
		"to", msg.To,
		"subject", msg.Subject,
	)
	s.Logger.DebugContext(ctx, "email body", "body", msg.Body)
	return nil
}
