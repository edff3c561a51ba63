// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"postboard/internal/auth"
	"postboard/internal/config"
	"postboard/internal/db"
	"postboard/internal/db/migrations"
	"postboard/internal/logging"
	"postboard/internal/repository"
	"postboard/internal/routes"
	"postboard/internal/services"
)

const (
	startupTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

type store struct {
	users repository.UserRepository
	posts repository.PostRepository
	ping  func(context.Context) error
	close func(context.Context) error
}

// @title Postboard API
// @version 1.0
// @description User accounts, password reset and image posts.
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	st, err := openStore(startCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry())
	dispatcher := services.NewMailDispatcher(newEmailSender(cfg, logger), cfg.MailSendTimeout, logger)

	// Create router and setup routes
	router := routes.SetupRoutes(routes.Deps{
		Config: cfg,
		Logger: logger,
		Store:  routes.PingerFunc(st.ping),
		Users:  st.users,
		Posts:  st.posts,
		Tokens: tokens,
		Mailer: dispatcher,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		logger.Info("shutting down server")
	case err := <-serverErr:
		logger.Error("failed to start server", "error", err)
		exitCode = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		exitCode = 1
	}
	if err := dispatcher.Close(ctx); err != nil {
		logger.Warn("pending emails abandoned", "error", err)
	}
	if err := st.close(ctx); err != nil {
		logger.Error("failed to close store", "error", err)
	}

	logger.Info("server exiting")
	os.Exit(exitCode)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		mdb, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, mdb.DB); err != nil {
			_ = mdb.Close(ctx)
			return nil, err
		}
		return &store{
			users: repository.NewMongoUserRepository(mdb.DB),
			posts: repository.NewMongoPostRepository(mdb.DB),
			ping:  mdb.Ping,
			close: mdb.Close,
		}, nil

	case config.StorePostgres:
		// Create database if it doesn't exist
		if err := db.CreateDatabaseIfNotExists(ctx, cfg.PostgresURL, logger); err != nil {
			return nil, fmt.Errorf("failed to ensure database exists: %w", err)
		}
		pdb, err := db.New(ctx, cfg.PostgresURL, logger)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunMigrations(ctx, pdb.DB); err != nil {
			_ = pdb.Close(ctx)
			return nil, err
		}
		return &store{
			users: repository.NewUserRepository(pdb.DB),
			posts: repository.NewPostRepository(pdb.DB),
			ping:  pdb.Ping,
			close: pdb.Close,
		}, nil

	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return &store{
			users: repository.NewMemoryUserRepository(),
			posts: repository.NewMemoryPostRepository(),
			ping:  func(context.Context) error { return nil },
			close: func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func newEmailSender(cfg *config.Config, logger *slog.Logger) services.EmailSender {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, reset emails will only be logged")
		return &services.LogSender{Logger: logger}
	}
	return &services.SMTPSender{
		Host:   cfg.SMTPHost,
		Port:   strconv.Itoa(cfg.SMTPPort),
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPassword,
		From:   cfg.SMTPFrom,
		UseTLS: cfg.SMTPUseTLS,
	}
}
