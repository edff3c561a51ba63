// Package views renders the server-side password reset page.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

const (
	StatusVerified                = "verified"
	StatusVerifiedWithUpdatedPass = "verifiedWithUpdatedPass"
)

//go:embed templates/*.html
var templateFS embed.FS

var resetTemplate = template.Must(template.ParseFS(templateFS, "templates/reset_password.html"))

type ResetPage struct {
	Email  string
	Status string
}

// RenderReset writes the reset page. Nothing is written if execution fails.
func RenderReset(w http.ResponseWriter, status int, page ResetPage) error {
	var buf bytes.Buffer
	if err := resetTemplate.Execute(&buf, page); err != nil {
		return fmt.Errorf("render reset page: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
