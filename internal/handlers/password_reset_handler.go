package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"postboard/internal/auth"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/services"
	"postboard/internal/views"
)

const (
	resetMailSubject = "Password reset "

	statusUserMissing   = "User does not exists"
	statusResetRejected = "Something went wrong"
)

type MailDispatcher interface {
	Dispatch(ctx context.Context, msg services.Message) <-chan error
}

type PasswordResetHandler struct {
	users        repository.UserRepository
	tokens       *auth.TokenIssuer
	mailer       MailDispatcher
	logger       *slog.Logger
	resetBaseURL string
	returnLink   bool
	v            *validator.Validate
}

// NewPasswordResetHandler builds reset links under resetBaseURL. returnLink
// echoes the link in the forgotPassword response for local development.
func NewPasswordResetHandler(users repository.UserRepository, tokens *auth.TokenIssuer, mailer MailDispatcher, logger *slog.Logger, resetBaseURL string, returnLink bool) *PasswordResetHandler {
	return &PasswordResetHandler{
		users:        users,
		tokens:       tokens,
		mailer:       mailer,
		logger:       logger,
		resetBaseURL: resetBaseURL,
		returnLink:   returnLink,
		v:            validator.New(),
	}
}

// ForgotPassword godoc
// @Tags Auth
// @Summary Email a password reset link
// @Accept json
// @Produce json
// @Param body body models.ForgotPasswordRequest true "Email"
// @Success 202
// @Failure 400 {object} map[string]interface{}
// @Router /forgotPassword [post]
func (h *PasswordResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	err := decodeFormOrJSON(w, r, &req, func(v url.Values) { req.Email = v.Get("email") }, formBodyLimit)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSONStatus(w, http.StatusOK, statusUserMissing, "user_not_found")
			return
		}
		h.logger.Error("forgotPassword: lookup failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "forgot_password_failed", "")
		return
	}

	token, err := h.tokens.IssueReset(u.ID, u.Email, u.PasswordHash)
	if err != nil {
		h.logger.Error("forgotPassword: sign failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "forgot_password_failed", "")
		return
	}

	link := h.resetLink(u.ID, token)
	h.logger.Debug("password reset link issued", "user_id", u.ID)

	h.mailer.Dispatch(r.Context(), services.Message{
		To:      u.Email,
		Subject: resetMailSubject,
		Body:    link,
	})

	if h.returnLink {
		writeJSON(w, http.StatusAccepted, map[string]any{"status": statusOK, "link": link})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// ShowResetForm godoc
// @Tags Auth
// @Summary Render the reset form for a valid link
// @Produce html
// @Param id path string true "User ID"
// @Param token path string true "Reset token"
// @Success 200
// @Router /resetPassword/{id}/{token} [get]
func (h *PasswordResetHandler) ShowResetForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	token := chi.URLParam(r, "token")

	u, ok := h.lookupUser(w, r, id)
	if !ok {
		return
	}

	claims, err := h.tokens.VerifyReset(token, u.ID, u.PasswordHash)
	if err != nil {
		h.logger.Info("reset token not verified", "user_id", u.ID, "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Not verified"))
		return
	}

	h.render(w, views.ResetPage{Email: claims.Email, Status: views.StatusVerified})
}

// ResetPassword godoc
// @Tags Auth
// @Summary Set a new password through a reset link
// @Accept x-www-form-urlencoded,json
// @Produce html
// @Param id path string true "User ID"
// @Param token path string true "Reset token"
// @Success 200
// @Failure 400 {object} map[string]interface{}
// @Router /resetPassword/{id}/{token} [post]
func (h *PasswordResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	token := chi.URLParam(r, "token")

	u, ok := h.lookupUser(w, r, id)
	if !ok {
		return
	}

	var req models.ResetPasswordRequest
	err := decodeFormOrJSON(w, r, &req, func(v url.Values) { req.Password = v.Get("password") }, formBodyLimit)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	claims, err := h.tokens.VerifyReset(token, u.ID, u.PasswordHash)
	if err != nil {
		h.logger.Info("reset token not verified", "user_id", u.ID, "error", err)
		writeJSONStatus(w, http.StatusBadRequest, statusResetRejected, "not_verified")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("resetPassword: hash failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "reset_failed", "")
		return
	}
	if err := h.users.UpdatePasswordHash(r.Context(), u.ID, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSONStatus(w, http.StatusOK, statusUserMissing, "user_not_found")
			return
		}
		h.logger.Error("resetPassword: update failed", "user_id", u.ID, "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "reset_failed", "")
		return
	}

	h.logger.Info("password reset", "user_id", u.ID)
	h.render(w, views.ResetPage{Email: claims.Email, Status: views.StatusVerifiedWithUpdatedPass})
}

// lookupUser writes the response itself when it returns false.
func (h *PasswordResetHandler) lookupUser(w http.ResponseWriter, r *http.Request, id string) (*models.User, bool) {
	u, err := h.users.GetByID(r.Context(), id)
	if err == nil {
		return u, true
	}
	if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrInvalidID) {
		writeJSONStatus(w, http.StatusOK, statusUserMissing, "user_not_found")
		return nil, false
	}
	h.logger.Error("reset: user lookup failed", "error", err)
	writeJSONErrorResponse(w, http.StatusInternalServerError, "reset_failed", "")
	return nil, false
}

func (h *PasswordResetHandler) render(w http.ResponseWriter, page views.ResetPage) {
	if err := views.RenderReset(w, http.StatusOK, page); err != nil {
		h.logger.Error("reset: render failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "reset_failed", "")
	}
}

func (h *PasswordResetHandler) resetLink(userID, token string) string {
	return fmt.Sprintf("%s/resetPassword/%s/%s", h.resetBaseURL, url.PathEscape(userID), token)
}
