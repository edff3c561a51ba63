package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"postboard/internal/auth"
	"postboard/internal/middleware"
	"postboard/internal/models"
	"postboard/internal/repository"
)

type AuthHandler struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
	logger *slog.Logger
	v      *validator.Validate
}

func NewAuthHandler(users repository.UserRepository, tokens *auth.TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
		v:      validator.New(),
	}
}

// Register godoc
// @Tags Auth
// @Summary Register a user
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Register"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /registerUser [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), req.Email)
	switch {
	case err == nil && existing != nil:
		writeJSONErrorResponse(w, http.StatusConflict, "user_exists", "User already exists")
		return
	case err != nil && !errors.Is(err, repository.ErrUserNotFound):
		h.logger.Error("register: lookup failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "register_failed", "")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("register: hash failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "register_failed", "")
		return
	}

	u := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		UserType:     req.UserType,
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			writeJSONErrorResponse(w, http.StatusConflict, "user_exists", "User already exists")
			return
		}
		h.logger.Error("register: create failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "register_failed", "")
		return
	}

	h.logger.Info("user registered", "user_id", u.ID)
	writeJSONOK(w, http.StatusCreated, nil)
}

// Login godoc
// @Tags Auth
// @Summary Log in
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Login"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /loginUser [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSONErrorResponse(w, http.StatusNotFound, "user_not_found", "User does not exists, please register if you haven't")
			return
		}
		h.logger.Error("login: lookup failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "login_failed", "")
		return
	}

	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid Credentials")
		return
	}

	token, err := h.tokens.IssueSession(u.Email)
	if err != nil {
		h.logger.Error("login: sign failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "login_failed", "")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Status:   statusOK,
		Data:     token,
		UserType: u.UserType,
	})
}

// UserData godoc
// @Tags Auth
// @Summary Resolve a session token to its user
// @Accept json
// @Produce json
// @Param body body models.UserDataRequest false "Token, unless sent as a bearer header"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /userData [post]
func (h *AuthHandler) UserData(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		var req models.UserDataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_token", "Token is required")
			return
		}
		claims, err := h.tokens.VerifySession(req.Token)
		if err != nil {
			h.logger.Debug("userData: token rejected", "error", err)
			writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
			return
		}
		email = claims.Email
	}

	u, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSONErrorResponse(w, http.StatusNotFound, "user_not_found", "")
			return
		}
		h.logger.Error("userData: lookup failed", "error", err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "user_data_failed", "")
		return
	}

	writeJSONOK(w, http.StatusOK, u)
}
