package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bsi-games/bsi/internal/stub/api/request"
	"github.com/bsi-games/bsi/internal/stub/api/response"
	"github.com/bsi-games/bsi/internal/stub/services/auth"
)

// AuthHandler serves the authorization server endpoints.
// All requests are form-encoded and carry a client_id.
type AuthHandler struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form, ok := h.form(w, r)
	if !ok {
		return
	}

	err := h.authService.Register(r.Context(), form.Get("username"), form.Get("eaddress"), form.Get("password"))
	switch {
	case errors.Is(err, auth.ErrDuplicate):
		response.JSON(w, http.StatusOK, response.Message{Message: "duplicate"})
	case err != nil:
		WriteError(w, err)
	default:
		h.logger.Info("player registered", slog.String("username", form.Get("username")))
		response.JSON(w, http.StatusOK, response.Message{Message: "registered"})
	}
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	form, ok := h.form(w, r)
	if !ok {
		return
	}
	if form.Get("grant_type") != "password" {
		WriteError(w, NewInvalidRequestError("unsupported grant_type"))
		return
	}

	tok, err := h.authService.Issue(r.Context(), form.Get("username"), form.Get("password"))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoStore(w, http.StatusOK, response.Token{
		TokenType:   tok.Kind,
		AccessToken: tok.Secret,
		ExpiresIn:   h.authService.ExpiresIn(tok),
	})
}

// Revoke handles DELETE /auth/token/revoke
func (h *AuthHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	form, ok := h.form(w, r)
	if !ok {
		return
	}

	if err := h.authService.Revoke(r.Context(), form.Get("token")); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Message{Message: "revoked"})
}

// Introspect handles POST /auth/token/introspect
func (h *AuthHandler) Introspect(w http.ResponseWriter, r *http.Request) {
	form, ok := h.form(w, r)
	if !ok {
		return
	}

	tok, err := h.authService.Introspect(r.Context(), form.Get("token"))
	if errors.Is(err, auth.ErrInvalidToken) {
		response.JSON(w, http.StatusOK, response.IntrospectionResponse{})
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoStore(w, http.StatusOK, response.IntrospectionResponse{Response: response.Introspection{
		Active:    true,
		Username:  tok.Username,
		TokenType: tok.Kind,
		ExpiresIn: h.authService.ExpiresIn(tok),
	}})
}

// form parses the body and checks the client id
func (h *AuthHandler) form(w http.ResponseWriter, r *http.Request) (url.Values, bool) {
	form, err := request.Form(r)
	if err != nil {
		WriteError(w, NewInvalidRequestError("invalid form body"))
		return nil, false
	}
	if form.Get("client_id") == "" {
		WriteError(w, NewInvalidRequestError("client_id is required"))
		return nil, false
	}
	return form, true
}
