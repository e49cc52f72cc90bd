// Package transporthttp is the thin HTTP layer. Handlers decode, delegate
// to domain services and encode the uniform envelope; no business logic
// lives here.
package transporthttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"propmarket/internal/identity"
	"propmarket/internal/platform/middleware"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/platform/httputil"
	"propmarket/pkg/requestcontext"
)

// UserHandler serves authentication and identity endpoints.
type UserHandler struct {
	identities *identity.Service
	auth       middleware.Authenticator
	logger     *slog.Logger
}

func NewUserHandler(identities *identity.Service, logger *slog.Logger) *UserHandler {
	return &UserHandler{identities: identities, auth: identities, logger: logger}
}

// Register mounts the user routes.
func (h *UserHandler) Register(r chi.Router) {
	r.Post("/users/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))
		r.Post("/users/logout", h.handleLogout)
		r.Get("/users/me", h.handleMe)
		r.Post("/users", h.handleCreate)
		r.Get("/users/{id}", h.handleGet)
		r.Delete("/users/{id}", h.handleDelete)
		r.Put("/users/{id}/password", h.handleChangePassword)
	})
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.identities.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logServiceError(r, "login failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "login successful", result)
}

func (h *UserHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r.Context())
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	if err := h.identities.Logout(r.Context(), claims); err != nil {
		h.logServiceError(r, "logout failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "logged out", nil)
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := requestcontext.Actor(r.Context())
	ident, err := h.identities.Get(r.Context(), actor, actor.ID)
	if err != nil {
		h.logServiceError(r, "load current identity failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "current user", ident)
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req identity.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := requestcontext.Actor(r.Context())
	ident, err := h.identities.Create(r.Context(), actor, req)
	if err != nil {
		h.logServiceError(r, "create identity failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "user created", ident)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := requestcontext.Actor(r.Context())
	ident, err := h.identities.Get(r.Context(), actor, id)
	if err != nil {
		h.logServiceError(r, "load identity failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "user", ident)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := requestcontext.Actor(r.Context())
	if err := h.identities.Delete(r.Context(), actor, id); err != nil {
		h.logServiceError(r, "delete identity failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "user deleted", nil)
}

func (h *UserHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req identity.ChangePasswordInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := requestcontext.Actor(r.Context())
	if err := h.identities.ChangePassword(r.Context(), actor, id, req); err != nil {
		h.logServiceError(r, "change password failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "password updated", nil)
}

func (h *UserHandler) logServiceError(r *http.Request, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), msg,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		return
	}
	h.logger.WarnContext(r.Context(), msg,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
	)
}
