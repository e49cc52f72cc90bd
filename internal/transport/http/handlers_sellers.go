package transporthttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"propmarket/internal/platform/middleware"
	"propmarket/internal/registrar"
	"propmarket/internal/seller"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/platform/httputil"
	"propmarket/pkg/requestcontext"
)

type registerSellerRequest struct {
	seller.NewProfileInput
	Password string `json:"password"`
}

// SellerHandler serves seller registration, profile and approval endpoints.
type SellerHandler struct {
	registrar *registrar.Service
	sellers   *seller.Service
	auth      middleware.Authenticator
	logger    *slog.Logger
}

func NewSellerHandler(reg *registrar.Service, sellers *seller.Service, auth middleware.Authenticator, logger *slog.Logger) *SellerHandler {
	return &SellerHandler{registrar: reg, sellers: sellers, auth: auth, logger: logger}
}

// Register mounts the seller routes.
func (h *SellerHandler) Register(r chi.Router) {
	r.Post("/sellers", h.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))
		r.Get("/sellers", h.handleList)
		r.Get("/sellers/{id}", h.handleGet)
		r.Put("/sellers/{id}", h.handleUpdate)
		r.Patch("/sellers/{id}/status", h.handleChangeStatus)
		r.Delete("/sellers/{id}", h.handleDelete)
	})
}

func (h *SellerHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerSellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	profile, err := h.registrar.RegisterSeller(r.Context(), registrar.RegisterSellerInput{
		Profile:  req.NewProfileInput,
		Password: req.Password,
	})
	if err != nil {
		h.logServiceError(r, "seller registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "seller registered", profile)
}

func (h *SellerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var status seller.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := seller.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = parsed
	}

	actor := requestcontext.Actor(r.Context())
	profiles, err := h.sellers.List(r.Context(), actor, status)
	if err != nil {
		h.logServiceError(r, "list sellers failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "sellers", profiles)
}

func (h *SellerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := requestcontext.Actor(r.Context())
	profile, err := h.sellers.Get(r.Context(), actor, id)
	if err != nil {
		h.logServiceError(r, "load seller failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "seller", profile)
}

func (h *SellerHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req seller.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := requestcontext.Actor(r.Context())
	profile, err := h.sellers.Update(r.Context(), actor, id, req)
	if err != nil {
		h.logServiceError(r, "update seller failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "seller updated", profile)
}

func (h *SellerHandler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	status, err := seller.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := requestcontext.Actor(r.Context())
	profile, err := h.sellers.ChangeStatus(r.Context(), actor, id, status)
	if err != nil {
		h.logServiceError(r, "change seller status failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "seller status updated", profile)
}

func (h *SellerHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := requestcontext.Actor(r.Context())
	if err := h.registrar.DeregisterSeller(r.Context(), actor, id); err != nil {
		h.logServiceError(r, "delete seller failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "seller deleted", nil)
}

func (h *SellerHandler) logServiceError(r *http.Request, msg string, err error) {
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
