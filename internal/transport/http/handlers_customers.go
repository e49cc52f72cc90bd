package transporthttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"propmarket/internal/customer"
	"propmarket/internal/platform/middleware"
	"propmarket/internal/registrar"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/platform/httputil"
	"propmarket/pkg/requestcontext"
)

// registerCustomerRequest is the registration payload: profile fields plus
// the password, flat at the top level.
type registerCustomerRequest struct {
	customer.NewProfileInput
	Password string `json:"password"`
}

// CustomerHandler serves customer registration and profile endpoints.
type CustomerHandler struct {
	registrar *registrar.Service
	customers *customer.Service
	auth      middleware.Authenticator
	logger    *slog.Logger
}

func NewCustomerHandler(reg *registrar.Service, customers *customer.Service, auth middleware.Authenticator, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{registrar: reg, customers: customers, auth: auth, logger: logger}
}

// Register mounts the customer routes.
func (h *CustomerHandler) Register(r chi.Router) {
	r.Post("/customers", h.handleRegister)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))
		r.Get("/customers", h.handleList)
		r.Get("/customers/{id}", h.handleGet)
		r.Put("/customers/{id}", h.handleUpdate)
		r.Delete("/customers/{id}", h.handleDelete)
	})
}

func (h *CustomerHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	profile, err := h.registrar.RegisterCustomer(r.Context(), registrar.RegisterCustomerInput{
		Profile:  req.NewProfileInput,
		Password: req.Password,
	})
	if err != nil {
		h.logServiceError(r, "customer registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "customer registered", profile)
}

func (h *CustomerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := requestcontext.Actor(r.Context())
	profiles, err := h.customers.List(r.Context(), actor)
	if err != nil {
		h.logServiceError(r, "list customers failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "customers", profiles)
}

func (h *CustomerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := requestcontext.Actor(r.Context())
	profile, err := h.customers.Get(r.Context(), actor, id)
	if err != nil {
		h.logServiceError(r, "load customer failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "customer", profile)
}

func (h *CustomerHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req customer.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := requestcontext.Actor(r.Context())
	profile, err := h.customers.Update(r.Context(), actor, id, req)
	if err != nil {
		h.logServiceError(r, "update customer failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "customer updated", profile)
}

func (h *CustomerHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := requestcontext.Actor(r.Context())
	if err := h.registrar.DeregisterCustomer(r.Context(), actor, id); err != nil {
		h.logServiceError(r, "delete customer failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "customer deleted", nil)
}

func (h *CustomerHandler) logServiceError(r *http.Request, msg string, err error) {
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
