package transporthttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"propmarket/internal/platform/middleware"
	"propmarket/internal/property"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/platform/httputil"
	"propmarket/pkg/requestcontext"
)

// PropertyHandler serves the property listing endpoints. Reads are public;
// writes require a seller or admin.
type PropertyHandler struct {
	properties *property.Service
	auth       middleware.Authenticator
	logger     *slog.Logger
}

func NewPropertyHandler(properties *property.Service, auth middleware.Authenticator, logger *slog.Logger) *PropertyHandler {
	return &PropertyHandler{properties: properties, auth: auth, logger: logger}
}

// Register mounts the property routes.
func (h *PropertyHandler) Register(r chi.Router) {
	r.Get("/properties", h.handleList)
	r.Get("/properties/{id}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.auth, h.logger))
		r.Post("/properties", h.handleCreate)
		r.Put("/properties/{id}", h.handleUpdate)
		r.Delete("/properties/{id}", h.handleDelete)
	})
}

func (h *PropertyHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req property.NewPropertyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := requestcontext.Actor(r.Context())
	listing, err := h.properties.Create(r.Context(), actor, req)
	if err != nil {
		h.logServiceError(r, "create property failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusCreated, "property created", listing)
}

func (h *PropertyHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.properties.Get(r.Context(), id)
	if err != nil {
		h.logServiceError(r, "load property failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "property", listing)
}

func (h *PropertyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePropertyFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listings, err := h.properties.List(r.Context(), filter)
	if err != nil {
		h.logServiceError(r, "list properties failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "properties", listings)
}

func parsePropertyFilter(r *http.Request) (property.Filter, error) {
	q := r.URL.Query()
	var filter property.Filter

	if raw := q.Get("type"); raw != "" {
		typ, err := property.ParseType(raw)
		if err != nil {
			return property.Filter{}, err
		}
		filter.Type = typ
	}
	filter.City = q.Get("city")

	intQuery := func(key string) (*int64, error) {
		raw := q.Get(key)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, key+" must be an integer")
		}
		return &v, nil
	}

	var err error
	if filter.MinPrice, err = intQuery("min_price"); err != nil {
		return property.Filter{}, err
	}
	if filter.MaxPrice, err = intQuery("max_price"); err != nil {
		return property.Filter{}, err
	}

	if raw := q.Get("for_sale"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return property.Filter{}, dErrors.New(dErrors.CodeBadRequest, "for_sale must be a boolean")
		}
		filter.ForSale = &v
	}
	if raw := q.Get("seller_id"); raw != "" {
		id, err := domain.ParseAccountID(raw)
		if err != nil {
			return property.Filter{}, err
		}
		filter.SellerID = id
	}

	smallIntQuery := func(key string) (*int, error) {
		raw := q.Get(key)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, key+" must be an integer")
		}
		return &v, nil
	}
	if filter.MinBeds, err = smallIntQuery("beds"); err != nil {
		return property.Filter{}, err
	}
	if filter.MinBaths, err = smallIntQuery("baths"); err != nil {
		return property.Filter{}, err
	}
	return filter, nil
}

func (h *PropertyHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req property.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := requestcontext.Actor(r.Context())
	listing, err := h.properties.Update(r.Context(), actor, id, req)
	if err != nil {
		h.logServiceError(r, "update property failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "property updated", listing)
}

func (h *PropertyHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParsePropertyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := requestcontext.Actor(r.Context())
	if err := h.properties.Delete(r.Context(), actor, id); err != nil {
		h.logServiceError(r, "delete property failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, http.StatusOK, "property deleted", nil)
}

func (h *PropertyHandler) logServiceError(r *http.Request, msg string, err error) {
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
