package transporthttp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"propmarket/internal/platform/metrics"
	"propmarket/internal/platform/middleware"
)

// Deps carries everything the router mounts.
type Deps struct {
	Users      *UserHandler
	Customers  *CustomerHandler
	Sellers    *SellerHandler
	Properties *PropertyHandler
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	// Gatherer serves /metrics; nil hides the endpoint.
	Gatherer prometheus.Gatherer
	// Health reports readiness of backing stores; nil means always healthy.
	Health func() error
}

// NewRouter assembles the full HTTP surface with the shared middleware
// chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Metadata)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Observe(deps.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		deps.Users.Register(api)
		deps.Customers.Register(api)
		deps.Sellers.Register(api)
		deps.Properties.Register(api)
	})
	return r
}
