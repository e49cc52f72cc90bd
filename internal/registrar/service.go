// Package registrar owns the linked lifecycle of an account: a profile
// record (customer or seller) and an auth identity sharing one ID. Both
// writes happen in a single transaction so the pair is created and removed
// atomically; no other package writes to more than one collection at a time.
package registrar

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"propmarket/internal/audit"
	"propmarket/internal/customer"
	"propmarket/internal/identity"
	"propmarket/internal/platform/metrics"
	"propmarket/internal/seller"
	"propmarket/pkg/attrs"
	"propmarket/pkg/domain"
	"propmarket/pkg/requestcontext"
)

// Stores bundles the three collections a registration touches. A StoreTx
// hands a transaction-scoped copy to the callback so every write lands in
// the same transaction.
type Stores struct {
	Identities identity.Store
	Customers  customer.Store
	Sellers    seller.Store
}

// StoreTx runs fn against transaction-scoped stores. If fn returns an error
// the transaction rolls back and none of its writes survive.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(stores Stores) error) error
}

// PropertyCounter reports how many listings a seller owns. Seller removal is
// refused while listings exist.
type PropertyCounter interface {
	CountBySeller(ctx context.Context, sellerID domain.AccountID) (int, error)
}

// Service performs atomic registration and deregistration of linked
// profile/identity pairs.
type Service struct {
	tx             StoreTx
	stores         Stores
	properties     PropertyCounter
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher audit.Publisher
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithPropertyCounter(counter PropertyCounter) Option {
	return func(s *Service) {
		s.properties = counter
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. The stores argument is the non-transactional
// view used for pre-checks; tx scopes the dual writes.
func New(tx StoreTx, stores Stores, opts ...Option) *Service {
	s := &Service{
		tx:     tx,
		stores: stores,
		tracer: noop.NewTracerProvider().Tracer("registrar"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tracer returns the default tracer for the package.
func Tracer() trace.Tracer { return otel.Tracer("registrar") }

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	s.auditPublisher.Emit(ctx, audit.Event{
		AccountID: attrs.ExtractString(attributes, "account_id"),
		Action:    event,
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
}
