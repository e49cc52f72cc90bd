package property

import (
	"context"
	"errors"
	"log/slog"

	"propmarket/internal/audit"
	"propmarket/internal/policy"
	"propmarket/pkg/attrs"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/platform/sentinel"
	"propmarket/pkg/requestcontext"
)

// Service owns property listings. Reads are public; writes require a
// seller acting on their own listings, or an admin.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher audit.Publisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a listing owned by the acting seller. The owner always comes
// from the actor, never from the payload.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in NewPropertyInput) (*Property, error) {
	if err := policy.RequireRole(actor, domain.RoleSeller); err != nil {
		return nil, err
	}

	listing, err := New(in, actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.Insert(ctx, listing); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// seller_id references sellers(id); an admin without a seller
			// profile cannot own listings.
			return nil, dErrors.New(dErrors.CodeValidation, "acting account has no seller profile")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create property")
	}

	s.logAudit(ctx, audit.EventPropertyCreated,
		"property_id", listing.ID.String(),
		"account_id", actor.ID.String(),
	)
	return listing, nil
}

// Get returns a listing. Public.
func (s *Service) Get(ctx context.Context, id domain.PropertyID) (*Property, error) {
	listing, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load property")
	}
	return listing, nil
}

// List returns listings matching the filter. Public.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Property, error) {
	listings, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list properties")
	}
	return listings, nil
}

// Update merges a partial update into a listing owned by the actor.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id domain.PropertyID, in UpdateInput) (*Property, error) {
	listing, err := s.ownedListing(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := listing.Apply(in, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	if err := s.store.UpdateByID(ctx, listing); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update property")
	}
	return listing, nil
}

// Delete removes a listing owned by the actor.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id domain.PropertyID) error {
	listing, err := s.ownedListing(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete property")
	}

	s.logAudit(ctx, audit.EventPropertyDeleted,
		"property_id", listing.ID.String(),
		"account_id", actor.ID.String(),
	)
	return nil
}

func (s *Service) ownedListing(ctx context.Context, actor domain.Actor, id domain.PropertyID) (*Property, error) {
	listing, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load property")
	}
	if err := policy.Decide(actor, listing.SellerID, policy.OpUpdate); err != nil {
		return nil, err
	}
	return listing, nil
}

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
