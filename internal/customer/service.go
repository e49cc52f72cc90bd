package customer

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

// Service reads and updates customer profiles. Creation and deletion happen
// in the registrar, which pairs the profile with an auth identity.
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

// Get returns a profile subject to the admin-or-self rule.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id domain.AccountID) (*Profile, error) {
	if err := policy.Decide(actor, id, policy.OpRead); err != nil {
		return nil, err
	}
	profile, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	return profile, nil
}

// List returns all customer profiles. Admin only.
func (s *Service) List(ctx context.Context, actor domain.Actor) ([]*Profile, error) {
	if err := policy.Decide(actor, domain.AccountID{}, policy.OpList); err != nil {
		return nil, err
	}
	profiles, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list customers")
	}
	return profiles, nil
}

// Update merges a partial update into the profile. The email is immutable
// here: it is shared with the auth identity and only the registrar may
// touch linked fields.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id domain.AccountID, in UpdateInput) (*Profile, error) {
	if err := policy.Decide(actor, id, policy.OpUpdate); err != nil {
		return nil, err
	}

	profile, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	if err := profile.Apply(in, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	if err := s.store.UpdateByID(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update customer")
	}

	s.logAudit(ctx, audit.EventProfileUpdated, "account_id", id.String(), "actor_id", actor.ID.String())
	return profile, nil
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
