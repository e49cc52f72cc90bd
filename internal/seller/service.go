package seller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"propmarket/internal/audit"
	"propmarket/internal/platform/metrics"
	"propmarket/internal/policy"
	"propmarket/pkg/attrs"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/platform/sentinel"
	"propmarket/pkg/requestcontext"
)

// Service reads and updates seller profiles and owns approval status
// transitions. Creation and deletion happen in the registrar.
type Service struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher audit.Publisher
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
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}
	return profile, nil
}

// List returns seller profiles, optionally filtered by approval status.
// Admin only.
func (s *Service) List(ctx context.Context, actor domain.Actor, status Status) ([]*Profile, error) {
	if err := policy.Decide(actor, domain.AccountID{}, policy.OpList); err != nil {
		return nil, err
	}
	profiles, err := s.store.List(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sellers")
	}
	return profiles, nil
}

// Update merges a partial update into the profile. Email, username and
// status are immutable here; status moves only through ChangeStatus.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id domain.AccountID, in UpdateInput) (*Profile, error) {
	if err := policy.Decide(actor, id, policy.OpUpdate); err != nil {
		return nil, err
	}

	profile, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}

	if err := profile.Apply(in, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	if err := s.store.UpdateByID(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update seller")
	}

	s.logAudit(ctx, audit.EventProfileUpdated, "account_id", id.String(), "actor_id", actor.ID.String())
	return profile, nil
}

// ChangeStatus moves a seller through the approval state machine. Admin
// only; illegal transitions are rejected.
func (s *Service) ChangeStatus(ctx context.Context, actor domain.Actor, id domain.AccountID, next Status) (*Profile, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	profile, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}

	previous := profile.Status
	if err := profile.ChangeStatus(next, requestcontext.Now(ctx)); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("cannot move seller from %s to %s", previous, next))
		}
		return nil, err
	}

	if err := s.store.UpdateByID(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update seller status")
	}

	s.logAudit(ctx, audit.EventSellerStatusChanged,
		"account_id", id.String(),
		"actor_id", actor.ID.String(),
		"from", string(previous),
		"to", string(next),
	)
	if s.metrics != nil {
		s.metrics.IncrementSellerStatusChanges()
	}
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
