package registrar

import (
	"context"
	"errors"
	"fmt"

	"propmarket/internal/audit"
	"propmarket/internal/policy"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/platform/sentinel"
)

// DeregisterCustomer removes a customer profile and its auth identity in one
// transaction. A missing identity alongside an existing profile is repaired
// silently rather than failing the removal.
func (s *Service) DeregisterCustomer(ctx context.Context, actor domain.Actor, id domain.AccountID) error {
	ctx, span := s.tracer.Start(ctx, "registrar.DeregisterCustomer")
	defer span.End()

	if err := policy.Decide(actor, id, policy.OpDelete); err != nil {
		return err
	}

	if _, err := s.stores.Customers.FindByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	err := s.runTx(ctx, span, func(stores Stores) error {
		if err := stores.Customers.DeleteByID(ctx, id); err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		return s.deleteIdentityLenient(ctx, stores, id)
	})
	if err != nil {
		return s.translateDeleteErr(err, "customer not found")
	}

	s.logAudit(ctx, audit.EventCustomerDeleted, "account_id", id.String(), "actor_id", actor.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementDeregistrations(string(domain.RoleCustomer))
	}
	return nil
}

// DeregisterSeller removes a seller profile and its auth identity in one
// transaction. Removal is refused while the seller still owns property
// listings.
func (s *Service) DeregisterSeller(ctx context.Context, actor domain.Actor, id domain.AccountID) error {
	ctx, span := s.tracer.Start(ctx, "registrar.DeregisterSeller")
	defer span.End()

	if err := policy.Decide(actor, id, policy.OpDelete); err != nil {
		return err
	}

	if _, err := s.stores.Sellers.FindByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}

	if s.properties != nil {
		n, err := s.properties.CountBySeller(ctx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count listings")
		}
		if n > 0 {
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("seller still owns %d property listings", n))
		}
	}

	err := s.runTx(ctx, span, func(stores Stores) error {
		if err := stores.Sellers.DeleteByID(ctx, id); err != nil {
			return fmt.Errorf("delete seller: %w", err)
		}
		return s.deleteIdentityLenient(ctx, stores, id)
	})
	if err != nil {
		return s.translateDeleteErr(err, "seller not found")
	}

	s.logAudit(ctx, audit.EventSellerDeleted, "account_id", id.String(), "actor_id", actor.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementDeregistrations(string(domain.RoleSeller))
	}
	return nil
}

// deleteIdentityLenient removes the auth identity but tolerates its absence.
// A profile without an identity is a half-registered account; removal is
// the repair.
func (s *Service) deleteIdentityLenient(ctx context.Context, stores Stores, id domain.AccountID) error {
	err := stores.Identities.DeleteByID(ctx, id)
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "profile had no linked identity, removing profile alone", "account_id", id.String())
		}
		return nil
	}
	return fmt.Errorf("delete identity: %w", err)
}

func (s *Service) translateDeleteErr(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// Lost a race with a concurrent delete. The record is gone either
		// way; report it as missing.
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction aborted")
	}
}
