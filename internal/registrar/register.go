package registrar

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"propmarket/internal/audit"
	"propmarket/internal/customer"
	"propmarket/internal/identity"
	"propmarket/internal/seller"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/email"
	"propmarket/pkg/password"
	"propmarket/pkg/platform/sentinel"
	"propmarket/pkg/requestcontext"
)

// RegisterCustomerInput is a customer registration request.
type RegisterCustomerInput struct {
	Profile  customer.NewProfileInput
	Password string
}

// RegisterSellerInput is a seller registration request.
type RegisterSellerInput struct {
	Profile  seller.NewProfileInput
	Password string
}

// RegisterCustomer creates a customer profile and its auth identity in one
// transaction. The email must be unused by any account of either role.
func (s *Service) RegisterCustomer(ctx context.Context, in RegisterCustomerInput) (*customer.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "registrar.RegisterCustomer")
	defer span.End()

	now := requestcontext.Now(ctx)
	profile, err := customer.NewProfile(in.Profile, now)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	ident, err := identity.New(profile.ID, profile.DisplayName(), profile.Email, hash, domain.RoleCustomer, now)
	if err != nil {
		return nil, err
	}

	if err := s.checkEmailAvailable(ctx, profile.Email); err != nil {
		return nil, err
	}

	err = s.runTx(ctx, span, func(stores Stores) error {
		if err := stores.Customers.Insert(ctx, profile); err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		if err := stores.Identities.Insert(ctx, ident); err != nil {
			return fmt.Errorf("insert identity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.translateWriteErr(err, "email is already registered")
	}

	s.logAudit(ctx, audit.EventCustomerRegistered, "account_id", profile.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementRegistrations(string(domain.RoleCustomer))
	}
	return profile, nil
}

// RegisterSeller creates a seller profile and its auth identity in one
// transaction. New sellers always start in the Pending approval state
// regardless of any status in the request.
func (s *Service) RegisterSeller(ctx context.Context, in RegisterSellerInput) (*seller.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "registrar.RegisterSeller")
	defer span.End()

	now := requestcontext.Now(ctx)
	profile, err := seller.NewProfile(in.Profile, now)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	ident, err := identity.New(profile.ID, profile.DisplayName(), profile.Email, hash, domain.RoleSeller, now)
	if err != nil {
		return nil, err
	}

	if err := s.checkEmailAvailable(ctx, profile.Email); err != nil {
		return nil, err
	}
	if err := s.checkUsernameAvailable(ctx, profile.Username); err != nil {
		return nil, err
	}

	err = s.runTx(ctx, span, func(stores Stores) error {
		if err := stores.Sellers.Insert(ctx, profile); err != nil {
			return fmt.Errorf("insert seller: %w", err)
		}
		if err := stores.Identities.Insert(ctx, ident); err != nil {
			return fmt.Errorf("insert identity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.translateWriteErr(err, "email or username is already registered")
	}

	s.logAudit(ctx, audit.EventSellerRegistered, "account_id", profile.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementRegistrations(string(domain.RoleSeller))
	}
	return profile, nil
}

func hashPassword(cleartext string) (string, error) {
	hash, err := password.Hash(cleartext)
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "invalid password").
			WithFields(dErrors.FieldError{Field: "password", Message: err.Error()})
	}
	return hash, nil
}

// checkEmailAvailable scans both the identity and profile collections. The
// check is advisory; the unique indexes are the real arbiter under
// concurrency.
func (s *Service) checkEmailAvailable(ctx context.Context, addr string) error {
	addr = email.Normalize(addr)
	if _, err := s.stores.Identities.FindByEmail(ctx, addr); err == nil {
		return dErrors.New(dErrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if _, err := s.stores.Customers.FindByEmail(ctx, addr); err == nil {
		return dErrors.New(dErrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if _, err := s.stores.Sellers.FindByEmail(ctx, addr); err == nil {
		return dErrors.New(dErrors.CodeConflict, "email is already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	return nil
}

func (s *Service) checkUsernameAvailable(ctx context.Context, username string) error {
	if _, err := s.stores.Sellers.FindByUsername(ctx, username); err == nil {
		return dErrors.New(dErrors.CodeConflict, "username is already taken")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check username")
	}
	return nil
}

// runTx executes fn in a transaction, retrying once when the database
// reports a serialization failure.
func (s *Service) runTx(ctx context.Context, span trace.Span, fn func(stores Stores) error) error {
	err := s.tx.RunInTx(ctx, fn)
	if err == nil || !errors.Is(err, sentinel.ErrRetryable) {
		return err
	}

	span.SetAttributes(attribute.Bool("tx.retried", true))
	if s.metrics != nil {
		s.metrics.IncrementTxRetries()
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "transaction serialization failure, retrying", "error", err)
	}
	return s.tx.RunInTx(ctx, fn)
}

// translateWriteErr maps transaction failures onto the API error taxonomy.
// Uniqueness races surface as conflicts; everything else aborts opaquely.
func (s *Service) translateWriteErr(err error, conflictMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		if s.metrics != nil {
			s.metrics.IncrementRegistrationConflicts()
		}
		return dErrors.New(dErrors.CodeConflict, conflictMsg)
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "transaction aborted")
	}
}
