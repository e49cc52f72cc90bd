package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"propmarket/internal/audit"
	"propmarket/internal/jwttoken"
	"propmarket/internal/platform/metrics"
	"propmarket/internal/policy"
	"propmarket/pkg/attrs"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/email"
	"propmarket/pkg/password"
	"propmarket/pkg/platform/sentinel"
	"propmarket/pkg/requestcontext"
)

// RevocationList tracks logged-out token IDs until expiry.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service owns authentication: login, logout, password changes and
// admin-created identities. Registration of customer and seller accounts
// lives in the registrar, which pairs the identity with a profile.
type Service struct {
	store          Store
	tokens         *jwttoken.Service
	revocations    RevocationList
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

func WithRevocationList(list RevocationList) Option {
	return func(s *Service) {
		s.revocations = list
	}
}

// NewService constructs the identity service.
func NewService(store Store, tokens *jwttoken.Service, opts ...Option) *Service {
	s := &Service{store: store, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult carries the token and the authenticated identity.
type LoginResult struct {
	Token    string    `json:"token"`
	Identity *Identity `json:"user"`
}

// Login verifies credentials and issues a JWT. The same message covers an
// unknown email and a wrong password so the endpoint does not confirm which
// accounts exist.
func (s *Service) Login(ctx context.Context, emailAddr, cleartext string) (*LoginResult, error) {
	emailAddr = email.Normalize(emailAddr)
	if emailAddr == "" || cleartext == "" {
		return nil, s.loginFailure(ctx, emailAddr, "missing credentials")
	}

	ident, err := s.store.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.loginFailure(ctx, emailAddr, "unknown email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}

	if !password.Verify(ident.PasswordHash, cleartext) {
		return nil, s.loginFailure(ctx, emailAddr, "wrong password")
	}

	// The persisted role is the only source of truth for what goes into
	// the token; nothing from the request can influence it.
	token, err := s.tokens.Generate(ident.ID, ident.Role, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logAudit(ctx, audit.EventLoginSucceeded, "account_id", ident.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementLogins("success")
	}
	return &LoginResult{Token: token, Identity: ident}, nil
}

func (s *Service) loginFailure(ctx context.Context, emailAddr, reason string) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "login rejected", "email", emailAddr, "reason", reason)
	}
	s.logAudit(ctx, audit.EventLoginFailed)
	if s.metrics != nil {
		s.metrics.IncrementLogins("failure")
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// Authenticate validates a bearer token against the signing key, the
// revocation list and the identity store. The returned actor's role comes
// from the stored record, not the token, so a role change takes effect on
// the next request even for tokens minted before it.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, *jwttoken.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, nil, err
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check token revocation")
		}
		if revoked {
			return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
		}
	}

	accountID, err := domain.ParseAccountID(claims.Subject)
	if err != nil {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "malformed token subject")
	}

	ident, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return ident, claims, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, claims *jwttoken.Claims) error {
	if s.revocations == nil {
		return nil
	}
	ttl := claims.TTL(requestcontext.Now(ctx))
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logAudit(ctx, audit.EventLogout, "account_id", claims.Subject)
	return nil
}

// CreateInput is an admin-created identity, used for operator accounts that
// have no marketplace profile.
type CreateInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create adds a standalone identity. Only admins may call it; customer and
// seller accounts must go through registration instead so they get a
// profile.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*Identity, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeValidation, "only admin identities can be created directly; use registration")
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid password").
			WithFields(dErrors.FieldError{Field: "password", Message: err.Error()})
	}

	now := requestcontext.Now(ctx)
	ident, err := New(domain.NewAccountID(), in.Name, in.Email, hash, role, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.store.Insert(ctx, ident); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}

	s.logAudit(ctx, "identity.created", "account_id", ident.ID.String(), "actor_id", actor.ID.String())
	return ident, nil
}

// Delete removes a standalone identity. Admin-only, like Create, and only
// for identities without a profile: customer and seller accounts are
// removed through deregistration so the profile goes with them.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id domain.AccountID) error {
	if err := policy.Decide(actor, id, policy.OpDelete); err != nil {
		return err
	}

	ident, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	if ident.Role != domain.RoleAdmin {
		return dErrors.New(dErrors.CodeValidation, "customer and seller accounts are removed through deregistration")
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete identity")
	}

	s.logAudit(ctx, "identity.deleted", "account_id", id.String(), "actor_id", actor.ID.String())
	return nil
}

// Get returns an identity subject to the admin-or-self rule.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id domain.AccountID) (*Identity, error) {
	if err := policy.Decide(actor, id, policy.OpRead); err != nil {
		return nil, err
	}
	ident, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return ident, nil
}

// ChangePasswordInput carries a password change. CurrentPassword is required
// when the actor changes their own password; admins resetting another
// account's password skip it.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Service) ChangePassword(ctx context.Context, actor domain.Actor, id domain.AccountID, in ChangePasswordInput) error {
	if err := policy.Decide(actor, id, policy.OpUpdate); err != nil {
		return err
	}

	ident, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}

	if actor.ID == id {
		if !password.Verify(ident.PasswordHash, in.CurrentPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
		}
	}

	hash, err := password.Hash(in.NewPassword)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid password").
			WithFields(dErrors.FieldError{Field: "new_password", Message: err.Error()})
	}

	ident.PasswordHash = hash
	ident.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.UpdateByID(ctx, ident); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	s.logAudit(ctx, audit.EventPasswordChanged, "account_id", id.String(), "actor_id", actor.ID.String())
	return nil
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
