package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmarket/internal/identity/revocation"
	"propmarket/internal/jwttoken"
	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
	"propmarket/pkg/password"
)

func newTestIdentityService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	tokens := jwttoken.New("test-signing-key", "propmarket-test", time.Hour)
	svc := NewService(store, tokens, WithRevocationList(revocation.NewMemoryList()))
	return svc, store
}

func seedIdentity(t *testing.T, store *MemoryStore, emailAddr, cleartext string, role domain.Role) *Identity {
	t.Helper()
	hash, err := password.Hash(cleartext)
	require.NoError(t, err)
	ident, err := New(domain.NewAccountID(), "Test Account", emailAddr, hash, role, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Insert(context.Background(), ident))
	return ident
}

func TestLoginIssuesToken(t *testing.T) {
	svc, store := newTestIdentityService(t)
	ident := seedIdentity(t, store, "ada@example.com", "s3cret-pass", domain.RoleCustomer)

	result, err := svc.Login(context.Background(), "Ada@Example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, ident.ID, result.Identity.ID)

	loaded, claims, err := svc.Authenticate(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, ident.ID, loaded.ID)
	assert.Equal(t, ident.ID.String(), claims.Subject)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, store := newTestIdentityService(t)
	seedIdentity(t, store, "ada@example.com", "s3cret-pass", domain.RoleCustomer)

	_, err := svc.Login(context.Background(), "ada@example.com", "wrong-pass")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid email or password", err.Error())
}

func TestLoginRejectsUnknownEmailWithSameMessage(t *testing.T) {
	svc, _ := newTestIdentityService(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever-pass")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid email or password", err.Error())
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, store := newTestIdentityService(t)
	seedIdentity(t, store, "ada@example.com", "s3cret-pass", domain.RoleCustomer)

	result, err := svc.Login(context.Background(), "ada@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, claims, err := svc.Authenticate(context.Background(), result.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), claims))

	_, _, err = svc.Authenticate(context.Background(), result.Token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAuthenticateUsesStoredRole(t *testing.T) {
	svc, store := newTestIdentityService(t)
	ident := seedIdentity(t, store, "ada@example.com", "s3cret-pass", domain.RoleSeller)

	result, err := svc.Login(context.Background(), "ada@example.com", "s3cret-pass")
	require.NoError(t, err)

	// Demote after the token was minted; the next request must see the
	// stored role, not the one baked into the token.
	ident.Role = domain.RoleCustomer
	require.NoError(t, store.UpdateByID(context.Background(), ident))

	loaded, _, err := svc.Authenticate(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, loaded.Role)
}

func TestAuthenticateRejectsDeletedAccount(t *testing.T) {
	svc, store := newTestIdentityService(t)
	ident := seedIdentity(t, store, "ada@example.com", "s3cret-pass", domain.RoleCustomer)

	result, err := svc.Login(context.Background(), "ada@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, store.DeleteByID(context.Background(), ident.ID))

	_, _, err = svc.Authenticate(context.Background(), result.Token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestCreateRequiresAdmin(t *testing.T) {
	svc, _ := newTestIdentityService(t)
	actor := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleCustomer}

	_, err := svc.Create(context.Background(), actor, CreateInput{
		Name: "Ops", Email: "ops@example.com", Password: "s3cret-pass", Role: "admin",
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestCreateAdminIdentity(t *testing.T) {
	svc, store := newTestIdentityService(t)
	actor := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	ident, err := svc.Create(context.Background(), actor, CreateInput{
		Name: "Ops", Email: "ops@example.com", Password: "s3cret-pass", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, ident.Role)

	stored, err := store.FindByEmail(context.Background(), "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, ident.ID, stored.ID)
}

func TestCreateRejectsNonAdminRole(t *testing.T) {
	svc, _ := newTestIdentityService(t)
	actor := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	_, err := svc.Create(context.Background(), actor, CreateInput{
		Name: "Shadow", Email: "shadow@example.com", Password: "s3cret-pass", Role: "seller",
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDeleteAdminIdentity(t *testing.T) {
	svc, store := newTestIdentityService(t)
	target := seedIdentity(t, store, "ops@example.com", "s3cret-pass", domain.RoleAdmin)
	actor := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	require.NoError(t, svc.Delete(context.Background(), actor, target.ID))
	_, err := store.FindByID(context.Background(), target.ID)
	assert.Error(t, err)

	err = svc.Delete(context.Background(), actor, target.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDeleteRequiresAdmin(t *testing.T) {
	svc, store := newTestIdentityService(t)
	target := seedIdentity(t, store, "ops@example.com", "s3cret-pass", domain.RoleAdmin)
	actor := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleCustomer}

	err := svc.Delete(context.Background(), actor, target.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestDeleteRefusesProfileBackedIdentity(t *testing.T) {
	svc, store := newTestIdentityService(t)
	target := seedIdentity(t, store, "ada@example.com", "s3cret-pass", domain.RoleCustomer)
	actor := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	// Customer and seller pairs are dismantled by the registrar, never here.
	err := svc.Delete(context.Background(), actor, target.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = store.FindByID(context.Background(), target.ID)
	assert.NoError(t, err)
}

func TestChangePasswordSelfRequiresCurrent(t *testing.T) {
	svc, store := newTestIdentityService(t)
	ident := seedIdentity(t, store, "ada@example.com", "s3cret-pass", domain.RoleCustomer)
	actor := domain.Actor{ID: ident.ID, Role: domain.RoleCustomer}

	err := svc.ChangePassword(context.Background(), actor, ident.ID, ChangePasswordInput{
		CurrentPassword: "wrong-pass",
		NewPassword:     "brand-new-pass",
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = svc.ChangePassword(context.Background(), actor, ident.ID, ChangePasswordInput{
		CurrentPassword: "s3cret-pass",
		NewPassword:     "brand-new-pass",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ada@example.com", "brand-new-pass")
	assert.NoError(t, err)
}

func TestChangePasswordAdminSkipsCurrent(t *testing.T) {
	svc, store := newTestIdentityService(t)
	ident := seedIdentity(t, store, "ada@example.com", "s3cret-pass", domain.RoleCustomer)
	admin := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	err := svc.ChangePassword(context.Background(), admin, ident.ID, ChangePasswordInput{
		NewPassword: "reset-by-admin",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ada@example.com", "reset-by-admin")
	assert.NoError(t, err)
}
