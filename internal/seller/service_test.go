package seller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmarket/pkg/domain"
	dErrors "propmarket/pkg/domain-errors"
)

func seedSeller(t *testing.T, store *MemoryStore, emailAddr, username string) *Profile {
	t.Helper()
	profile, err := NewProfile(NewProfileInput{
		FirstName:          "Bola",
		LastName:           "Adeyemi",
		Email:              emailAddr,
		Phone:              "+2348098765432",
		Identification:     "NIN-29381840",
		Username:           username,
		PreferredLanguages: []string{"English"},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Insert(context.Background(), profile))
	return profile
}

func TestChangeStatusApprovesPendingSeller(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	profile := seedSeller(t, store, "bola@example.com", "bola")
	admin := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	updated, err := svc.ChangeStatus(context.Background(), admin, profile.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)

	stored, err := store.FindByID(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
}

func TestChangeStatusRejectsIllegalTransition(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	profile := seedSeller(t, store, "bola@example.com", "bola")
	admin := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	_, err := svc.ChangeStatus(context.Background(), admin, profile.ID, StatusApproved)
	require.NoError(t, err)

	// Approved can only move to Rejected, never back to Pending directly.
	_, err = svc.ChangeStatus(context.Background(), admin, profile.ID, StatusPending)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestChangeStatusRequiresAdmin(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	profile := seedSeller(t, store, "bola@example.com", "bola")
	actor := domain.Actor{ID: profile.ID, Role: domain.RoleSeller}

	_, err := svc.ChangeStatus(context.Background(), actor, profile.ID, StatusApproved)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestUpdateMergesPartialFields(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	profile := seedSeller(t, store, "bola@example.com", "bola")
	actor := domain.Actor{ID: profile.ID, Role: domain.RoleSeller}

	bio := "Twenty years in Lagos real estate."
	updated, err := svc.Update(context.Background(), actor, profile.ID, UpdateInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, "Bola", updated.FirstName)
	assert.Equal(t, "bola", updated.Username)
}

func TestUpdateForbiddenForOtherSeller(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	profile := seedSeller(t, store, "bola@example.com", "bola")
	actor := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleSeller}

	bio := "hijacked"
	_, err := svc.Update(context.Background(), actor, profile.ID, UpdateInput{Bio: &bio})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestListFiltersByStatus(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	admin := domain.Actor{ID: domain.NewAccountID(), Role: domain.RoleAdmin}

	first := seedSeller(t, store, "bola@example.com", "bola")
	seedSeller(t, store, "chi@example.com", "chi")

	_, err := svc.ChangeStatus(context.Background(), admin, first.ID, StatusApproved)
	require.NoError(t, err)

	approved, err := svc.List(context.Background(), admin, StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)

	all, err := svc.List(context.Background(), admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListRequiresAdmin(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	profile := seedSeller(t, store, "bola@example.com", "bola")

	_, err := svc.List(context.Background(), domain.Actor{ID: profile.ID, Role: domain.RoleSeller}, "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
