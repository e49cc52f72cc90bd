//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmarket/internal/identity/revocation"
	"propmarket/pkg/testutil/containers"
)

func TestRedisListRevokeAndExpire(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	list := revocation.NewRedisList(rc.Client)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-unknown")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// The marker disappears with its TTL.
	require.NoError(t, list.Revoke(ctx, "jti-short", time.Second))
	assert.Eventually(t, func() bool {
		revoked, err := list.IsRevoked(ctx, "jti-short")
		return err == nil && !revoked
	}, 5*time.Second, 200*time.Millisecond)
}

func TestRedisListIgnoresEmptyAndExpiredInput(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	list := revocation.NewRedisList(rc.Client)
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "", time.Minute))
	require.NoError(t, list.Revoke(ctx, "jti-expired", -time.Minute))

	revoked, err := list.IsRevoked(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}
