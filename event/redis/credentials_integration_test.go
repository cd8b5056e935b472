//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/pulseboard/eventpipe/event"
	"github.com/pulseboard/eventpipe/event/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Credentials_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("rotate installs the credential", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		repo := CreateTestRepository(t, redisContainer.Addr)
		defer repo.Close(ctx)

		hash := credential.HashToken("whtok_first")
		require.NoError(t, repo.Rotate(ctx, "agent-1", "proj-1", hash))

		active, err := repo.Active(ctx, "agent-1")
		require.NoError(t, err)
		assert.Equal(t, "agent-1", active.SourceID)
		assert.Equal(t, "proj-1", active.ProjectID)
		assert.Equal(t, hash, active.TokenHash)
		assert.True(t, active.Active())
	})

	t.Run("rotation revokes the prior token", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		repo := CreateTestRepository(t, redisContainer.Addr)
		defer repo.Close(ctx)

		require.NoError(t, repo.Rotate(ctx, "agent-1", "proj-1", credential.HashToken("whtok_old")))
		require.NoError(t, repo.Rotate(ctx, "agent-1", "proj-1", credential.HashToken("whtok_new")))

		active, err := repo.Active(ctx, "agent-1")
		require.NoError(t, err)

		// Only the new token verifies; the old one is archived
		assert.True(t, credential.VerifyToken("whtok_new", active.TokenHash))
		assert.False(t, credential.VerifyToken("whtok_old", active.TokenHash))
		assert.True(t, KeyExists(t, redisContainer.Addr, "credential:agent-1:history"))
	})

	t.Run("revoked source authenticates nothing", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		repo := CreateTestRepository(t, redisContainer.Addr)
		defer repo.Close(ctx)

		require.NoError(t, repo.Rotate(ctx, "agent-1", "proj-1", credential.HashToken("whtok_live")))
		require.NoError(t, repo.Revoke(ctx, "agent-1"))

		_, err := repo.Active(ctx, "agent-1")
		require.Error(t, err)

		// Through the verifier this collapses to unauthorized
		verifier := credential.NewVerifier(repo)
		_, err = verifier.Authenticate(ctx, "agent-1", "whtok_live")
		require.ErrorIs(t, err, event.ErrUnauthorized)
	})

	t.Run("rotate rejects a plaintext token", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		repo := CreateTestRepository(t, redisContainer.Addr)
		defer repo.Close(ctx)

		err := repo.Rotate(ctx, "agent-1", "proj-1", "whtok_plaintext")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token_hash")
	})

	t.Run("revoke without an active credential", func(t *testing.T) {
		redisContainer, cleanup := SetupRedisContainer(t, ctx)
		defer cleanup()

		repo := CreateTestRepository(t, redisContainer.Addr)
		defer repo.Close(ctx)

		require.Error(t, repo.Revoke(ctx, "ghost"))
	})
}
