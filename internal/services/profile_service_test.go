package services

import (
	"context"
	"testing"
	"time"

	"jcoder/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	users := repository.NewUserRepository(db, nil, time.Minute, testLogger)
	audit := NewAuditService(db, testLogger)
	svc := NewProfileService(db, users, audit)

	alice := createUser(t, db, "alice")

	t.Run("Public Profile", func(t *testing.T) {
		profile, err := svc.GetPublicProfile(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", profile.Username)
	})

	t.Run("Public Profile Unknown User", func(t *testing.T) {
		_, err := svc.GetPublicProfile(ctx, "ghost")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Update Profile", func(t *testing.T) {
		user, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileDTO{
			Headline:  strPtr("Go engineer"),
			Bio:       strPtr("Builds things."),
			IPAddress: "10.0.0.1",
		})
		require.NoError(t, err)
		assert.Equal(t, "Go engineer", user.Headline)
		assert.Equal(t, "Builds things.", user.Bio)
		assert.Empty(t, user.FullName)

		require.Len(t, audit.entries, 1)
		entry := <-audit.entries
		assert.Equal(t, ActionUpdateProfile, entry.Action)
		assert.Equal(t, "10.0.0.1", entry.IPAddress)

		profile, err := svc.GetPublicProfile(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Go engineer", profile.Headline)
	})

	t.Run("Empty Update Is A No-op", func(t *testing.T) {
		user, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileDTO{})
		require.NoError(t, err)
		assert.Equal(t, "Go engineer", user.Headline)
		assert.Empty(t, audit.entries)
	})

	t.Run("Update Unknown User", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, 999, UpdateProfileDTO{Bio: strPtr("x")})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
