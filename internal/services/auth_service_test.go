package services

import (
	"context"
	"testing"
	"time"

	"jcoder/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	users := repository.NewUserRepository(db, nil, time.Minute, testLogger)
	audit := NewAuditService(db, testLogger)
	svc := NewAuthService(db, users, audit)

	drain := func() []string {
		var actions []string
		for len(audit.entries) > 0 {
			actions = append(actions, (<-audit.entries).Action)
		}
		return actions
	}

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.APIKey)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Equal(t, []string{ActionRegister}, drain())

	t.Run("Register Duplicate", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "password123"})
		assert.ErrorIs(t, err, ErrUsernameTaken)

		_, err = svc.Register(ctx, RegisterInput{Username: "other", Email: "alice@example.com", Password: "password123"})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("Authenticate", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "alice", "password123", "1.1.1.1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		got, err = svc.Authenticate(ctx, "alice@example.com", "password123", "1.1.1.1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = svc.Authenticate(ctx, "alice", "wrong", "1.1.1.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Authenticate(ctx, "nobody", "password123", "1.1.1.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		assert.Equal(t, []string{ActionLogin, ActionLogin, ActionLoginFailed, ActionLoginFailed}, drain())
	})

	t.Run("Rotate API Key", func(t *testing.T) {
		newKey, err := svc.RotateAPIKey(ctx, user.ID, "1.1.1.1")
		require.NoError(t, err)
		assert.NotEqual(t, user.APIKey, newKey)

		_, err = svc.UserByAPIKey(ctx, user.APIKey)
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		got, err := svc.UserByAPIKey(ctx, newKey)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, []string{ActionRotateAPIKey}, drain())

		_, err = svc.RotateAPIKey(ctx, 999, "1.1.1.1")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
