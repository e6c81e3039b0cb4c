package repository

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"jcoder/internal/config"
	"jcoder/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserDB(t *testing.T) *gorm.DB {
	db, err := InitDB(config.Config{DatabaseURL: "sqlite://:memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestUserRepository_FindByUsername(t *testing.T) {
	db := setupUserDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	user := models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x", APIKey: "k1", Headline: "Engineer"}
	require.NoError(t, db.Create(&user).Error)

	t.Run("Without Cache", func(t *testing.T) {
		repo := NewUserRepository(db, nil, time.Minute, logger)

		got, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = repo.FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Cache Fill And Hit", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		repo := NewUserRepository(db, rdb, time.Minute, logger)

		got, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Engineer", got.Headline)
		assert.True(t, mr.Exists("user:alice"))

		// Served from the cache even after the row changes underneath.
		db.Model(&models.User{}).Where("id = ?", user.ID).Update("headline", "Architect")
		got, err = repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Engineer", got.Headline)

		repo.Invalidate(ctx, "alice")
		assert.False(t, mr.Exists("user:alice"))

		got, err = repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Architect", got.Headline)
	})

	t.Run("Unreachable Cache Falls Back", func(t *testing.T) {
		rdb := redis.NewClient(&redis.Options{Addr: "localhost:1", MaxRetries: -1})
		defer rdb.Close()

		repo := NewUserRepository(db, rdb, 0, logger)
		got, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		repo.Invalidate(ctx, "alice")
	})
}

func TestUserRepository_FindByID(t *testing.T) {
	db := setupUserDB(t)
	repo := NewUserRepository(db, nil, time.Minute, slog.Default())

	user := models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x", APIKey: "k2"}
	require.NoError(t, db.Create(&user).Error)

	got, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = repo.FindByID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
