package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jcoder/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

const userCachePrefix = "user:"

// UserRepository looks users up by username, keeping a copy of each hit
// in Redis. A nil or unreachable Redis client only costs a database
// round trip.
type UserRepository struct {
	db     *gorm.DB
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewUserRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *UserRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &UserRepository{
		db:     db,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if r.rdb != nil {
		val, err := r.rdb.Get(ctx, userCachePrefix+username).Result()
		if err == nil {
			var cached models.User
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			r.logger.Debug("User cache read failed", "username", username, "error", err)
		}
	}

	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %q: %w", username, err)
	}

	if r.rdb != nil {
		data, _ := json.Marshal(user)
		if err := r.rdb.Set(ctx, userCachePrefix+username, data, r.ttl).Err(); err != nil {
			r.logger.Debug("User cache write failed", "username", username, "error", err)
		}
	}

	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

// Invalidate drops the cached copy after a profile change.
func (r *UserRepository) Invalidate(ctx context.Context, username string) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, userCachePrefix+username).Err(); err != nil {
		r.logger.Debug("User cache invalidation failed", "username", username, "error", err)
	}
}
