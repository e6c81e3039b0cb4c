package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"jcoder/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(testLogger)

	assert.NoError(t, s.Register("valid", "@every 1h", time.Second, func(ctx context.Context) error { return nil }))
	assert.Len(t, s.cron.Entries(), 1)

	err := s.Register("broken", "not a schedule", time.Second, func(ctx context.Context) error { return nil })
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := NewScheduler(testLogger)
	runs := make(chan struct{}, 4)

	require.NoError(t, s.Register("tick", "@every 1s", time.Second, func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		runs <- struct{}{}
		return errors.New("failures are logged, not fatal")
	}))

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case <-runs:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestScheduler_RegisterMaintenance(t *testing.T) {
	db := setupTestDB(t)
	audit := NewAuditService(db, testLogger)

	t.Run("Everything Disabled", func(t *testing.T) {
		s := NewScheduler(testLogger)
		geoIP := NewGeoIPService(config.Config{}, testLogger)
		require.NoError(t, s.RegisterMaintenance(geoIP, "@daily", audit, 0, "@daily"))
		assert.Empty(t, s.cron.Entries())
	})

	t.Run("Both Jobs", func(t *testing.T) {
		s := NewScheduler(testLogger)
		geoIP := NewGeoIPService(config.Config{MaxMindAccountID: "id", MaxMindLicenseKey: "key"}, testLogger)
		require.NoError(t, s.RegisterMaintenance(geoIP, "@daily", audit, 90, "30 3 * * *"))
		assert.Len(t, s.cron.Entries(), 2)
	})

	t.Run("Bad Schedule", func(t *testing.T) {
		s := NewScheduler(testLogger)
		assert.Error(t, s.RegisterMaintenance(nil, "", audit, 90, "every tuesday"))
	})
}
