package services

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"jcoder/internal/config"
	"jcoder/internal/models"
	"jcoder/internal/observability"
	"jcoder/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		APIKey:       username + "-key",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func strPtr(s string) *string { return &s }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestViewService(t *testing.T, db *gorm.DB, c *clock) (*ViewService, *observability.Metrics) {
	t.Helper()
	users := repository.NewUserRepository(db, nil, time.Minute, testLogger)
	geoIP := NewGeoIPService(config.Config{}, testLogger)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	svc := NewViewService(db, users, geoIP, metrics, testLogger)
	svc.now = c.Now
	return svc, metrics
}

func newTestEngagementService(t *testing.T, db *gorm.DB, c *clock) *EngagementService {
	t.Helper()
	users := repository.NewUserRepository(db, nil, time.Minute, testLogger)
	svc := NewEngagementService(db, users, nil, testLogger)
	svc.now = c.Now
	return svc
}

type seedView struct {
	ip, fingerprint, country, referer *string
	owner                             bool
	at                                time.Time
}

func insertView(t *testing.T, db *gorm.DB, userID uint, v seedView) {
	t.Helper()
	view := models.PortfolioView{
		UserID:      userID,
		IPAddress:   v.ip,
		Fingerprint: v.fingerprint,
		Country:     v.country,
		Referer:     v.referer,
		IsOwner:     v.owner,
		CreatedAt:   v.at.UTC(),
	}
	require.NoError(t, db.Create(&view).Error)
}

func countViews(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.PortfolioView{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}
