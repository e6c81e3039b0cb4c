package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jcoder/internal/config"
	"jcoder/internal/models"
	"jcoder/internal/observability"
	"jcoder/internal/repository"
	"jcoder/internal/services"
	"jcoder/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		SessionSecret: "test-secret-12345678901234567890123456789012",
		PublicBaseURL: "https://jcoder.dev/portfolio",
	}

	users := repository.NewUserRepository(db, nil, time.Minute, log)
	audit := services.NewAuditService(db, log)
	geoIP := services.NewGeoIPService(cfg, log)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	h := NewHandler(
		cfg,
		log,
		services.NewAuthService(db, users, audit),
		services.NewViewService(db, users, geoIP, metrics, log),
		services.NewEngagementService(db, users, metrics, log),
		services.NewProfileService(db, users, audit),
		services.NewQRService(),
		metrics,
	)
	return h, db
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil, nil)
}

// createTestUser stores a user whose password is "password123".
func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		APIKey:       username + "-api-key",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func performRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewBuffer(data)
	}

	req, _ := http.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func apiKey(user models.User) map[string]string {
	return map[string]string{"X-API-Key": user.APIKey}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
