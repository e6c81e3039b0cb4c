package handlers

import (
	"net/http"
	"testing"

	"jcoder/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestMiddlewares(t *testing.T) {
	h, db := setupTestHandler(t)
	r := setupTestRouter(h)

	r.GET("/protected", h.AuthRequired(), func(c *gin.Context) {
		userID, username := currentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": userID, "username": username})
	})
	r.GET("/set-session/:id", func(c *gin.Context) {
		session := sessions.Default(c)
		if c.Param("id") == "999" {
			session.Set(ctxUserID, uint(999))
		} else {
			session.Set(ctxUserID, uint(1))
		}
		session.Save()
		c.Status(http.StatusOK)
	})

	alice := createTestUser(t, db, "alice")

	t.Run("AuthRequired - Unauthorized", func(t *testing.T) {
		w := performRequest(r, "GET", "/protected", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AuthRequired - Invalid API Key", func(t *testing.T) {
		w := performRequest(r, "GET", "/protected", nil, map[string]string{"X-API-Key": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AuthRequired - API Key Success", func(t *testing.T) {
		w := performRequest(r, "GET", "/protected", nil, apiKey(alice))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"alice"`)
	})

	t.Run("AuthRequired - Session Success", func(t *testing.T) {
		w1 := performRequest(r, "GET", "/set-session/1", nil, nil)
		cookie := w1.Header().Get("Set-Cookie")

		w := performRequest(r, "GET", "/protected", nil, map[string]string{"Cookie": cookie})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"username":"alice"`)
	})

	t.Run("AuthRequired - Session For Missing User", func(t *testing.T) {
		w1 := performRequest(r, "GET", "/set-session/999", nil, nil)
		cookie := w1.Header().Get("Set-Cookie")

		w := performRequest(r, "GET", "/protected", nil, map[string]string{"Cookie": cookie})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("RateLimitMiddleware", func(t *testing.T) {
		limiter := services.NewIPRateLimiter(rate.Limit(0.001), 1, h.logger)
		r.GET("/limited", h.RateLimitMiddleware(limiter), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := performRequest(r, "GET", "/limited", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = performRequest(r, "GET", "/limited", nil, nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}
