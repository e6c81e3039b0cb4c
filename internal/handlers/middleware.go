package handlers

import (
	"errors"
	"net/http"

	"jcoder/internal/models"
	"jcoder/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
)

// identify resolves the caller from the session cookie or, failing
// that, the X-API-Key header. It returns services.ErrInvalidCredentials
// for anonymous callers.
func (h *Handler) identify(c *gin.Context) (*models.User, error) {
	session := sessions.Default(c)
	if id, ok := session.Get(ctxUserID).(uint); ok {
		user, err := h.authService.UserByID(c.Request.Context(), id)
		if errors.Is(err, services.ErrUserNotFound) {
			return nil, services.ErrInvalidCredentials
		}
		return user, err
	}

	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
		return h.authService.UserByAPIKey(c.Request.Context(), apiKey)
	}
	return nil, services.ErrInvalidCredentials
}

func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.identify(c)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidCredentials) {
				h.respondError(c, err)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(ctxUserID, user.ID)
		c.Set(ctxUsername, user.Username)
		c.Next()
	}
}

func currentUser(c *gin.Context) (uint, string) {
	return c.GetUint(ctxUserID), c.GetString(ctxUsername)
}

func (h *Handler) RateLimitMiddleware(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
