package handlers

import (
	"net/http"
	"time"

	"jcoder/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func (h *Handler) SetupRouter(rateLimiter, trackViewLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.Default()

	if err := registerValidators(); err != nil {
		h.logger.Error("Failed to register request validators", "error", err)
	}

	// Middleware
	if h.metrics != nil {
		r.Use(h.metrics.Middleware())
	}
	if origins := h.cfg.AllowedOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-API-Key"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if rateLimiter != nil {
		r.Use(h.RateLimitMiddleware(rateLimiter))
	}

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("jcoder_session", store))

	// Routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	// Public Routes
	r.POST("/api/register", h.RegisterUser)
	r.POST("/api/login", h.LoginUser)
	r.POST("/logout", h.LogoutUser)

	portfolio := r.Group("/portfolio/:username")
	{
		portfolio.GET("", h.GetPortfolio)
		portfolio.GET("/qr", h.PortfolioQR)

		trackView := []gin.HandlerFunc{}
		if trackViewLimiter != nil {
			trackView = append(trackView, h.RateLimitMiddleware(trackViewLimiter))
		}
		portfolio.POST("/track-view", append(trackView, h.TrackView)...)

		portfolio.GET("/engagement", h.AuthRequired(), h.GetUserEngagement)
	}

	// Protected Routes
	authorized := r.Group("/api/v1")
	authorized.Use(h.AuthRequired())
	{
		authorized.GET("/portfolio/engagement", h.GetMyEngagement)
		authorized.GET("/portfolio/views", h.ListMyViews)
		authorized.PUT("/profile", h.UpdateProfile)
		authorized.POST("/auth/apikey", h.GenerateNewAPIKey)
	}

	return r
}
