package handlers

import (
	"log/slog"

	"jcoder/internal/config"
	"jcoder/internal/observability"
	"jcoder/internal/services"
)

type Handler struct {
	cfg               config.Config
	logger            *slog.Logger
	authService       *services.AuthService
	viewService       *services.ViewService
	engagementService *services.EngagementService
	profileService    *services.ProfileService
	qrService         *services.QRService
	metrics           *observability.Metrics
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	authService *services.AuthService,
	viewService *services.ViewService,
	engagementService *services.EngagementService,
	profileService *services.ProfileService,
	qrService *services.QRService,
	metrics *observability.Metrics,
) *Handler {
	return &Handler{
		cfg:               cfg,
		logger:            logger,
		authService:       authService,
		viewService:       viewService,
		engagementService: engagementService,
		profileService:    profileService,
		qrService:         qrService,
		metrics:           metrics,
	}
}
