package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"jcoder/internal/services"
	"jcoder/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type TrackViewRequest struct {
	Fingerprint *string `json:"fingerprint"`
	Referer     *string `json:"referer"`
	IsOwner     bool    `json:"isOwner"`
}

// trackViewSignals holds the trimmed request values. Limits are checked
// here so surrounding whitespace does not count against them.
type trackViewSignals struct {
	Fingerprint *string `json:"fingerprint" binding:"omitempty,max=64"`
	Referer     *string `json:"referer"`
}

// GetPortfolio returns the public profile. isOwner tells the page
// whether the signed-in caller is looking at their own portfolio.
func (h *Handler) GetPortfolio(c *gin.Context) {
	username := c.Param("username")

	profile, err := h.profileService.GetPublicProfile(c.Request.Context(), username)
	if err != nil {
		h.respondError(c, err)
		return
	}

	isOwner := false
	if viewer, err := h.identify(c); err == nil {
		isOwner = viewer.Username == profile.Username
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile, "isOwner": isOwner})
}

func (h *Handler) TrackView(c *gin.Context) {
	var req TrackViewRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondBindError(c, err)
			return
		}
	}

	signals := trackViewSignals{
		Fingerprint: utils.TrimToNil(req.Fingerprint),
		Referer:     utils.TrimToNil(req.Referer),
	}
	if signals.Referer == nil {
		header := c.GetHeader("Referer")
		signals.Referer = utils.TrimToNil(&header)
	}
	if err := binding.Validator.ValidateStruct(&signals); err != nil {
		respondBindError(c, err)
		return
	}
	userAgent := c.Request.UserAgent()

	err := h.viewService.RegisterView(c.Request.Context(), services.TrackViewInput{
		Username:    c.Param("username"),
		IPAddress:   utils.ResolveClientIP(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr),
		Fingerprint: signals.Fingerprint,
		UserAgent:   utils.TrimToNil(&userAgent),
		Referer:     signals.Referer,
		IsOwner:     req.IsOwner,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) PortfolioQR(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.profileService.GetPublicProfile(c.Request.Context(), username); err != nil {
		h.respondError(c, err)
		return
	}

	size := services.DefaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be an integer"})
			return
		}
		size = n
	}

	opts := services.QROptions{
		Content: services.PortfolioURL(h.cfg.PublicBaseURL, username),
		Size:    size,
		FgColor: c.Query("fg"),
		BgColor: c.Query("bg"),
	}

	switch strings.ToLower(c.DefaultQuery("format", "png")) {
	case "png":
		png, err := h.qrService.PNG(opts)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	case "svg":
		svg, err := h.qrService.SVG(opts)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be png or svg"})
	}
}
