package handlers

import (
	"net/http"

	"jcoder/internal/services"

	"github.com/gin-gonic/gin"
)

type UpdateProfileRequest struct {
	FullName    *string `json:"fullName" binding:"omitempty,max=120"`
	Headline    *string `json:"headline" binding:"omitempty,max=160"`
	Bio         *string `json:"bio" binding:"omitempty,max=5000"`
	Location    *string `json:"location" binding:"omitempty,max=120"`
	Website     *string `json:"website" binding:"omitempty,url,max=255"`
	GithubURL   *string `json:"githubUrl" binding:"omitempty,url,max=255"`
	LinkedInURL *string `json:"linkedinUrl" binding:"omitempty,url,max=255"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := currentUser(c)
	user, err := h.profileService.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileDTO{
		FullName:    req.FullName,
		Headline:    req.Headline,
		Bio:         req.Bio,
		Location:    req.Location,
		Website:     req.Website,
		GithubURL:   req.GithubURL,
		LinkedInURL: req.LinkedInURL,
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
