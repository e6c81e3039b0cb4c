package services

import (
	"context"
	"errors"
	"fmt"

	"jcoder/internal/models"
	"jcoder/internal/repository"

	"gorm.io/gorm"
)

// UpdateProfileDTO carries the profile fields to change; nil fields are
// left alone.
type UpdateProfileDTO struct {
	FullName    *string
	Headline    *string
	Bio         *string
	Location    *string
	Website     *string
	GithubURL   *string
	LinkedInURL *string
	IPAddress   string // For Audit Log
}

type ProfileService struct {
	db           *gorm.DB
	users        *repository.UserRepository
	auditService *AuditService
}

func NewProfileService(db *gorm.DB, users *repository.UserRepository, auditService *AuditService) *ProfileService {
	return &ProfileService{
		db:           db,
		users:        users,
		auditService: auditService,
	}
}

func (s *ProfileService) GetPublicProfile(ctx context.Context, username string) (*models.PublicProfile, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	profile := user.Public()
	return &profile, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, dto UpdateProfileDTO) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	set("full_name", dto.FullName)
	set("headline", dto.Headline)
	set("bio", dto.Bio)
	set("location", dto.Location)
	set("website", dto.Website)
	set("github_url", dto.GithubURL)
	set("linkedin_url", dto.LinkedInURL)

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		s.users.Invalidate(ctx, user.Username)

		fields := make([]string, 0, len(updates))
		for k := range updates {
			fields = append(fields, k)
		}
		s.auditService.LogAction(&user.ID, ActionUpdateProfile, user.Username, map[string]interface{}{
			"fields": fields,
		}, dto.IPAddress)
	}

	return s.users.FindByID(ctx, userID)
}
