package services

import (
	"context"
	"errors"
	"fmt"

	"jcoder/internal/models"
	"jcoder/internal/repository"
	"jcoder/pkg/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	IPAddress string // For Audit Log
}

type AuthService struct {
	db           *gorm.DB
	users        *repository.UserRepository
	auditService *AuditService
}

func NewAuthService(db *gorm.DB, users *repository.UserRepository, auditService *AuditService) *AuthService {
	return &AuthService{
		db:           db,
		users:        users,
		auditService: auditService,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", in.Username, in.Email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		APIKey:       utils.GenerateAPIKey(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditService.LogAction(&user.ID, ActionRegister, user.Username, nil, in.IPAddress)
	return &user, nil
}

// Authenticate checks a username-or-email and password pair. The user
// cache is bypassed because cached copies carry no password hash.
func (s *AuthService) Authenticate(ctx context.Context, login, password, ip string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.auditService.LogAction(nil, ActionLoginFailed, login, nil, ip)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		s.auditService.LogAction(&user.ID, ActionLoginFailed, user.Username, nil, ip)
		return nil, ErrInvalidCredentials
	}

	s.auditService.LogAction(&user.ID, ActionLogin, user.Username, nil, ip)
	return &user, nil
}

func (s *AuthService) UserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) RotateAPIKey(ctx context.Context, userID uint, ip string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	newKey := utils.GenerateAPIKey()
	if err := s.db.WithContext(ctx).Model(user).Update("api_key", newKey).Error; err != nil {
		return "", fmt.Errorf("failed to update API key: %w", err)
	}
	s.users.Invalidate(ctx, user.Username)

	s.auditService.LogAction(&user.ID, ActionRotateAPIKey, user.Username, nil, ip)
	return newKey, nil
}

func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
