package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mamoski/relaydeck/internal/models"
)

// UserStore persists operator accounts.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetTOTPSecret(ctx context.Context, userID, secret string) error
}

// UserAccounts is the gorm-backed UserStore.
type UserAccounts struct {
	db *gorm.DB
}

func NewUserAccounts(db *gorm.DB) *UserAccounts {
	return &UserAccounts{db: db}
}

func (s *UserAccounts) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

func (s *UserAccounts) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserAccounts) SetTOTPSecret(ctx context.Context, userID, secret string) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("totp_secret", secret).Error
	if err != nil {
		return fmt.Errorf("failed to store TOTP secret: %w", err)
	}
	return nil
}
