package services

import (
	"fmt"
	"time"

	"oraclebook/internal/models"

	"gorm.io/gorm"
)

// AuthService handles wallet login bookkeeping
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// ProcessWalletLogin finds or creates the user for a wallet address
func (s *AuthService) ProcessWalletLogin(walletAddress string) (*models.User, error) {
	var user models.User
	err := s.db.Where("wallet_address = ?", walletAddress).First(&user).Error

	if err == gorm.ErrRecordNotFound {
		user = models.User{
			WalletAddress: walletAddress,
			LastLoginAt:   time.Now(),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user.LastLoginAt = time.Now()
	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}
