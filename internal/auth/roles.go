package auth

import (
	"context"
	"fmt"

	"oraclebook/internal/models"

	"gorm.io/gorm"
)

// Authorizer answers the capability checks consumed at the top of every
// role-gated book operation. Ticket claims carry no role requirement, only
// ownership, so they never hit this interface.
type Authorizer interface {
	CanCreateMarket(ctx context.Context, walletAddress string) (bool, error)
	CanReportOutcome(ctx context.Context, walletAddress string) (bool, error)
}

// RoleService implements Authorizer over the role_grants table and exposes
// the admin grant/revoke flows.
type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

// CanCreateMarket reports whether the wallet holds the market_maker role
func (s *RoleService) CanCreateMarket(ctx context.Context, walletAddress string) (bool, error) {
	return s.hasRole(ctx, walletAddress, models.RoleMarketMaker)
}

// CanReportOutcome reports whether the wallet holds the oracle role
func (s *RoleService) CanReportOutcome(ctx context.Context, walletAddress string) (bool, error) {
	return s.hasRole(ctx, walletAddress, models.RoleOracle)
}

// IsAdmin reports whether the wallet holds the admin role
func (s *RoleService) IsAdmin(ctx context.Context, walletAddress string) (bool, error) {
	return s.hasRole(ctx, walletAddress, models.RoleAdmin)
}

// GrantRole gives a wallet a role; granting twice is a no-op
func (s *RoleService) GrantRole(ctx context.Context, walletAddress, role, grantedBy string) error {
	switch role {
	case models.RoleAdmin, models.RoleMarketMaker, models.RoleOracle:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	has, err := s.hasRole(ctx, walletAddress, role)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	grant := &models.RoleGrant{
		WalletAddress: walletAddress,
		Role:          role,
		GrantedBy:     grantedBy,
	}
	return s.db.WithContext(ctx).Create(grant).Error
}

// RevokeRole removes a role from a wallet
func (s *RoleService) RevokeRole(ctx context.Context, walletAddress, role string) error {
	return s.db.WithContext(ctx).
		Where("wallet_address = ? AND role = ?", walletAddress, role).
		Delete(&models.RoleGrant{}).Error
}

// ListRoles returns the roles granted to a wallet
func (s *RoleService) ListRoles(ctx context.Context, walletAddress string) ([]string, error) {
	var roles []string
	err := s.db.WithContext(ctx).Model(&models.RoleGrant{}).
		Where("wallet_address = ?", walletAddress).
		Pluck("role", &roles).Error
	return roles, err
}

func (s *RoleService) hasRole(ctx context.Context, walletAddress, role string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RoleGrant{}).
		Where("wallet_address = ? AND role = ?", walletAddress, role).
		Count(&count).Error
	return count > 0, err
}
