package models

import (
	"time"
)

// Protocol roles. Claiming needs no role, only ticket ownership.
const (
	RoleAdmin       = "admin"
	RoleMarketMaker = "market_maker"
	RoleOracle      = "oracle"
)

// User is a wallet that has logged in at least once.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;size:64;not null" json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
	LastLoginAt   time.Time `json:"last_login_at"`
}

func (User) TableName() string {
	return "users"
}

// RoleGrant gives a wallet address one protocol role. Grants are consulted
// at the top of every role-gated operation.
type RoleGrant struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"size:64;not null;uniqueIndex:idx_addr_role" json:"wallet_address"`
	Role          string    `gorm:"size:32;not null;uniqueIndex:idx_addr_role" json:"role"`
	GrantedBy     string    `gorm:"size:64" json:"granted_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (RoleGrant) TableName() string {
	return "role_grants"
}
