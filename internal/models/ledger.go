package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Escrow ledger entry types
const (
	EscrowEntryTypeDeposit = "DEPOSIT"
	EscrowEntryTypePayout  = "PAYOUT"
)

// EscrowAccount holds the plaintext balance the ledger carries for one
// address. The vault account (address "vault") holds everything currently
// escrowed across all markets.
type EscrowAccount struct {
	Address   string          `gorm:"primaryKey;size:64" json:"address"`
	Balance   decimal.Decimal `gorm:"type:decimal(30,0);default:0" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (EscrowAccount) TableName() string {
	return "escrow_accounts"
}

// EscrowEntry is one append-only movement of value in or out of the vault.
// Reference ties the entry back to the market or ticket that caused it.
type EscrowEntry struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	EntryType string          `gorm:"size:20;not null;index" json:"entry_type"`
	Address   string          `gorm:"size:64;not null;index" json:"address"`
	Amount    decimal.Decimal `gorm:"type:decimal(30,0);not null" json:"amount"`
	Reference string          `gorm:"size:64" json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}

func (EscrowEntry) TableName() string {
	return "escrow_entries"
}
