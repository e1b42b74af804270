package models

import (
	"time"
)

// Market represents a single bettable event with a fixed set of outcomes.
// Escrow and settlement fields are maintained exclusively by the book service;
// a market is never deleted and remains as an audit record after settlement.
type Market struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	OutcomeCount      uint32    `gorm:"not null" json:"outcome_count"`
	StartTime         int64     `gorm:"not null" json:"start_time"`
	LockTime          int64     `gorm:"not null" json:"lock_time"`
	Settled           bool      `gorm:"default:false;index" json:"settled"`
	WinningOutcome    uint32    `gorm:"default:0" json:"winning_outcome"`
	EscrowBalance     uint64    `gorm:"default:0" json:"escrow_balance"`
	PayoutRatio       uint64    `gorm:"default:0" json:"payout_ratio"`
	DecryptionPending bool      `gorm:"default:false" json:"decryption_pending"`
	CreatedBy         string    `gorm:"size:64" json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for Market model
func (Market) TableName() string {
	return "markets"
}
