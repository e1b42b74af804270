package models

import (
	"time"
)

// Ticket is one accepted bet. The outcome and stake handles are opaque
// ciphertext references and are never decrypted outside the gateway
// round-trip. EscrowedValue is the plaintext amount actually moved into
// escrow; the protocol does not enforce that it equals the confidential
// stake behind EncryptedStake.
type Ticket struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	MarketID         uint64    `gorm:"not null;index" json:"market_id"`
	Bettor           string    `gorm:"size:64;not null;index" json:"bettor"`
	EncryptedOutcome string    `gorm:"size:130;not null" json:"encrypted_outcome"`
	EncryptedStake   string    `gorm:"size:130;not null" json:"encrypted_stake"`
	Commitment       string    `gorm:"size:66;uniqueIndex;not null" json:"commitment"`
	EscrowedValue    uint64    `gorm:"not null" json:"escrowed_value"`
	Claimed          bool      `gorm:"default:false" json:"claimed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for Ticket model
func (Ticket) TableName() string {
	return "tickets"
}
