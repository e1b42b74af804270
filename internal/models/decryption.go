package models

import (
	"time"
)

// Decryption request kinds. The kind determines the cleartext shape the
// callback must carry and which finalizer consumes it.
const (
	DecryptionKindSettlementRatio = "settlement_ratio"
	DecryptionKindPayoutAmount    = "payout_amount"
)

// DecryptionRequest correlates an asynchronous gateway decryption with the
// operation that spawned it. SubjectID is the market id for settlement
// requests and the ticket id for payout requests. A request is applied at
// most once; replays of a resolved request are rejected.
type DecryptionRequest struct {
	RequestID  uint64     `gorm:"primaryKey;autoIncrement:false" json:"request_id"`
	Kind       string     `gorm:"size:32;not null;index:idx_subject_kind" json:"kind"`
	SubjectID  uint64     `gorm:"not null;index:idx_subject_kind" json:"subject_id"`
	Resolved   bool       `gorm:"default:false" json:"resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// TableName specifies the table name for DecryptionRequest model
func (DecryptionRequest) TableName() string {
	return "decryption_requests"
}
