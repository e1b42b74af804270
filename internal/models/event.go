package models

import (
	"time"
)

// Protocol event types, one per state transition. External indexers consume
// the payloads, so field order inside each payload struct is part of the
// contract.
const (
	EventMarketCreated = "MarketCreated"
	EventBetPlaced     = "BetPlaced"
	EventMarketSettled = "MarketSettled"
	EventPayoutClaimed = "PayoutClaimed"
)

// ProtocolEvent is one row of the append-only event log. Payload is the
// JSON-encoded event struct.
type ProtocolEvent struct {
	Seq       uint64    `gorm:"primaryKey" json:"seq"`
	Type      string    `gorm:"size:32;not null;index" json:"type"`
	MarketID  uint64    `gorm:"index" json:"market_id"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for ProtocolEvent model
func (ProtocolEvent) TableName() string {
	return "protocol_events"
}

// MarketCreatedEvent payload. Field order matters to indexers.
type MarketCreatedEvent struct {
	ID           uint64 `json:"id"`
	OutcomeCount uint32 `json:"outcome_count"`
	StartTime    int64  `json:"start_time"`
	LockTime     int64  `json:"lock_time"`
}

// BetPlacedEvent payload.
type BetPlacedEvent struct {
	MarketID      uint64 `json:"market_id"`
	TicketID      uint64 `json:"ticket_id"`
	Bettor        string `json:"bettor"`
	Commitment    string `json:"commitment"`
	EscrowedValue uint64 `json:"escrowed_value"`
}

// MarketSettledEvent payload.
type MarketSettledEvent struct {
	MarketID       uint64 `json:"market_id"`
	WinningOutcome uint32 `json:"winning_outcome"`
	PayoutRatio    uint64 `json:"payout_ratio"`
}

// PayoutClaimedEvent payload.
type PayoutClaimedEvent struct {
	TicketID    uint64 `json:"ticket_id"`
	Bettor      string `json:"bettor"`
	PayoutClear uint64 `json:"payout_clear"`
}
