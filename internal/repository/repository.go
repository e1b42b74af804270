package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"oraclebook/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a Repository bound to the given transaction handle so a
// whole mutation commits or rolls back as one unit.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Transaction runs fn inside a database transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// CreateMarket stores a new market
func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

// GetMarketByID retrieves a market by its external identifier
func (r *Repository) GetMarketByID(ctx context.Context, marketID uint64) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("id = ?", marketID).First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// MarketExists reports whether a market id is already taken
func (r *Repository) MarketExists(ctx context.Context, marketID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Market{}).Where("id = ?", marketID).Count(&count).Error
	return count > 0, err
}

// ListMarketIDs returns all known market identifiers
func (r *Repository) ListMarketIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&models.Market{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// ListMarkets returns all markets
func (r *Repository) ListMarkets(ctx context.Context) ([]models.Market, error) {
	var markets []models.Market
	err := r.db.WithContext(ctx).Order("id ASC").Find(&markets).Error
	return markets, err
}

// UpdateMarket persists market mutations
func (r *Repository) UpdateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Save(market).Error
}

// CreateTicket stores a new ticket; the ticket id is assigned by the database
func (r *Repository) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

// GetTicketByID retrieves a ticket by ID
func (r *Repository) GetTicketByID(ctx context.Context, ticketID uint64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", ticketID).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetTicketsByMarket retrieves every ticket placed against a market
func (r *Repository) GetTicketsByMarket(ctx context.Context, marketID uint64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("id ASC").
		Find(&tickets).Error
	return tickets, err
}

// GetTicketsByMarketAndBettor retrieves a bettor's tickets on one market
func (r *Repository) GetTicketsByMarketAndBettor(ctx context.Context, marketID uint64, bettor string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("market_id = ? AND bettor = ?", marketID, bettor).
		Order("id ASC").
		Find(&tickets).Error
	return tickets, err
}

// CommitmentUsed reports whether a bet commitment has been seen before
func (r *Repository) CommitmentUsed(ctx context.Context, commitment string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("commitment = ?", commitment).
		Count(&count).Error
	return count > 0, err
}

// UpdateTicket persists ticket mutations
func (r *Repository) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

// CreateDecryptionRequest stores a pending decryption request
func (r *Repository) CreateDecryptionRequest(ctx context.Context, req *models.DecryptionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetDecryptionRequest retrieves a decryption request by its gateway id
func (r *Repository) GetDecryptionRequest(ctx context.Context, requestID uint64) (*models.DecryptionRequest, error) {
	var req models.DecryptionRequest
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// HasUnresolvedRequest reports whether an unresolved request exists for the
// given subject and kind
func (r *Repository) HasUnresolvedRequest(ctx context.Context, kind string, subjectID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.DecryptionRequest{}).
		Where("kind = ? AND subject_id = ? AND resolved = ?", kind, subjectID, false).
		Count(&count).Error
	return count > 0, err
}

// ResolveDecryptionRequest flags a request as applied
func (r *Repository) ResolveDecryptionRequest(ctx context.Context, req *models.DecryptionRequest) error {
	now := time.Now()
	req.Resolved = true
	req.ResolvedAt = &now
	return r.db.WithContext(ctx).Save(req).Error
}

// ListUnresolvedRequestsOlderThan returns pending requests issued before the cutoff
func (r *Repository) ListUnresolvedRequestsOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.DecryptionRequest, error) {
	var reqs []models.DecryptionRequest
	err := r.db.WithContext(ctx).
		Where("resolved = ? AND created_at < ?", false, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

// AppendEvent writes one protocol event to the append-only log
func (r *Repository) AppendEvent(ctx context.Context, eventType string, marketID uint64, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	event := &models.ProtocolEvent{
		Type:     eventType,
		MarketID: marketID,
		Payload:  string(body),
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListEvents returns events in emission order, optionally filtered by market
func (r *Repository) ListEvents(ctx context.Context, marketID uint64, limit int) ([]models.ProtocolEvent, error) {
	var events []models.ProtocolEvent
	query := r.db.WithContext(ctx).Order("seq ASC").Limit(limit)
	if marketID != 0 {
		query = query.Where("market_id = ?", marketID)
	}
	err := query.Find(&events).Error
	return events, err
}
