package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"oraclebook/internal/auth"
	"oraclebook/internal/gateway"
	"oraclebook/internal/ledger"
	"oraclebook/internal/models"
	"oraclebook/internal/repository"

	"gorm.io/gorm"
)

// PayoutScale is the fixed-point precision base for payout ratios. A ratio
// of PayoutScale means winners are paid their full escrowed value.
const PayoutScale = 1_000_000

// BookService is the settlement engine: it owns the market and ticket
// registries, drives the decrypt-request/callback exchange through the
// coordinator, and moves escrowed value through the vault. All access to
// protocol state is mediated by its methods.
type BookService struct {
	repo        *repository.Repository
	vault       ledger.Vault
	compute     gateway.ConfidentialCompute
	coordinator *DecryptionCoordinator
	authorizer  auth.Authorizer

	// entryGuard rejects reentrant calls into state-mutating entry points.
	// Calls are externally serialized, so a held guard always means a
	// nested re-entry rather than a concurrent caller.
	entryGuard sync.Mutex
}

func NewBookService(
	repo *repository.Repository,
	vault ledger.Vault,
	compute gateway.ConfidentialCompute,
	coordinator *DecryptionCoordinator,
	authorizer auth.Authorizer,
) *BookService {
	return &BookService{
		repo:        repo,
		vault:       vault,
		compute:     compute,
		coordinator: coordinator,
		authorizer:  authorizer,
	}
}

func (bs *BookService) enter() (func(), error) {
	if !bs.entryGuard.TryLock() {
		return nil, ErrReentrantCall
	}
	return bs.entryGuard.Unlock, nil
}

// CreateMarket registers a new market. Only wallets holding the market
// maker role may create markets.
func (bs *BookService) CreateMarket(ctx context.Context, caller string, marketID uint64, outcomeCount uint32, startTime, lockTime int64) (*models.Market, error) {
	exit, err := bs.enter()
	if err != nil {
		return nil, err
	}
	defer exit()

	allowed, err := bs.authorizer.CanCreateMarket(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to check market maker role: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("create market: %w", ErrNotAuthorized)
	}

	if outcomeCount < 2 {
		return nil, ErrInvalidOutcomeCount
	}
	if lockTime <= startTime {
		return nil, ErrInvalidSchedule
	}

	exists, err := bs.repo.MarketExists(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to check market id: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("market %d: %w", marketID, ErrMarketAlreadyExists)
	}

	market := &models.Market{
		ID:           marketID,
		OutcomeCount: outcomeCount,
		StartTime:    startTime,
		LockTime:     lockTime,
		CreatedBy:    caller,
	}

	err = bs.repo.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := bs.repo.WithTx(tx)
		if err := txRepo.CreateMarket(ctx, market); err != nil {
			return fmt.Errorf("failed to store market: %w", err)
		}
		return txRepo.AppendEvent(ctx, models.EventMarketCreated, marketID, models.MarketCreatedEvent{
			ID:           marketID,
			OutcomeCount: outcomeCount,
			StartTime:    startTime,
			LockTime:     lockTime,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[BookService] Market %d created by %s (%d outcomes, locks at %d)",
		marketID, caller, outcomeCount, lockTime)
	return market, nil
}

// GetMarket returns the full market record
func (bs *BookService) GetMarket(ctx context.Context, marketID uint64) (*models.Market, error) {
	market, err := bs.repo.GetMarketByID(ctx, marketID)
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("market %d: %w", marketID, ErrMarketNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load market %d: %w", marketID, err)
	}
	return market, nil
}

// ListMarketIDs returns all known market identifiers
func (bs *BookService) ListMarketIDs(ctx context.Context) ([]uint64, error) {
	return bs.repo.ListMarketIDs(ctx)
}

// ListMarkets returns all market records
func (bs *BookService) ListMarkets(ctx context.Context) ([]models.Market, error) {
	return bs.repo.ListMarkets(ctx)
}

// GetTicket returns one ticket record
func (bs *BookService) GetTicket(ctx context.Context, ticketID uint64) (*models.Ticket, error) {
	ticket, err := bs.repo.GetTicketByID(ctx, ticketID)
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("ticket %d: %w", ticketID, ErrTicketNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket %d: %w", ticketID, err)
	}
	return ticket, nil
}

// ListMarketTickets returns tickets on a market, optionally for one bettor
func (bs *BookService) ListMarketTickets(ctx context.Context, marketID uint64, bettor string) ([]models.Ticket, error) {
	if _, err := bs.GetMarket(ctx, marketID); err != nil {
		return nil, err
	}
	if bettor != "" {
		return bs.repo.GetTicketsByMarketAndBettor(ctx, marketID, bettor)
	}
	return bs.repo.GetTicketsByMarket(ctx, marketID)
}

// ListEvents returns protocol events in emission order
func (bs *BookService) ListEvents(ctx context.Context, marketID uint64, limit int) ([]models.ProtocolEvent, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	return bs.repo.ListEvents(ctx, marketID, limit)
}

// PlaceBet admits an encrypted bet against an escrow of real value. The
// commitment de-duplication index keys on the fingerprint derived from the
// encrypted payload and the bettor, so resubmitting an identical payload is
// rejected. The escrow transfer commits atomically with the ticket.
func (bs *BookService) PlaceBet(
	ctx context.Context,
	bettor string,
	marketID uint64,
	outcomeHandle, stakeHandle, proof, commitment string,
	escrowedValue uint64,
	depositRef string,
) (*models.Ticket, error) {
	exit, err := bs.enter()
	if err != nil {
		return nil, err
	}
	defer exit()

	market, err := bs.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if escrowedValue == 0 {
		return nil, ErrNoEscrow
	}

	derived, err := gateway.DeriveCommitment(outcomeHandle, stakeHandle, bettor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBetProof, err)
	}
	if commitment != "" && commitment != derived {
		return nil, ErrCommitmentMismatch
	}

	used, err := bs.repo.CommitmentUsed(ctx, derived)
	if err != nil {
		return nil, fmt.Errorf("failed to check commitment: %w", err)
	}
	if used {
		return nil, fmt.Errorf("commitment %s: %w", derived, ErrCommitmentAlreadyUsed)
	}

	if err := bs.compute.VerifyBetInput(ctx, marketID, bettor, outcomeHandle, stakeHandle, proof); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBetProof, err)
	}

	if depositRef == "" {
		depositRef = derived
	}

	ticket := &models.Ticket{
		MarketID:         marketID,
		Bettor:           bettor,
		EncryptedOutcome: outcomeHandle,
		EncryptedStake:   stakeHandle,
		Commitment:       derived,
		EscrowedValue:    escrowedValue,
	}

	err = bs.repo.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := bs.repo.WithTx(tx)

		if err := bs.vault.EscrowIn(ctx, tx, bettor, escrowedValue, depositRef); err != nil {
			return fmt.Errorf("escrow transfer failed: %w", err)
		}

		if err := txRepo.CreateTicket(ctx, ticket); err != nil {
			return fmt.Errorf("failed to store ticket: %w", err)
		}

		market.EscrowBalance += escrowedValue
		if err := txRepo.UpdateMarket(ctx, market); err != nil {
			return fmt.Errorf("failed to update market escrow: %w", err)
		}

		return txRepo.AppendEvent(ctx, models.EventBetPlaced, marketID, models.BetPlacedEvent{
			MarketID:      marketID,
			TicketID:      ticket.ID,
			Bettor:        bettor,
			Commitment:    derived,
			EscrowedValue: escrowedValue,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[BookService] Ticket %d placed on market %d by %s (escrowed %d)",
		ticket.ID, marketID, bettor, escrowedValue)
	return ticket, nil
}
