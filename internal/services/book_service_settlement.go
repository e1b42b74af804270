package services

import (
	"context"
	"fmt"
	"log"
	"math"

	"oraclebook/internal/gateway"
	"oraclebook/internal/models"

	"gorm.io/gorm"
)

// SettleMarket initiates settlement: the outcome reporter fixes the winning
// outcome, the gateway homomorphically aggregates the stake placed on it
// against the total stake, and both aggregates are sent for decryption.
// Settlement is deliberately not gated on lockTime; the lock is advisory
// metadata for the scheduling layer.
func (bs *BookService) SettleMarket(ctx context.Context, caller string, marketID uint64, winningOutcome uint32) (uint64, error) {
	exit, err := bs.enter()
	if err != nil {
		return 0, err
	}
	defer exit()

	allowed, err := bs.authorizer.CanReportOutcome(ctx, caller)
	if err != nil {
		return 0, fmt.Errorf("failed to check oracle role: %w", err)
	}
	if !allowed {
		return 0, fmt.Errorf("settle market: %w", ErrNotAuthorized)
	}

	market, err := bs.GetMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}

	if winningOutcome >= market.OutcomeCount {
		return 0, fmt.Errorf("outcome %d of %d: %w", winningOutcome, market.OutcomeCount, ErrWinningOutcomeOutOfBounds)
	}
	if market.Settled {
		return 0, fmt.Errorf("market %d: %w", marketID, ErrMarketAlreadySettled)
	}
	if market.DecryptionPending {
		return 0, fmt.Errorf("market %d: %w", marketID, ErrSettlementInFlight)
	}

	tickets, err := bs.repo.GetTicketsByMarket(ctx, marketID)
	if err != nil {
		return 0, fmt.Errorf("failed to load tickets: %w", err)
	}

	outcomeHandles := make([]string, 0, len(tickets))
	stakeHandles := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		outcomeHandles = append(outcomeHandles, ticket.EncryptedOutcome)
		stakeHandles = append(stakeHandles, ticket.EncryptedStake)
	}

	winningHandle, totalHandle, err := bs.compute.AggregateStakes(ctx, outcomeHandles, stakeHandles, winningOutcome)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate stakes: %w", err)
	}

	var requestID uint64
	err = bs.repo.Transaction(ctx, func(tx *gorm.DB) error {
		requestID, err = bs.coordinator.RequestDecryption(ctx, tx,
			models.DecryptionKindSettlementRatio, marketID,
			[]string{winningHandle, totalHandle})
		if err != nil {
			return err
		}

		market.WinningOutcome = winningOutcome
		market.DecryptionPending = true
		return bs.repo.WithTx(tx).UpdateMarket(ctx, market)
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[BookService] Settlement initiated for market %d (outcome %d, request %d)",
		marketID, winningOutcome, requestID)
	return requestID, nil
}

// ApplyDecryptionCallback accepts a verified decryption result from the
// gateway and finalizes the operation the request was issued for. A
// callback for a resolved request is a hard error so duplicate delivery is
// always visible to the caller.
func (bs *BookService) ApplyDecryptionCallback(ctx context.Context, requestID uint64, cleartexts, proof []byte) error {
	exit, err := bs.enter()
	if err != nil {
		return err
	}
	defer exit()

	req, err := bs.coordinator.Take(ctx, requestID)
	if err != nil {
		return err
	}

	if err := bs.coordinator.VerifyProof(requestID, cleartexts, proof); err != nil {
		log.Printf("[BookService] ALERT: rejected callback for request %d: %v", requestID, err)
		return err
	}

	switch req.Kind {
	case models.DecryptionKindSettlementRatio:
		values, err := gateway.DecodeCleartextWords(cleartexts, 2)
		if err != nil {
			return fmt.Errorf("settlement cleartexts: %w", err)
		}
		return bs.finalizeSettlement(ctx, req, values[0], values[1])

	case models.DecryptionKindPayoutAmount:
		values, err := gateway.DecodeCleartextWords(cleartexts, 1)
		if err != nil {
			return fmt.Errorf("payout cleartexts: %w", err)
		}
		return bs.finalizeClaim(ctx, req, values[0])

	default:
		return fmt.Errorf("request %d has unknown kind %q", requestID, req.Kind)
	}
}

// finalizeSettlement stores the payout ratio and marks the market settled.
// Integer division rounds down; an empty pool settles with ratio zero.
func (bs *BookService) finalizeSettlement(ctx context.Context, req *models.DecryptionRequest, winningStakeClear, totalStakeClear uint64) error {
	market, err := bs.GetMarket(ctx, req.SubjectID)
	if err != nil {
		return err
	}

	var ratio uint64
	if totalStakeClear > 0 {
		if winningStakeClear > math.MaxUint64/PayoutScale {
			return fmt.Errorf("winning stake %d overflows ratio computation", winningStakeClear)
		}
		ratio = winningStakeClear * PayoutScale / totalStakeClear
	}

	err = bs.repo.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := bs.repo.WithTx(tx)

		if err := bs.coordinator.Resolve(ctx, tx, req); err != nil {
			return fmt.Errorf("failed to resolve request: %w", err)
		}

		market.PayoutRatio = ratio
		market.Settled = true
		market.DecryptionPending = false
		if err := txRepo.UpdateMarket(ctx, market); err != nil {
			return fmt.Errorf("failed to update market: %w", err)
		}

		return txRepo.AppendEvent(ctx, models.EventMarketSettled, market.ID, models.MarketSettledEvent{
			MarketID:       market.ID,
			WinningOutcome: market.WinningOutcome,
			PayoutRatio:    ratio,
		})
	})
	if err != nil {
		return err
	}

	log.Printf("[BookService] Market %d settled (outcome %d, ratio %d/%d)",
		market.ID, market.WinningOutcome, ratio, PayoutScale)
	return nil
}
