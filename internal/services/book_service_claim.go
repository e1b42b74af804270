package services

import (
	"context"
	"fmt"
	"log"

	"oraclebook/internal/models"

	"gorm.io/gorm"
)

// ClaimPayout initiates payout for one ticket. The gateway builds a single
// encrypted payout amount, gated on the ticket's hidden outcome matching the
// winning outcome, and that amount is sent for decryption. The losing case
// decrypts to zero, so the bettor's prediction is never revealed by the
// claim path itself.
func (bs *BookService) ClaimPayout(ctx context.Context, caller string, ticketID uint64, proof string) (uint64, error) {
	exit, err := bs.enter()
	if err != nil {
		return 0, err
	}
	defer exit()

	ticket, err := bs.GetTicket(ctx, ticketID)
	if err != nil {
		return 0, err
	}

	if ticket.Bettor != caller {
		return 0, fmt.Errorf("ticket %d: %w", ticketID, ErrNotTicketOwner)
	}
	if ticket.Claimed {
		return 0, fmt.Errorf("ticket %d: %w", ticketID, ErrTicketAlreadyClaimed)
	}

	market, err := bs.GetMarket(ctx, ticket.MarketID)
	if err != nil {
		return 0, err
	}
	if !market.Settled {
		return 0, fmt.Errorf("market %d: %w", market.ID, ErrMarketNotSettled)
	}

	if err := bs.compute.VerifyBetInput(ctx, ticket.MarketID, caller, ticket.EncryptedOutcome, ticket.EncryptedStake, proof); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBetProof, err)
	}

	payoutHandle, err := bs.compute.GatePayout(ctx,
		ticket.EncryptedOutcome, market.WinningOutcome,
		ticket.EscrowedValue, market.PayoutRatio, PayoutScale)
	if err != nil {
		return 0, fmt.Errorf("failed to gate payout: %w", err)
	}

	var requestID uint64
	err = bs.repo.Transaction(ctx, func(tx *gorm.DB) error {
		requestID, err = bs.coordinator.RequestDecryption(ctx, tx,
			models.DecryptionKindPayoutAmount, ticketID,
			[]string{payoutHandle})
		return err
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[BookService] Claim initiated for ticket %d by %s (request %d)",
		ticketID, caller, requestID)
	return requestID, nil
}

// finalizeClaim releases the decrypted payout from the market's escrow.
// A payout above the remaining escrow balance is an invariant breach, not
// an expected path, and aborts the whole operation.
func (bs *BookService) finalizeClaim(ctx context.Context, req *models.DecryptionRequest, payoutClear uint64) error {
	ticket, err := bs.GetTicket(ctx, req.SubjectID)
	if err != nil {
		return err
	}
	if ticket.Claimed {
		return fmt.Errorf("ticket %d: %w", ticket.ID, ErrTicketAlreadyClaimed)
	}

	market, err := bs.GetMarket(ctx, ticket.MarketID)
	if err != nil {
		return err
	}

	if payoutClear > market.EscrowBalance {
		log.Printf("[BookService] ALERT: payout %d exceeds escrow %d on market %d",
			payoutClear, market.EscrowBalance, market.ID)
		return fmt.Errorf("ticket %d: %w", ticket.ID, ErrEscrowUnderflow)
	}

	err = bs.repo.Transaction(ctx, func(tx *gorm.DB) error {
		txRepo := bs.repo.WithTx(tx)

		if err := bs.coordinator.Resolve(ctx, tx, req); err != nil {
			return fmt.Errorf("failed to resolve request: %w", err)
		}

		if payoutClear > 0 {
			ref := fmt.Sprintf("ticket:%d", ticket.ID)
			if err := bs.vault.EscrowOut(ctx, tx, ticket.Bettor, payoutClear, ref); err != nil {
				return fmt.Errorf("escrow release failed: %w", err)
			}
			market.EscrowBalance -= payoutClear
			if err := txRepo.UpdateMarket(ctx, market); err != nil {
				return fmt.Errorf("failed to update market escrow: %w", err)
			}
		}

		ticket.Claimed = true
		if err := txRepo.UpdateTicket(ctx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}

		return txRepo.AppendEvent(ctx, models.EventPayoutClaimed, market.ID, models.PayoutClaimedEvent{
			TicketID:    ticket.ID,
			Bettor:      ticket.Bettor,
			PayoutClear: payoutClear,
		})
	})
	if err != nil {
		return err
	}

	log.Printf("[BookService] Ticket %d claimed by %s, payout %d (market %d escrow now %d)",
		ticket.ID, ticket.Bettor, payoutClear, market.ID, market.EscrowBalance)
	return nil
}
