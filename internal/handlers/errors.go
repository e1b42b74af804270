package handlers

import (
	"errors"
	"net/http"

	"oraclebook/internal/ledger"
	"oraclebook/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP statuses. Validation errors
// are surfaced verbatim; anything unmapped is an internal error and the
// detail stays in the logs.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMarketNotFound),
		errors.Is(err, services.ErrTicketNotFound),
		errors.Is(err, services.ErrUnknownRequest):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrNotAuthorized),
		errors.Is(err, services.ErrNotTicketOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrCallbackProofRejected):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrMarketAlreadyExists),
		errors.Is(err, services.ErrCommitmentAlreadyUsed),
		errors.Is(err, services.ErrRequestAlreadyResolved),
		errors.Is(err, services.ErrDecryptionInFlight),
		errors.Is(err, services.ErrSettlementInFlight),
		errors.Is(err, services.ErrMarketAlreadySettled),
		errors.Is(err, services.ErrTicketAlreadyClaimed),
		errors.Is(err, ledger.ErrDepositAlreadyUsed),
		errors.Is(err, services.ErrReentrantCall):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrInvalidOutcomeCount),
		errors.Is(err, services.ErrInvalidSchedule),
		errors.Is(err, services.ErrWinningOutcomeOutOfBounds),
		errors.Is(err, services.ErrNoEscrow),
		errors.Is(err, services.ErrInvalidBetProof),
		errors.Is(err, services.ErrCommitmentMismatch),
		errors.Is(err, ledger.ErrDepositMismatch),
		errors.Is(err, services.ErrMarketNotSettled):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Invariant breach, not a caller mistake; the detail stays in the logs
	case errors.Is(err, services.ErrEscrowUnderflow):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
