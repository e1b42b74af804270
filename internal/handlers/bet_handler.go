package handlers

import (
	"net/http"
	"strconv"

	"oraclebook/internal/auth"
	"oraclebook/internal/services"

	"github.com/gin-gonic/gin"
)

type BetHandler struct {
	book *services.BookService
}

func NewBetHandler(book *services.BookService) *BetHandler {
	return &BetHandler{book: book}
}

// PlaceBet admits an encrypted bet. The outcome and stake handles come from
// the wallet-side encrypted input builder; the escrowed value is the
// plaintext amount moved into escrow alongside the ticket.
// POST /markets/:id/bets
func (h *BetHandler) PlaceBet(c *gin.Context) {
	caller, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	marketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	var req struct {
		EncryptedOutcome string `json:"encrypted_outcome" binding:"required"`
		EncryptedStake   string `json:"encrypted_stake" binding:"required"`
		InputProof       string `json:"input_proof" binding:"required"`
		Commitment       string `json:"commitment"`
		EscrowedValue    uint64 `json:"escrowed_value"`
		DepositSignature string `json:"deposit_signature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.book.PlaceBet(
		c.Request.Context(),
		caller,
		marketID,
		req.EncryptedOutcome,
		req.EncryptedStake,
		req.InputProof,
		req.Commitment,
		req.EscrowedValue,
		req.DepositSignature,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    ticket,
	})
}

// GetTicket returns one ticket
// GET /tickets/:id
func (h *BetHandler) GetTicket(c *gin.Context) {
	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}

	ticket, err := h.book.GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ticket,
	})
}

// ClaimPayout starts the payout decryption round-trip for a ticket
// POST /tickets/:id/claim
func (h *BetHandler) ClaimPayout(c *gin.Context) {
	caller, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}

	var req struct {
		InputProof string `json:"input_proof" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID, err := h.book.ClaimPayout(c.Request.Context(), caller, ticketID, req.InputProof)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"request_id": requestID,
	})
}
