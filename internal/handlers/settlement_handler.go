package handlers

import (
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"oraclebook/internal/auth"
	"oraclebook/internal/services"

	"github.com/gin-gonic/gin"
)

type SettlementHandler struct {
	book *services.BookService
}

func NewSettlementHandler(book *services.BookService) *SettlementHandler {
	return &SettlementHandler{book: book}
}

// SettleMarket fixes the winning outcome and starts the settlement
// decryption round-trip (oracle role required)
// POST /markets/:id/settle
func (h *SettlementHandler) SettleMarket(c *gin.Context) {
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
		WinningOutcome *uint32 `json:"winning_outcome" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID, err := h.book.SettleMarket(c.Request.Context(), caller, marketID, *req.WinningOutcome)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"request_id": requestID,
	})
}

// DecryptionCallback receives the gateway's decryption result. The payload
// carries the request id, the hex cleartext blob, and the hex threshold
// proof. The proof is verified before any cleartext is trusted.
// POST /gateway/decryption-callback
func (h *SettlementHandler) DecryptionCallback(c *gin.Context) {
	var req struct {
		RequestID  uint64 `json:"request_id" binding:"required"`
		Cleartexts string `json:"cleartexts" binding:"required"`
		Proof      string `json:"proof" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cleartexts, err := hex.DecodeString(strings.TrimPrefix(req.Cleartexts, "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cleartexts encoding"})
		return
	}
	proof, err := hex.DecodeString(strings.TrimPrefix(req.Proof, "0x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proof encoding"})
		return
	}

	if err := h.book.ApplyDecryptionCallback(c.Request.Context(), req.RequestID, cleartexts, proof); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
