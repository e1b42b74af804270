package handlers

import (
	"net/http"
	"strconv"

	"oraclebook/internal/auth"
	"oraclebook/internal/services"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	book *services.BookService
}

func NewMarketHandler(book *services.BookService) *MarketHandler {
	return &MarketHandler{book: book}
}

// CreateMarket registers a new market (market maker role required)
// POST /markets
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	caller, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		ID           uint64 `json:"id" binding:"required"`
		OutcomeCount uint32 `json:"outcome_count" binding:"required"`
		StartTime    int64  `json:"start_time" binding:"required"`
		LockTime     int64  `json:"lock_time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market, err := h.book.CreateMarket(c.Request.Context(), caller, req.ID, req.OutcomeCount, req.StartTime, req.LockTime)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    market,
	})
}

// GetMarkets returns all markets
// GET /markets
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	markets, err := h.book.ListMarkets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch markets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
		"count":   len(markets),
	})
}

// GetMarketByID returns a specific market
// GET /markets/:id
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	marketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	market, err := h.book.GetMarket(c.Request.Context(), marketID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    market,
	})
}

// GetMarketTickets returns tickets on a market, optionally for one bettor
// GET /markets/:id/tickets?bettor=
func (h *MarketHandler) GetMarketTickets(c *gin.Context) {
	marketID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	tickets, err := h.book.ListMarketTickets(c.Request.Context(), marketID, c.Query("bettor"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tickets,
		"count":   len(tickets),
	})
}

// GetEvents returns the protocol event log for external indexers
// GET /events?market_id=&limit=
func (h *MarketHandler) GetEvents(c *gin.Context) {
	marketID, _ := strconv.ParseUint(c.DefaultQuery("market_id", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.book.ListEvents(c.Request.Context(), marketID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
		"count":   len(events),
	})
}
