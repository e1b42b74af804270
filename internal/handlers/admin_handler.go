package handlers

import (
	"net/http"

	"oraclebook/internal/auth"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	roles *auth.RoleService
}

func NewAdminHandler(roles *auth.RoleService) *AdminHandler {
	return &AdminHandler{roles: roles}
}

// requireAdmin resolves the caller and checks the admin role
func (h *AdminHandler) requireAdmin(c *gin.Context) (string, bool) {
	caller, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}

	isAdmin, err := h.roles.IsAdmin(c.Request.Context(), caller)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check admin role"})
		return "", false
	}
	if !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return "", false
	}
	return caller, true
}

// GrantRole gives a wallet a protocol role (admin only)
// POST /admin/roles
func (h *AdminHandler) GrantRole(c *gin.Context) {
	caller, ok := h.requireAdmin(c)
	if !ok {
		return
	}

	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Role          string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.roles.GrantRole(c.Request.Context(), req.WalletAddress, req.Role, caller); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RevokeRole removes a protocol role from a wallet (admin only)
// DELETE /admin/roles
func (h *AdminHandler) RevokeRole(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Role          string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.roles.RevokeRole(c.Request.Context(), req.WalletAddress, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListRoles returns the roles held by a wallet (admin only)
// GET /admin/roles/:address
func (h *AdminHandler) ListRoles(c *gin.Context) {
	if _, ok := h.requireAdmin(c); !ok {
		return
	}

	roles, err := h.roles.ListRoles(c.Request.Context(), c.Param("address"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list roles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    roles,
	})
}
