package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"oraclebook/internal/auth"
	"oraclebook/internal/config"
	"oraclebook/internal/database"
	"oraclebook/internal/gateway"
	"oraclebook/internal/handlers"
	"oraclebook/internal/jobs"
	"oraclebook/internal/ledger"
	"oraclebook/internal/repository"
	"oraclebook/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()
	repo := repository.NewRepository(db)

	// Escrow vault: internal account ledger or the on-chain escrow program
	var vault ledger.Vault
	switch cfg.Ledger.Mode {
	case "solana":
		vault = ledger.NewChainVault(
			cfg.Ledger.Network,
			cfg.Ledger.EscrowProgramID,
			cfg.Ledger.VaultWalletPrivateKey,
		)
	default:
		vault = ledger.NewAccountVault(db)
	}

	// Confidential-compute gateway client and callback proof verifier
	compute := gateway.NewClient(cfg.Gateway.BaseURL)
	verifier, err := gateway.NewProofVerifier(cfg.Gateway.SignerPubKeys, cfg.Gateway.SignerThreshold)
	if err != nil {
		log.Fatalf("Failed to initialize proof verifier: %v", err)
	}

	// Roles and capability checks
	roleService := auth.NewRoleService(db)
	if cfg.App.AdminWallet != "" {
		if err := roleService.GrantRole(context.Background(), cfg.App.AdminWallet, "admin", "bootstrap"); err != nil {
			log.Printf("Warning: failed to bootstrap admin role: %v", err)
		}
	}

	// Settlement engine
	coordinator := services.NewDecryptionCoordinator(repo, compute, verifier)
	bookService := services.NewBookService(repo, vault, compute, coordinator, roleService)
	authService := services.NewAuthService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	marketHandler := handlers.NewMarketHandler(bookService)
	betHandler := handlers.NewBetHandler(bookService)
	settlementHandler := handlers.NewSettlementHandler(bookService)
	adminHandler := handlers.NewAdminHandler(roleService)

	// Watchdog for decryption requests the gateway never answered
	interval, err := time.ParseDuration(cfg.App.WatchdogInterval)
	if err != nil {
		interval = 5 * time.Minute
	}
	maxAge, err := time.ParseDuration(cfg.App.WatchdogMaxAge)
	if err != nil {
		maxAge = 2 * interval
	}
	watchdog := jobs.NewDecryptionWatchdog(repo, interval, maxAge)
	go watchdog.Start()
	defer watchdog.Stop()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	router.POST("/auth/wallet", authHandler.WalletLogin)

	// Public read routes
	router.GET("/api/markets", marketHandler.GetMarkets)
	router.GET("/api/markets/:id", marketHandler.GetMarketByID)
	router.GET("/api/markets/:id/tickets", marketHandler.GetMarketTickets)
	router.GET("/api/tickets/:id", betHandler.GetTicket)
	router.GET("/api/events", marketHandler.GetEvents)

	// Gateway callback. The threshold proof inside the payload is the
	// authentication for this route.
	router.POST("/gateway/decryption-callback", settlementHandler.DecryptionCallback)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/markets", marketHandler.CreateMarket)
		api.POST("/markets/:id/bets", betHandler.PlaceBet)
		api.POST("/markets/:id/settle", settlementHandler.SettleMarket)
		api.POST("/tickets/:id/claim", betHandler.ClaimPayout)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	{
		admin.POST("/roles", adminHandler.GrantRole)
		admin.DELETE("/roles", adminHandler.RevokeRole)
		admin.GET("/roles/:address", adminHandler.ListRoles)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
