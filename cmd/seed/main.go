package main

import (
	"context"
	"log"
	"os"
	"time"

	"oraclebook/internal/auth"
	"oraclebook/internal/config"
	"oraclebook/internal/database"
	"oraclebook/internal/ledger"
	"oraclebook/internal/models"
	"oraclebook/internal/repository"
)

// Seeds a handful of demo markets for local development. The seed wallet is
// granted the market maker and oracle roles so the full lifecycle can be
// exercised from the frontend.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seedWallet := os.Getenv("SEED_WALLET")
	if seedWallet == "" {
		log.Fatal("SEED_WALLET is required")
	}

	ctx := context.Background()
	db := database.GetDB()
	repo := repository.NewRepository(db)
	roles := auth.NewRoleService(db)

	for _, role := range []string{models.RoleMarketMaker, models.RoleOracle} {
		if err := roles.GrantRole(ctx, seedWallet, role, "seed"); err != nil {
			log.Fatalf("Failed to grant %s: %v", role, err)
		}
	}

	// Give the seed wallet a working balance in the internal vault
	if cfg.Ledger.Mode != "solana" {
		vault := ledger.NewAccountVault(db)
		if err := vault.Credit(ctx, seedWallet, 10_000_000_000); err != nil {
			log.Printf("Warning: failed to credit seed wallet: %v", err)
		}
	}

	now := time.Now().Unix()
	demoMarkets := []models.Market{
		{ID: 101, OutcomeCount: 3, StartTime: now + 3600, LockTime: now + 86400, CreatedBy: seedWallet},
		{ID: 102, OutcomeCount: 2, StartTime: now + 3600, LockTime: now + 172800, CreatedBy: seedWallet},
		{ID: 103, OutcomeCount: 4, StartTime: now + 7200, LockTime: now + 259200, CreatedBy: seedWallet},
	}

	for _, market := range demoMarkets {
		exists, err := repo.MarketExists(ctx, market.ID)
		if err != nil {
			log.Fatalf("Failed to check market %d: %v", market.ID, err)
		}
		if exists {
			log.Printf("Market %d already seeded, skipping", market.ID)
			continue
		}
		if err := repo.CreateMarket(ctx, &market); err != nil {
			log.Fatalf("Failed to seed market %d: %v", market.ID, err)
		}
		log.Printf("Seeded market %d (%d outcomes)", market.ID, market.OutcomeCount)
	}

	log.Println("Seed completed")
}
