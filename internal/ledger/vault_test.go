package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"oraclebook/internal/database"
	"oraclebook/internal/models"
)

func setupVault(t *testing.T) *AccountVault {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return NewAccountVault(db)
}

func mustBalance(t *testing.T, vault *AccountVault, address string) decimal.Decimal {
	balance, err := vault.Balance(context.Background(), address)
	if err != nil {
		t.Fatalf("Balance(%s) failed: %v", address, err)
	}
	return balance
}

func TestCreditAndBalance(t *testing.T) {
	vault := setupVault(t)
	ctx := context.Background()

	if !mustBalance(t, vault, "alice").IsZero() {
		t.Error("unknown account must read as zero")
	}

	if err := vault.Credit(ctx, "alice", 500); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if err := vault.Credit(ctx, "alice", 250); err != nil {
		t.Fatalf("second Credit failed: %v", err)
	}
	if got := mustBalance(t, vault, "alice"); !got.Equal(decimal.NewFromInt(750)) {
		t.Errorf("expected balance 750, got %s", got)
	}

	if err := vault.Credit(ctx, "alice", 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero credit, got %v", err)
	}
}

func TestEscrowRoundTrip(t *testing.T) {
	vault := setupVault(t)
	ctx := context.Background()

	if err := vault.Credit(ctx, "alice", 1000); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	err := vault.db.Transaction(func(tx *gorm.DB) error {
		return vault.EscrowIn(ctx, tx, "alice", 400, "ref-in")
	})
	if err != nil {
		t.Fatalf("EscrowIn failed: %v", err)
	}
	if got := mustBalance(t, vault, "alice"); !got.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected alice at 600, got %s", got)
	}
	if got := mustBalance(t, vault, VaultAddress); !got.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected vault at 400, got %s", got)
	}

	err = vault.db.Transaction(func(tx *gorm.DB) error {
		return vault.EscrowOut(ctx, tx, "alice", 150, "ref-out")
	})
	if err != nil {
		t.Fatalf("EscrowOut failed: %v", err)
	}
	if got := mustBalance(t, vault, "alice"); !got.Equal(decimal.NewFromInt(750)) {
		t.Errorf("expected alice at 750, got %s", got)
	}
	if got := mustBalance(t, vault, VaultAddress); !got.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected vault at 250, got %s", got)
	}

	var deposits, payouts []models.EscrowEntry
	if err := vault.db.Where("entry_type = ?", models.EscrowEntryTypeDeposit).Find(&deposits).Error; err != nil {
		t.Fatalf("failed to load deposit entries: %v", err)
	}
	if err := vault.db.Where("entry_type = ?", models.EscrowEntryTypePayout).Find(&payouts).Error; err != nil {
		t.Fatalf("failed to load payout entries: %v", err)
	}
	if len(deposits) != 1 || deposits[0].Reference != "ref-in" {
		t.Errorf("unexpected deposit entries: %+v", deposits)
	}
	if len(payouts) != 1 || payouts[0].Reference != "ref-out" {
		t.Errorf("unexpected payout entries: %+v", payouts)
	}
}

func TestEscrowInsufficientFunds(t *testing.T) {
	vault := setupVault(t)
	ctx := context.Background()

	if err := vault.Credit(ctx, "alice", 100); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	err := vault.db.Transaction(func(tx *gorm.DB) error {
		return vault.EscrowIn(ctx, tx, "alice", 200, "too-much")
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	// The rolled-back transfer must leave both balances untouched
	if got := mustBalance(t, vault, "alice"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected alice unchanged at 100, got %s", got)
	}
	if !mustBalance(t, vault, VaultAddress).IsZero() {
		t.Error("vault must stay empty after a failed escrow")
	}

	err = vault.db.Transaction(func(tx *gorm.DB) error {
		return vault.EscrowOut(ctx, tx, "alice", 1, "empty-vault")
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds for empty vault, got %v", err)
	}

	err = vault.db.Transaction(func(tx *gorm.DB) error {
		return vault.EscrowIn(ctx, tx, "nobody", 50, "missing-account")
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds for missing account, got %v", err)
	}
}
