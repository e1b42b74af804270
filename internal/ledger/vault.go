package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"oraclebook/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VaultAddress is the internal account that holds everything currently
// escrowed across all markets.
const VaultAddress = "vault"

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("transfer amount must be positive")
	ErrDepositAlreadyUsed = errors.New("deposit transaction already used")
	ErrDepositMismatch    = errors.New("deposit transaction does not match the bet")
)

// Vault moves value between bettor accounts and the escrow vault. The tx
// handle lets a database-backed vault commit atomically with the protocol
// state change that caused the transfer; implementations that settle value
// elsewhere may ignore it.
type Vault interface {
	// EscrowIn moves amount from the bettor's account into the vault.
	EscrowIn(ctx context.Context, tx *gorm.DB, from string, amount uint64, reference string) error
	// EscrowOut moves amount from the vault back to the bettor's account.
	EscrowOut(ctx context.Context, tx *gorm.DB, to string, amount uint64, reference string) error
}

// AccountVault is a database-backed Vault keeping per-address decimal
// balances plus an append-only entry log.
type AccountVault struct {
	db *gorm.DB
}

func NewAccountVault(db *gorm.DB) *AccountVault {
	return &AccountVault{db: db}
}

// Credit adds funds to an address outside of any escrow flow (faucet,
// deposits confirmed off-path).
func (v *AccountVault) Credit(ctx context.Context, address string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return v.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return v.credit(tx, address, toDecimal(amount))
	})
}

// Balance returns the current balance of an address.
func (v *AccountVault) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	var account models.EscrowAccount
	err := v.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// EscrowIn debits the bettor and credits the vault in the caller's transaction.
func (v *AccountVault) EscrowIn(ctx context.Context, tx *gorm.DB, from string, amount uint64, reference string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	value := toDecimal(amount)

	if err := v.debit(tx, from, value); err != nil {
		return err
	}
	if err := v.credit(tx, VaultAddress, value); err != nil {
		return err
	}

	entry := &models.EscrowEntry{
		ID:        uuid.New(),
		EntryType: models.EscrowEntryTypeDeposit,
		Address:   from,
		Amount:    value,
		Reference: reference,
	}
	return tx.Create(entry).Error
}

// EscrowOut debits the vault and credits the bettor in the caller's transaction.
func (v *AccountVault) EscrowOut(ctx context.Context, tx *gorm.DB, to string, amount uint64, reference string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	value := toDecimal(amount)

	if err := v.debit(tx, VaultAddress, value); err != nil {
		return err
	}
	if err := v.credit(tx, to, value); err != nil {
		return err
	}

	entry := &models.EscrowEntry{
		ID:        uuid.New(),
		EntryType: models.EscrowEntryTypePayout,
		Address:   to,
		Amount:    value,
		Reference: reference,
	}
	return tx.Create(entry).Error
}

func (v *AccountVault) credit(tx *gorm.DB, address string, value decimal.Decimal) error {
	var account models.EscrowAccount
	err := tx.Where("address = ?", address).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		account = models.EscrowAccount{Address: address, Balance: value}
		return tx.Create(&account).Error
	}
	if err != nil {
		return err
	}

	account.Balance = account.Balance.Add(value)
	return tx.Save(&account).Error
}

func (v *AccountVault) debit(tx *gorm.DB, address string, value decimal.Decimal) error {
	var account models.EscrowAccount
	err := tx.Where("address = ?", address).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return fmt.Errorf("account %s: %w", address, ErrInsufficientFunds)
	}
	if err != nil {
		return err
	}

	if account.Balance.LessThan(value) {
		return fmt.Errorf("account %s has %s, needs %s: %w",
			address, account.Balance.String(), value.String(), ErrInsufficientFunds)
	}

	account.Balance = account.Balance.Sub(value)
	return tx.Save(&account).Error
}

func toDecimal(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
}
