package ledger

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"gorm.io/gorm"
)

func TestVerifyDeposit(t *testing.T) {
	bettor := solana.NewWallet().PublicKey()
	escrow := solana.NewWallet().PublicKey()

	msg := &solana.Message{
		AccountKeys: []solana.PublicKey{bettor, escrow, solana.SystemProgramID},
		Header:      solana.MessageHeader{NumRequiredSignatures: 1},
	}
	meta := &rpc.TransactionMeta{
		PreBalances:  []uint64{5000, 100, 1},
		PostBalances: []uint64{3995, 1100, 1},
	}

	if err := verifyDeposit(meta, msg, bettor, escrow, 1000); err != nil {
		t.Errorf("exact-amount deposit rejected: %v", err)
	}
	if err := verifyDeposit(meta, msg, bettor, escrow, 400); err != nil {
		t.Errorf("over-funded deposit rejected: %v", err)
	}

	// Deposit smaller than the escrowed value the bet claims
	if err := verifyDeposit(meta, msg, bettor, escrow, 2000); !errors.Is(err, ErrDepositMismatch) {
		t.Errorf("short deposit: expected ErrDepositMismatch, got %v", err)
	}

	// Transaction never touches the escrow account
	other := solana.NewWallet().PublicKey()
	if err := verifyDeposit(meta, msg, bettor, other, 100); !errors.Is(err, ErrDepositMismatch) {
		t.Errorf("wrong destination: expected ErrDepositMismatch, got %v", err)
	}

	// Bettor present in the account list but not a signer
	unsigned := &solana.Message{
		AccountKeys: []solana.PublicKey{escrow, bettor},
		Header:      solana.MessageHeader{NumRequiredSignatures: 1},
	}
	unsignedMeta := &rpc.TransactionMeta{
		PreBalances:  []uint64{100, 5000},
		PostBalances: []uint64{1100, 3995},
	}
	if err := verifyDeposit(unsignedMeta, unsigned, bettor, escrow, 100); !errors.Is(err, ErrDepositMismatch) {
		t.Errorf("unsigned deposit: expected ErrDepositMismatch, got %v", err)
	}

	// Transaction failed on-chain
	failedMeta := &rpc.TransactionMeta{
		Err:          map[string]interface{}{"InstructionError": nil},
		PreBalances:  []uint64{5000, 100, 1},
		PostBalances: []uint64{3995, 1100, 1},
	}
	if err := verifyDeposit(failedMeta, msg, bettor, escrow, 100); !errors.Is(err, ErrDepositMismatch) {
		t.Errorf("failed transaction: expected ErrDepositMismatch, got %v", err)
	}

	// Escrow balance decreased
	drainMeta := &rpc.TransactionMeta{
		PreBalances:  []uint64{5000, 1100, 1},
		PostBalances: []uint64{6095, 100, 1},
	}
	if err := verifyDeposit(drainMeta, msg, bettor, escrow, 100); !errors.Is(err, ErrDepositMismatch) {
		t.Errorf("drained escrow: expected ErrDepositMismatch, got %v", err)
	}
}

func TestRecordDepositReplay(t *testing.T) {
	vault := setupVault(t)

	err := vault.db.Transaction(func(tx *gorm.DB) error {
		return recordDeposit(tx, "bettor", 100, "sig-1")
	})
	if err != nil {
		t.Fatalf("first recordDeposit failed: %v", err)
	}

	// The same signature cannot back a second bet, whatever the amount
	err = vault.db.Transaction(func(tx *gorm.DB) error {
		return recordDeposit(tx, "bettor", 900, "sig-1")
	})
	if !errors.Is(err, ErrDepositAlreadyUsed) {
		t.Errorf("replayed signature: expected ErrDepositAlreadyUsed, got %v", err)
	}
	err = vault.db.Transaction(func(tx *gorm.DB) error {
		return recordDeposit(tx, "other", 100, "sig-1")
	})
	if !errors.Is(err, ErrDepositAlreadyUsed) {
		t.Errorf("replay from another bettor: expected ErrDepositAlreadyUsed, got %v", err)
	}

	// A fresh signature is fine
	err = vault.db.Transaction(func(tx *gorm.DB) error {
		return recordDeposit(tx, "bettor", 100, "sig-2")
	})
	if err != nil {
		t.Fatalf("fresh signature rejected: %v", err)
	}
}
