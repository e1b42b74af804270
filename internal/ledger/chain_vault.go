package ledger

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"oraclebook/internal/models"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChainVault settles escrow movements against the on-chain escrow program
// instead of the internal account table. Bet admission still relies on the
// caller having deposited into the program's escrow account; EscrowIn
// verifies and consumes the deposit transaction, EscrowOut submits a release
// transfer signed by the vault authority.
type ChainVault struct {
	rpcClient       *rpc.Client
	network         string
	escrowProgramID string
	vaultWallet     *solana.Wallet
	httpClient      *http.Client
}

// NewChainVault creates a vault backed by the Solana escrow program
func NewChainVault(network, escrowProgramID, privateKey string) *ChainVault {
	var rpcURL string
	switch network {
	case "mainnet-beta":
		rpcURL = "https://api.mainnet-beta.solana.com"
	case "devnet":
		rpcURL = "https://api.devnet.solana.com"
	case "testnet":
		rpcURL = "https://api.testnet.solana.com"
	default:
		rpcURL = "https://api.devnet.solana.com"
	}

	vault := &ChainVault{
		rpcClient:       rpc.New(rpcURL),
		network:         network,
		escrowProgramID: escrowProgramID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	if privateKey != "" {
		wallet, err := solana.WalletFromPrivateKeyBase58(privateKey)
		if err != nil {
			log.Printf("Warning: Failed to load vault wallet: %v", err)
		} else {
			vault.vaultWallet = wallet
			log.Printf("Vault wallet loaded: %s", wallet.PublicKey())
		}
	}

	return vault
}

// EscrowIn verifies the bettor's deposit into the escrow account. The
// deposit itself is submitted by the bettor's wallet; reference carries the
// deposit transaction signature. The transaction must be signed by the
// bettor, must have moved at least amount lamports into the escrow account,
// and its signature is recorded in the caller's transaction so it cannot
// back a second bet.
func (v *ChainVault) EscrowIn(ctx context.Context, tx *gorm.DB, from string, amount uint64, reference string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	bettor, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return fmt.Errorf("invalid bettor address %s: %w", from, err)
	}
	escrowAccount, err := solana.PublicKeyFromBase58(v.escrowProgramID)
	if err != nil {
		return fmt.Errorf("invalid escrow account %s: %w", v.escrowProgramID, err)
	}
	sig, err := solana.SignatureFromBase58(reference)
	if err != nil {
		return fmt.Errorf("invalid deposit signature: %w", err)
	}

	res, err := v.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch deposit transaction: %w", err)
	}
	if res == nil || res.Meta == nil || res.Transaction == nil {
		return fmt.Errorf("deposit transaction %s not found", reference)
	}
	txn, err := res.Transaction.GetTransaction()
	if err != nil {
		return fmt.Errorf("failed to decode deposit transaction: %w", err)
	}

	if err := verifyDeposit(res.Meta, &txn.Message, bettor, escrowAccount, amount); err != nil {
		return fmt.Errorf("deposit %s: %w", reference, err)
	}
	if err := recordDeposit(tx, from, amount, reference); err != nil {
		return err
	}

	log.Printf("[ChainVault] Verified deposit of %d from %s (tx %s)", amount, from, reference)
	return nil
}

// verifyDeposit checks that the confirmed transaction was signed by the
// bettor and actually moved at least amount lamports into the escrow account.
func verifyDeposit(meta *rpc.TransactionMeta, msg *solana.Message, bettor, escrowAccount solana.PublicKey, amount uint64) error {
	if meta.Err != nil {
		return fmt.Errorf("transaction failed on-chain: %w", ErrDepositMismatch)
	}
	if !msg.IsSigner(bettor) {
		return fmt.Errorf("not signed by bettor %s: %w", bettor, ErrDepositMismatch)
	}

	escrowIndex := -1
	for i, key := range msg.AccountKeys {
		if key.Equals(escrowAccount) {
			escrowIndex = i
			break
		}
	}
	if escrowIndex < 0 {
		return fmt.Errorf("escrow account not touched: %w", ErrDepositMismatch)
	}
	if escrowIndex >= len(meta.PreBalances) || escrowIndex >= len(meta.PostBalances) {
		return fmt.Errorf("balance data incomplete: %w", ErrDepositMismatch)
	}

	pre, post := meta.PreBalances[escrowIndex], meta.PostBalances[escrowIndex]
	var received uint64
	if post > pre {
		received = post - pre
	}
	if received < amount {
		return fmt.Errorf("moved %d lamports, bet escrows %d: %w", received, amount, ErrDepositMismatch)
	}
	return nil
}

// recordDeposit stores the consumed deposit signature inside the caller's
// transaction. A signature that already backs a ticket is rejected.
func recordDeposit(tx *gorm.DB, from string, amount uint64, signature string) error {
	var count int64
	err := tx.Model(&models.EscrowEntry{}).
		Where("entry_type = ? AND reference = ?", models.EscrowEntryTypeDeposit, signature).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check deposit signature: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("deposit %s: %w", signature, ErrDepositAlreadyUsed)
	}

	entry := &models.EscrowEntry{
		ID:        uuid.New(),
		EntryType: models.EscrowEntryTypeDeposit,
		Address:   from,
		Amount:    toDecimal(amount),
		Reference: signature,
	}
	return tx.Create(entry).Error
}

// EscrowOut submits a release transfer from the vault authority to the bettor.
func (v *ChainVault) EscrowOut(ctx context.Context, _ *gorm.DB, to string, amount uint64, reference string) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if v.vaultWallet == nil {
		return fmt.Errorf("vault wallet not configured")
	}

	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return fmt.Errorf("invalid recipient address %s: %w", to, err)
	}

	recent, err := v.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	instruction := solana.NewInstruction(
		solana.SystemProgramID,
		solana.AccountMetaSlice{
			solana.Meta(v.vaultWallet.PublicKey()).WRITE().SIGNER(),
			solana.Meta(recipient).WRITE(),
		},
		transferInstructionData(amount),
	)

	txn, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(v.vaultWallet.PublicKey()),
	)
	if err != nil {
		return fmt.Errorf("failed to build release transaction: %w", err)
	}

	_, err = txn.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(v.vaultWallet.PublicKey()) {
			pk := v.vaultWallet.PrivateKey
			return &pk
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign release transaction: %w", err)
	}

	sig, err := v.rpcClient.SendTransaction(ctx, txn)
	if err != nil {
		return fmt.Errorf("failed to send release transaction: %w", err)
	}

	log.Printf("[ChainVault] Released %d to %s (ref %s, tx %s)", amount, to, reference, sig)
	return nil
}

// transferInstructionData encodes a system-program transfer (instruction 2)
func transferInstructionData(lamports uint64) []byte {
	data := make([]byte, 12)
	data[0] = 2
	for i := 0; i < 8; i++ {
		data[4+i] = byte(lamports >> (8 * i))
	}
	return data
}
