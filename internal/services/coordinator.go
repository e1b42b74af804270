package services

import (
	"context"
	"fmt"
	"log"

	"oraclebook/internal/gateway"
	"oraclebook/internal/models"
	"oraclebook/internal/repository"

	"gorm.io/gorm"
)

// DecryptionCoordinator correlates asynchronous gateway decryptions with the
// operation that spawned them. At most one unresolved request may exist per
// subject and kind; callbacks are keyed strictly by request id and a resolved
// request rejected on replay is a hard error so duplicate delivery is
// detectable.
type DecryptionCoordinator struct {
	repo     *repository.Repository
	compute  gateway.ConfidentialCompute
	verifier *gateway.ProofVerifier
}

func NewDecryptionCoordinator(repo *repository.Repository, compute gateway.ConfidentialCompute, verifier *gateway.ProofVerifier) *DecryptionCoordinator {
	return &DecryptionCoordinator{
		repo:     repo,
		compute:  compute,
		verifier: verifier,
	}
}

// RequestDecryption forwards the handles to the gateway and records the
// pending request inside the caller's transaction. A second unresolved
// request for the same subject and kind fails fast instead of issuing a
// duplicate.
func (dc *DecryptionCoordinator) RequestDecryption(ctx context.Context, tx *gorm.DB, kind string, subjectID uint64, handles []string) (uint64, error) {
	txRepo := dc.repo.WithTx(tx)

	pending, err := txRepo.HasUnresolvedRequest(ctx, kind, subjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if pending {
		return 0, fmt.Errorf("%s for subject %d: %w", kind, subjectID, ErrDecryptionInFlight)
	}

	requestID, err := dc.compute.RequestDecryption(ctx, handles)
	if err != nil {
		return 0, fmt.Errorf("gateway decryption request failed: %w", err)
	}

	req := &models.DecryptionRequest{
		RequestID: requestID,
		Kind:      kind,
		SubjectID: subjectID,
	}
	if err := txRepo.CreateDecryptionRequest(ctx, req); err != nil {
		return 0, fmt.Errorf("failed to record decryption request: %w", err)
	}

	log.Printf("[Coordinator] %s request %d issued for subject %d", kind, requestID, subjectID)
	return requestID, nil
}

// Take loads the request a callback refers to, rejecting unknown ids and
// replays of already-resolved requests.
func (dc *DecryptionCoordinator) Take(ctx context.Context, requestID uint64) (*models.DecryptionRequest, error) {
	req, err := dc.repo.GetDecryptionRequest(ctx, requestID)
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("request %d: %w", requestID, ErrUnknownRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request %d: %w", requestID, err)
	}
	if req.Resolved {
		return nil, fmt.Errorf("request %d: %w", requestID, ErrRequestAlreadyResolved)
	}
	return req, nil
}

// VerifyProof checks the threshold signatures over this callback's
// cleartexts. Nothing in the blob may be trusted before this passes.
func (dc *DecryptionCoordinator) VerifyProof(requestID uint64, cleartexts, proof []byte) error {
	if err := dc.verifier.Verify(requestID, cleartexts, proof); err != nil {
		return fmt.Errorf("%w: %v", ErrCallbackProofRejected, err)
	}
	return nil
}

// Resolve flags a request as applied inside the caller's transaction.
func (dc *DecryptionCoordinator) Resolve(ctx context.Context, tx *gorm.DB, req *models.DecryptionRequest) error {
	return dc.repo.WithTx(tx).ResolveDecryptionRequest(ctx, req)
}
