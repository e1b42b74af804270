package services

import "errors"

// Validation errors. Caller-correctable; surfaced verbatim.
var (
	ErrMarketNotFound            = errors.New("market not found")
	ErrMarketAlreadyExists       = errors.New("market already exists")
	ErrInvalidOutcomeCount       = errors.New("outcome count must be at least 2")
	ErrInvalidSchedule           = errors.New("lock time must be after start time")
	ErrWinningOutcomeOutOfBounds = errors.New("winning outcome out of bounds")
	ErrNoEscrow                  = errors.New("bet must escrow a positive value")
	ErrCommitmentAlreadyUsed     = errors.New("commitment already used")
	ErrTicketNotFound            = errors.New("ticket not found")
	ErrInvalidBetProof           = errors.New("bet input proof rejected")
	ErrMarketAlreadySettled      = errors.New("market already settled")
	ErrMarketNotSettled          = errors.New("market not settled yet")
	ErrTicketAlreadyClaimed      = errors.New("ticket already claimed")
)

// Authorization errors. Kept distinct from validation so operators can
// alert on access violations separately.
var (
	ErrNotAuthorized  = errors.New("caller lacks required role")
	ErrNotTicketOwner = errors.New("only the ticket owner can claim")
)

// Protocol/consistency errors. These indicate a forged or duplicate
// callback, or an internal invariant breach; the operation is reverted
// entirely and the failure is logged as a potential attack.
var (
	ErrUnknownRequest         = errors.New("unknown decryption request")
	ErrRequestAlreadyResolved = errors.New("decryption request already resolved")
	ErrCallbackProofRejected  = errors.New("decryption callback proof rejected")
	ErrEscrowUnderflow        = errors.New("payout exceeds remaining escrow balance")
	ErrCommitmentMismatch     = errors.New("commitment does not match encrypted payload")
)

// Concurrency errors. Caller-correctable: retry after the pending state
// resolves.
var (
	ErrReentrantCall      = errors.New("reentrant call rejected")
	ErrDecryptionInFlight = errors.New("decryption already in flight for subject")
	ErrSettlementInFlight = errors.New("settlement decryption already pending")
)
