package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// ConfidentialCompute is the surface of the external FHE coprocessor the
// book service depends on: input-proof verification, homomorphic
// aggregation over encrypted handles, and asynchronous decryption.
type ConfidentialCompute interface {
	// VerifyBetInput checks the zero-knowledge input proof binding the two
	// encrypted handles to the bettor and target market.
	VerifyBetInput(ctx context.Context, marketID uint64, bettor, outcomeHandle, stakeHandle, proof string) error
	// AggregateStakes homomorphically computes the encrypted sum of stakes
	// placed on the winning outcome and the encrypted sum of all stakes.
	AggregateStakes(ctx context.Context, outcomeHandles, stakeHandles []string, winningOutcome uint32) (winningHandle, totalHandle string, err error)
	// GatePayout homomorphically computes escrowedValue*payoutRatio/scale
	// if the encrypted outcome equals the winning outcome, else zero.
	GatePayout(ctx context.Context, outcomeHandle string, winningOutcome uint32, escrowedValue, payoutRatio, scale uint64) (payoutHandle string, err error)
	// RequestDecryption asks the gateway to threshold-decrypt the handles.
	// The cleartexts arrive later through the decryption callback endpoint.
	RequestDecryption(ctx context.Context, handles []string) (requestID uint64, err error)
}

// Client talks to the confidential-compute gateway over its HTTP JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new gateway client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type verifyInputRequest struct {
	MarketID      uint64 `json:"market_id"`
	Bettor        string `json:"bettor"`
	OutcomeHandle string `json:"outcome_handle"`
	StakeHandle   string `json:"stake_handle"`
	Proof         string `json:"proof"`
}

type verifyInputResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type aggregateRequest struct {
	OutcomeHandles []string `json:"outcome_handles"`
	StakeHandles   []string `json:"stake_handles"`
	WinningOutcome uint32   `json:"winning_outcome"`
}

type aggregateResponse struct {
	WinningStakeHandle string `json:"winning_stake_handle"`
	TotalStakeHandle   string `json:"total_stake_handle"`
}

type gatePayoutRequest struct {
	OutcomeHandle  string `json:"outcome_handle"`
	WinningOutcome uint32 `json:"winning_outcome"`
	EscrowedValue  uint64 `json:"escrowed_value"`
	PayoutRatio    uint64 `json:"payout_ratio"`
	Scale          uint64 `json:"scale"`
}

type gatePayoutResponse struct {
	PayoutHandle string `json:"payout_handle"`
}

type decryptRequest struct {
	Handles []string `json:"handles"`
}

type decryptResponse struct {
	RequestID uint64 `json:"request_id"`
}

// VerifyBetInput checks the input proof for a bet's encrypted payload
func (c *Client) VerifyBetInput(ctx context.Context, marketID uint64, bettor, outcomeHandle, stakeHandle, proof string) error {
	var resp verifyInputResponse
	err := c.post(ctx, "/v1/inputs/verify", verifyInputRequest{
		MarketID:      marketID,
		Bettor:        bettor,
		OutcomeHandle: outcomeHandle,
		StakeHandle:   stakeHandle,
		Proof:         proof,
	}, &resp)
	if err != nil {
		return fmt.Errorf("input verification call failed: %w", err)
	}
	if !resp.Valid {
		return fmt.Errorf("input proof rejected: %s", resp.Reason)
	}
	return nil
}

// AggregateStakes builds the two encrypted aggregates needed for settlement
func (c *Client) AggregateStakes(ctx context.Context, outcomeHandles, stakeHandles []string, winningOutcome uint32) (string, string, error) {
	var resp aggregateResponse
	err := c.post(ctx, "/v1/compute/aggregate-stakes", aggregateRequest{
		OutcomeHandles: outcomeHandles,
		StakeHandles:   stakeHandles,
		WinningOutcome: winningOutcome,
	}, &resp)
	if err != nil {
		return "", "", fmt.Errorf("stake aggregation call failed: %w", err)
	}
	return resp.WinningStakeHandle, resp.TotalStakeHandle, nil
}

// GatePayout builds the encrypted payout amount for one ticket
func (c *Client) GatePayout(ctx context.Context, outcomeHandle string, winningOutcome uint32, escrowedValue, payoutRatio, scale uint64) (string, error) {
	var resp gatePayoutResponse
	err := c.post(ctx, "/v1/compute/gate-payout", gatePayoutRequest{
		OutcomeHandle:  outcomeHandle,
		WinningOutcome: winningOutcome,
		EscrowedValue:  escrowedValue,
		PayoutRatio:    payoutRatio,
		Scale:          scale,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("payout gating call failed: %w", err)
	}
	return resp.PayoutHandle, nil
}

// RequestDecryption submits handles for threshold decryption
func (c *Client) RequestDecryption(ctx context.Context, handles []string) (uint64, error) {
	var resp decryptResponse
	err := c.post(ctx, "/v1/decrypt", decryptRequest{Handles: handles}, &resp)
	if err != nil {
		return 0, fmt.Errorf("decryption request failed: %w", err)
	}
	log.Printf("[Gateway] Decryption requested for %d handle(s), request id %d", len(handles), resp.RequestID)
	return resp.RequestID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
