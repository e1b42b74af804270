package jobs

import (
	"context"
	"log"
	"time"

	"oraclebook/internal/repository"
)

// DecryptionWatchdog surfaces decryption requests the gateway has not
// answered. A pending request never blocks funds, but a subject stuck in
// a pending state is an operational liveness problem someone should see.
type DecryptionWatchdog struct {
	repo     *repository.Repository
	interval time.Duration
	maxAge   time.Duration
	stopChan chan struct{}
}

// NewDecryptionWatchdog creates a new watchdog job
func NewDecryptionWatchdog(repo *repository.Repository, interval, maxAge time.Duration) *DecryptionWatchdog {
	return &DecryptionWatchdog{
		repo:     repo,
		interval: interval,
		maxAge:   maxAge,
		stopChan: make(chan struct{}),
	}
}

// Start begins the watchdog loop
func (w *DecryptionWatchdog) Start() {
	log.Printf("[DecryptionWatchdog] Starting watchdog (interval: %v, max age: %v)", w.interval, w.maxAge)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.reportStuckRequests()
		case <-w.stopChan:
			log.Println("[DecryptionWatchdog] Stopping watchdog")
			return
		}
	}
}

// Stop stops the watchdog loop
func (w *DecryptionWatchdog) Stop() {
	close(w.stopChan)
}

func (w *DecryptionWatchdog) reportStuckRequests() {
	ctx := context.Background()

	cutoff := time.Now().Add(-w.maxAge)
	stuck, err := w.repo.ListUnresolvedRequestsOlderThan(ctx, cutoff, 100)
	if err != nil {
		log.Printf("[DecryptionWatchdog] Error listing pending requests: %v", err)
		return
	}

	for _, req := range stuck {
		log.Printf("[DecryptionWatchdog] Request %d (%s, subject %d) pending since %v",
			req.RequestID, req.Kind, req.SubjectID, req.CreatedAt)
	}
}
