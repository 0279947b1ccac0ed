package convert

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
)

// lookupSemaphore limits concurrent catalog API calls globally across chat
// and HTTP entrypoints. Initialized once from MAX_CONCURRENT_LOOKUPS
// (default: 4).
var (
	lookupSemaphore     chan struct{}
	lookupSemaphoreOnce sync.Once
)

func initLookupSemaphore() {
	lookupSemaphoreOnce.Do(func() {
		maxConcurrent := 4
		if s := os.Getenv("MAX_CONCURRENT_LOOKUPS"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				maxConcurrent = n
			}
		}
		lookupSemaphore = make(chan struct{}, maxConcurrent)
		slog.Info("catalog lookup concurrency limit initialized", slog.Int("max_concurrent", maxConcurrent))
	})
}

// acquireLookupSlot blocks until a lookup slot is available or the context is
// canceled. Returns true if the slot was acquired.
func acquireLookupSlot(ctx context.Context) bool {
	initLookupSemaphore()
	select {
	case lookupSemaphore <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// releaseLookupSlot releases a lookup slot.
func releaseLookupSlot() {
	initLookupSemaphore()
	select {
	case <-lookupSemaphore:
	default:
		// Should not happen unless mismatched acquire/release
		slog.Warn("lookup slot release called without corresponding acquire")
	}
}

// ActiveLookups returns the current number of in-flight catalog calls.
func ActiveLookups() int {
	initLookupSemaphore()
	return len(lookupSemaphore)
}

// MaxConcurrentLookups returns the configured lookup concurrency limit.
func MaxConcurrentLookups() int {
	initLookupSemaphore()
	return cap(lookupSemaphore)
}
