package services

import (
	"sync"
	"time"
)

const (
	resetCooldown = time.Hour
	resetEntryTTL = 24 * time.Hour
)

// ResetThrottle rate-limits per-user mission reconciliation so a burst of
// reads does not rescan progress on every request. Skipping a scan only
// delays expiration, it never misapplies it, so the throttle carries no
// correctness burden. Entries are purged once they are a day old to bound
// memory.
type ResetThrottle struct {
	mu        sync.Mutex
	lastRun   map[string]time.Time
	lastPurge time.Time
	now       func() time.Time
}

func NewResetThrottle() *ResetThrottle {
	return &ResetThrottle{
		lastRun: make(map[string]time.Time),
		now:     time.Now,
	}
}

// DueForReset reports whether the user's progress should be reconciled:
// true when no run is recorded or the last one was at least an hour ago.
func (rt *ResetThrottle) DueForReset(userID string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.purgeLocked()
	last, ok := rt.lastRun[userID]
	return !ok || rt.now().Sub(last) >= resetCooldown
}

// MarkRan records that a reconcile pass just completed for the user.
func (rt *ResetThrottle) MarkRan(userID string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.lastRun[userID] = rt.now()
}

func (rt *ResetThrottle) purgeLocked() {
	now := rt.now()
	if now.Sub(rt.lastPurge) < resetCooldown {
		return
	}
	for userID, last := range rt.lastRun {
		if now.Sub(last) >= resetEntryTTL {
			delete(rt.lastRun, userID)
		}
	}
	rt.lastPurge = now
}
