package services

import (
	"testing"
	"time"
)

func newThrottleAt(start time.Time) (*ResetThrottle, *time.Time) {
	now := start
	rt := NewResetThrottle()
	rt.now = func() time.Time { return now }
	return rt, &now
}

func TestDueForResetFirstRun(t *testing.T) {
	rt, _ := newThrottleAt(time.Now())
	if !rt.DueForReset("u1") {
		t.Fatal("a user with no recorded run is always due")
	}
}

func TestDueForResetCooldown(t *testing.T) {
	rt, now := newThrottleAt(time.Now())
	rt.MarkRan("u1")

	*now = now.Add(59 * time.Minute)
	if rt.DueForReset("u1") {
		t.Fatal("due again after 59 minutes")
	}

	*now = now.Add(time.Minute)
	if !rt.DueForReset("u1") {
		t.Fatal("not due after a full hour")
	}
}

func TestDueForResetPerUser(t *testing.T) {
	rt, _ := newThrottleAt(time.Now())
	rt.MarkRan("u1")
	if rt.DueForReset("u1") {
		t.Fatal("u1 should be throttled")
	}
	if !rt.DueForReset("u2") {
		t.Fatal("u2 has never run and must be due")
	}
}

func TestThrottlePurgesStaleEntries(t *testing.T) {
	rt, now := newThrottleAt(time.Now())
	rt.MarkRan("u1")
	rt.MarkRan("u2")

	*now = now.Add(25 * time.Hour)
	rt.MarkRan("u2") // refresh u2 just before the purge runs
	rt.DueForReset("u3")

	rt.mu.Lock()
	_, hasU1 := rt.lastRun["u1"]
	_, hasU2 := rt.lastRun["u2"]
	rt.mu.Unlock()
	if hasU1 {
		t.Error("day-old entry should have been purged")
	}
	if !hasU2 {
		t.Error("fresh entry should survive the purge")
	}
}

func TestThrottleConcurrentUsers(t *testing.T) {
	rt := NewResetThrottle()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(id byte) {
			user := string([]byte{'u', id})
			for j := 0; j < 100; j++ {
				rt.DueForReset(user)
				rt.MarkRan(user)
			}
			done <- struct{}{}
		}(byte('0' + i))
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
