package api

import (
	"context"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Manuqueiroz1/area-de-membros-teacher-poli/cmd/security/token"
)

// FailureStore records failed login attempts per key ("ip:<addr>", "email:<sha256>").
type FailureStore interface {
	RecordFailure(ctx context.Context, key string, at time.Time) error
	// RecentFailures returns failures at or after since, newest first.
	RecentFailures(ctx context.Context, key string, since time.Time) ([]time.Time, error)
	Reset(ctx context.Context, key string) error
}

type lockoutTier struct {
	Threshold int
	Duration  time.Duration
}

// failureSweepAt is the key count past which a write also drops every key
// whose newest failure has aged out of retention.
const failureSweepAt = 4096

// MemoryFailureStore is a process-local FailureStore.
// Entries older than the retention window are pruned on write; once the map
// grows past sweepAt keys, expired keys are dropped as well.
type MemoryFailureStore struct {
	mu        sync.Mutex
	retention time.Duration
	sweepAt   int
	failures  map[string][]time.Time
}

// NewMemoryFailureStore constructs a MemoryFailureStore.
func NewMemoryFailureStore(retention time.Duration) *MemoryFailureStore {
	if retention <= 0 {
		retention = 2 * time.Hour
	}
	return &MemoryFailureStore{
		retention: retention,
		sweepAt:   failureSweepAt,
		failures:  make(map[string][]time.Time),
	}
}

func (s *MemoryFailureStore) RecordFailure(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cut := at.Add(-s.retention)
	if len(s.failures) > s.sweepAt {
		s.sweepLocked(cut)
	}
	kept := s.failures[key][:0]
	for _, t := range s.failures[key] {
		if t.After(cut) {
			kept = append(kept, t)
		}
	}
	s.failures[key] = append(kept, at)
	return nil
}

func (s *MemoryFailureStore) sweepLocked(cut time.Time) {
	for k, ts := range s.failures {
		expired := true
		for _, t := range ts {
			if t.After(cut) {
				expired = false
				break
			}
		}
		if expired {
			delete(s.failures, k)
		}
	}
}

func (s *MemoryFailureStore) RecentFailures(_ context.Context, key string, since time.Time) ([]time.Time, error) {
	s.mu.Lock()
	out := make([]time.Time, 0, len(s.failures[key]))
	for _, t := range s.failures[key] {
		if !t.Before(since) {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

func (s *MemoryFailureStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.failures, key)
	s.mu.Unlock()
	return nil
}

func ipKey(ip net.IP) string { return "ip:" + ip.String() }

// emailKey hashes the address so shared stores never hold raw emails.
func emailKey(email string) string { return "email:" + token.HashSHA256Hex(email) }

func (h *Handler) checkLoginIPThrottle(ctx context.Context, ip net.IP, now time.Time) (bool, time.Duration, error) {
	if ip == nil || h.cfg.LoginIPMax <= 0 {
		return false, 0, nil
	}
	failures, err := h.failures.RecentFailures(ctx, ipKey(ip), now.Add(-h.cfg.LoginIPWindow))
	if err != nil {
		return false, 0, err
	}
	blocked, retry := evaluateWindowThrottle(now, failures, h.cfg.LoginIPMax, h.cfg.LoginIPWindow)
	return blocked, retry, nil
}

func (h *Handler) checkLoginEmailThrottle(ctx context.Context, email string, now time.Time) (bool, time.Duration, error) {
	if email == "" {
		return false, 0, nil
	}
	failures, err := h.failures.RecentFailures(ctx, emailKey(email), now.Add(-h.cfg.LoginUserWindow))
	if err != nil {
		return false, 0, err
	}
	blocked, retry := evaluateProgressiveLockout(now, failures, h.cfg.lockoutTiers())
	return blocked, retry, nil
}

func (h *Handler) recordLoginFailure(ctx context.Context, ip net.IP, email string, now time.Time) {
	if ip != nil {
		if err := h.failures.RecordFailure(ctx, ipKey(ip), now); err != nil {
			h.log.Error("auth.login.throttle_record.fail", "err", err)
		}
	}
	if email != "" {
		if err := h.failures.RecordFailure(ctx, emailKey(email), now); err != nil {
			h.log.Error("auth.login.throttle_record.fail", "err", err)
		}
	}
}

func (h *Handler) resetLoginFailures(ctx context.Context, email string) {
	if email == "" {
		return
	}
	if err := h.failures.Reset(ctx, emailKey(email)); err != nil {
		h.log.Error("auth.login.throttle_reset.fail", "err", err)
	}
}

// evaluateWindowThrottle blocks once max failures fall inside window. The
// retry hint is when the oldest in-window failure ages out.
func evaluateWindowThrottle(now time.Time, failures []time.Time, max int, window time.Duration) (bool, time.Duration) {
	if max <= 0 || window <= 0 {
		return false, 0
	}
	cut := now.Add(-window)

	var (
		count  int
		oldest time.Time
	)
	for _, t := range failures {
		if !t.After(cut) {
			continue
		}
		count++
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
	}
	if count < max {
		return false, 0
	}
	return true, oldest.Add(window).Sub(now)
}

// evaluateProgressiveLockout locks for the duration of the highest tier
// whose threshold is reached, counted from the latest failure.
// Tiers are checked in the given order.
func evaluateProgressiveLockout(now time.Time, failures []time.Time, tiers []lockoutTier) (bool, time.Duration) {
	if len(failures) == 0 {
		return false, 0
	}
	latest := failures[0]
	for _, t := range failures[1:] {
		if t.After(latest) {
			latest = t
		}
	}

	for _, tier := range tiers {
		if tier.Threshold <= 0 || len(failures) < tier.Threshold {
			continue
		}
		until := latest.Add(tier.Duration)
		if until.After(now) {
			return true, until.Sub(now)
		}
		return false, 0
	}
	return false, 0
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64((retryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", msgTooManyAttempts)
}
