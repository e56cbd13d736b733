package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var throttleNow = time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) time.Time { return throttleNow.Add(-d) }

func TestEvaluateWindowThrottle(t *testing.T) {
	failures := []time.Time{ago(time.Minute), ago(2 * time.Minute), ago(6 * time.Minute)}

	cases := []struct {
		name      string
		max       int
		window    time.Duration
		wantBlock bool
		wantRetry time.Duration
	}{
		{"limit reached inside window", 2, 5 * time.Minute, true, 3 * time.Minute},
		{"below limit", 3, 5 * time.Minute, false, 0},
		{"wider window counts older failure", 3, 10 * time.Minute, true, 4 * time.Minute},
		{"disabled", 0, 5 * time.Minute, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blocked, retry := evaluateWindowThrottle(throttleNow, failures, tc.max, tc.window)
			assert.Equal(t, tc.wantBlock, blocked)
			assert.Equal(t, tc.wantRetry, retry)
		})
	}
}

func TestEvaluateProgressiveLockout(t *testing.T) {
	tiers := []lockoutTier{
		{Threshold: 20, Duration: 2 * time.Hour},
		{Threshold: 10, Duration: 30 * time.Minute},
		{Threshold: 5, Duration: 5 * time.Minute},
	}
	series := func(n int, latest time.Duration) []time.Time {
		out := make([]time.Time, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, ago(latest+time.Duration(i)*time.Minute))
		}
		return out
	}

	cases := []struct {
		name      string
		failures  []time.Time
		wantBlock bool
		wantRetry time.Duration
	}{
		{"none", nil, false, 0},
		{"under every threshold", series(4, 0), false, 0},
		{"short tier", series(5, 30*time.Second), true, 4*time.Minute + 30*time.Second},
		{"short tier expired", series(5, 6*time.Minute), false, 0},
		{"middle tier", series(12, 10*time.Minute), true, 20 * time.Minute},
		{"severe tier wins", series(20, time.Minute), true, time.Hour + 59*time.Minute},
		{"expired severe tier does not fall back", series(20, 3*time.Hour), false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blocked, retry := evaluateProgressiveLockout(throttleNow, tc.failures, tiers)
			assert.Equal(t, tc.wantBlock, blocked)
			assert.Equal(t, tc.wantRetry, retry)
		})
	}
}

func TestMemoryFailureStore_RecentFailuresNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFailureStore(time.Hour)
	key := emailKey("a@b.com")

	for _, d := range []time.Duration{3 * time.Minute, time.Minute, 2 * time.Minute, 90 * time.Minute} {
		require.NoError(t, s.RecordFailure(ctx, key, ago(d)))
	}

	got, err := s.RecentFailures(ctx, key, ago(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{ago(time.Minute), ago(2 * time.Minute), ago(3 * time.Minute)}, got)

	require.NoError(t, s.Reset(ctx, key))
	got, err = s.RecentFailures(ctx, key, ago(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryFailureStore_PrunesBeyondRetention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFailureStore(10 * time.Minute)

	require.NoError(t, s.RecordFailure(ctx, "ip:10.0.0.1", ago(30*time.Minute)))
	require.NoError(t, s.RecordFailure(ctx, "ip:10.0.0.1", throttleNow))

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.failures["ip:10.0.0.1"], 1)
}

func TestMemoryFailureStore_SweepsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFailureStore(time.Hour)
	assert.Equal(t, failureSweepAt, s.sweepAt)
	s.sweepAt = 8

	for i := 0; i < 20; i++ {
		require.NoError(t, s.RecordFailure(ctx, fmt.Sprintf("ip:10.0.0.%d", i), ago(24*time.Hour)))
	}
	require.NoError(t, s.RecordFailure(ctx, "ip:10.0.1.1", ago(10*time.Minute)))
	require.NoError(t, s.RecordFailure(ctx, "ip:10.0.1.2", throttleNow))

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.failures, 2)
	assert.Contains(t, s.failures, "ip:10.0.1.1")
	assert.Contains(t, s.failures, "ip:10.0.1.2")
}

func TestMemoryFailureStore_KeepsKeysBelowSweepThreshold(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFailureStore(time.Hour)
	s.sweepAt = 8

	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordFailure(ctx, fmt.Sprintf("ip:10.0.0.%d", i), ago(24*time.Hour)))
	}
	require.NoError(t, s.RecordFailure(ctx, "ip:10.0.1.1", throttleNow))

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.failures, 6)
}

func TestWriteRateLimited_RoundsRetryAfterUp(t *testing.T) {
	rec := httptest.NewRecorder()
	writeRateLimited(rec, 1500*time.Millisecond)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), msgTooManyAttempts)
}

func TestEmailKey_DoesNotLeakAddress(t *testing.T) {
	k := emailKey("ana@example.com")
	assert.NotContains(t, k, "ana")
	assert.True(t, strings.HasPrefix(k, "email:"))
	assert.Len(t, k, len("email:")+64)
	assert.Equal(t, k, emailKey("ana@example.com"))
}
