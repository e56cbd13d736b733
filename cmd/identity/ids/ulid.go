// Package ids generates the time-ordered identifiers used for purchases
// that do not come with a provider transaction id.
package ids

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// SyntheticPurchasePrefix marks purchase ids minted locally (simulations, tests).
const SyntheticPurchasePrefix = "TEST_"

// NewULID returns a new ULID string (26 chars), timestamped with now.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewSyntheticPurchaseID returns "TEST_<ULID>". The ULID prefix encodes now,
// so ids sort by creation time.
func NewSyntheticPurchaseID(now time.Time) (string, error) {
	id, err := NewULID(now)
	if err != nil {
		return "", err
	}
	return SyntheticPurchasePrefix + id, nil
}

// Timestamp extracts the creation time from a ULID or synthetic purchase id.
func Timestamp(id string) (time.Time, bool) {
	parsed, err := ulid.ParseStrict(strings.TrimPrefix(id, SyntheticPurchasePrefix))
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()).UTC(), true
}
