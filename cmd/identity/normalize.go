package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Every store key goes through it, so "A@B.com " and "a@b.com" are the same record.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
