// Package token holds the secret-handling primitives shared by token signing
// and webhook authentication.
//
// - Secrets are read from the environment and checked for a minimum byte length.
// - Shared secrets presented by callers (webhook tokens) are compared through
//   HMAC digests in constant time so neither length nor prefix leaks.
// - Random secrets can be minted for development when none is configured.
package token
