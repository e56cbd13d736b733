// Package session issues and verifies the signed, expiring tokens handed to
// users after CreatePassword and Login.
//
// Two formats are supported behind the Manager interface:
//   - HS256 JWT (default), keyed by POLI_JWT_SECRET.
//   - PASETO v4.public, keyed by an Ed25519 secret (POLI_PASETO_V4_SECRET_KEY_HEX).
//
// Tokens carry the normalized email as subject plus the display name.
// There are no refresh tokens; a token simply expires after its TTL.
package session
