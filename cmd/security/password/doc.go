// Package password provides password hashing and verification for user credentials.
//
// It implements Argon2id hashing using a PHC encoded string format and includes:
// - Configurable Argon2id parameters (via POLI_ARGON2_* environment variables)
// - Password policy validation (via POLI_PASSWORD_* environment variables)
// - Strict hash decoding and verification with anti-DoS bounds
//
// Hash strings are treated as untrusted input during Verify.
package password
