// Package identity holds the purchase and user records that gate access to
// the product, the stores that persist them, and the password primitives used
// to protect user credentials.
//
// Both stores key every record by the normalized email (see NormalizeEmail).
// MemoryStore is the default backend; PostgresStore is used when a database
// URL is configured.
package identity
