// Package store provides SQLite-backed durable storage for interned
// term graphs.
//
// The store holds one table of terms plus a normalized child table:
//   - Terms: one row per unique term, keyed by content hash
//   - Term children: (parent, position, child) rows giving link structure
//
// # Critical Patterns
//
// Children before parents
//   - Interning order writes every child before the link that holds it
//   - Ascending id order is therefore a valid bottom-up load order
//
// Content-hash identity
//   - The hash column is UNIQUE; saving is idempotent via ON CONFLICT
//   - Loads recompute each term's hash and fail loudly on mismatch
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Content hashes are computed in internal/term via SHA-256 with domain
// separation over the type, the NFC-normalized name, and child hashes.
package store
