// Package database provides SQLite storage for the photo book catalog.
//
// It handles storage and retrieval of:
//   - Photo records discovered by the indexer (path, capture date,
//     thumbnail reference, change-detection fingerprint)
//   - Book definitions loaded from config, with completion flags
//   - Per-book photo selections
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization and column migrations.
// Batch writers drive transactions through BeginBatch/EndBatch; reads
// take bounded timeouts derived from the caller's context.
package database
