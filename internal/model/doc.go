// Package model defines shared data types used across the tick collector.
//
// Conventions:
//   - Timestamps: time.Time carrying the session timezone; persisted forms
//     use RFC 3339 (CSV batches) or int64 microseconds since epoch (parquet)
//   - Instrument identifiers: int64 exchange tokens
//   - Depth snapshots: opaque JSON strings, never parsed by the core
package model
