// Package store implements the intermediate batch store: one directory of
// append-only CSV files, each holding a drained snapshot of ticks.
//
// Batch files are named so lexicographic order equals creation order:
//
//	ticks_20250828_101530_123456789_1a2b3c4d.csv
//
// (wall-clock second, nanosecond disambiguator, random suffix). Files are
// immutable once written and are consumed exactly once by consolidation.
package store
