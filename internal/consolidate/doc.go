// Package consolidate implements end-of-day consolidation: it turns the
// session's intermediate batch files into one deduplicated, type-normalized
// parquet artifact.
//
// Files are processed in fixed-size chunks so peak memory is bounded by the
// chunk size, not the session size. Rows are strictly ordered by
// (capture_time, instrument_token) within a chunk; across chunks ordering is
// guaranteed only at the file-sequencing level. A failure inside one chunk
// drops that chunk and the run continues.
package consolidate
