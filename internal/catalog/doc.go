// Package catalog records sealed artifacts in Postgres.
//
// The catalog is an optional manifest: one row per session artifact with its
// row count, byte size and remote location. Downstream consumers discover
// finished sessions by querying it instead of listing object storage. The
// collector works fine with the catalog disabled.
package catalog
