// Package export writes point-in-time snapshots of the in-memory index into
// a SQLite database for offline inspection.
//
// The export is one-way: the indexer never loads it back. Each Write
// replaces the whole database content inside one transaction, so readers
// see either the previous export or the new one.
//
// # Database Schema
//
// Tables:
//   - snapshot: time of the export and the indexed roots
//   - files: path, language, size, xxhash content hash
//   - symbols: one row per symbol, metadata as JSON
//   - symbol_refs: occurrences of symbols
//   - relations: directed edges between symbols
//   - stats: per-language and per-kind counters
//
// # Basic Usage
//
//	e, err := export.Open(ctx, "/tmp/codeindex.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	if err := e.Write(ctx, ix.Snapshot()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Build Modes
//
// The default build uses modernc.org/sqlite. Building with the sqlite_cgo
// tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...
package export
