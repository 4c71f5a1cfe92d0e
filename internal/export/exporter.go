package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dshills/codeindex/pkg/types"
)

// ErrNotOpen is returned by every operation on a closed Exporter
var ErrNotOpen = errors.New("export database is not open")

// Counts reports the number of rows in each exported table
type Counts struct {
	Files      int
	Symbols    int
	References int
	Relations  int
}

// Exporter writes index snapshots into a SQLite database. Each Write replaces
// the previous content; the database is never read back into an index.
type Exporter struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; also keeps ":memory:" databases on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Open opens (or creates) the database at path and applies pending migrations
func Open(ctx context.Context, path string) (*Exporter, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Exporter{db: db, path: path}, nil
}

// Path returns the database path the exporter was opened with
func (e *Exporter) Path() string {
	return e.path
}

// Close closes the database connection. Closing twice is a no-op.
func (e *Exporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

// Write replaces the database content with snap in a single transaction
func (e *Exporter) Write(ctx context.Context, snap types.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return ErrNotOpen
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}
	if err := writeSnapshotRow(ctx, tx, snap); err != nil {
		return err
	}
	if err := writeFiles(ctx, tx, snap.Files); err != nil {
		return err
	}
	if err := writeSymbols(ctx, tx, snap.Symbols); err != nil {
		return err
	}
	if err := writeReferences(ctx, tx, snap.References); err != nil {
		return err
	}
	if err := writeRelations(ctx, tx, snap.Relations); err != nil {
		return err
	}
	if err := writeStats(ctx, tx, snap); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}
	return nil
}

// Counts reports the number of exported rows per table
func (e *Exporter) Counts(ctx context.Context) (Counts, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return Counts{}, ErrNotOpen
	}

	var c Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"files", &c.Files},
		{"symbols", &c.Symbols},
		{"symbol_refs", &c.References},
		{"relations", &c.Relations},
	}
	for _, t := range targets {
		if err := e.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return Counts{}, fmt.Errorf("failed to count %s: %w", t.table, err)
		}
	}
	return c, nil
}

// Stat returns one named counter written by the last export, such as
// "symbols.function" or "relations.calls"
func (e *Exporter) Stat(ctx context.Context, name string) (int, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return 0, false, ErrNotOpen
	}

	var v int
	err := e.db.QueryRowContext(ctx, "SELECT value FROM stats WHERE name = ?", name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read stat %s: %w", name, err)
	}
	return v, true, nil
}

// SchemaVersion returns the applied schema version
func (e *Exporter) SchemaVersion(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return "", ErrNotOpen
	}
	v, err := schemaVersion(ctx, e.db)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func clearTables(ctx context.Context, q querier) error {
	// Children first so foreign keys never dangle mid-transaction
	for _, table := range []string{"relations", "symbol_refs", "symbols", "files", "snapshot", "stats"} {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func writeSnapshotRow(ctx context.Context, q querier, snap types.Snapshot) error {
	roots, err := json.Marshal(snap.Roots)
	if err != nil {
		return fmt.Errorf("failed to encode roots: %w", err)
	}
	_, err = q.ExecContext(ctx, "INSERT INTO snapshot (id, taken_at, roots) VALUES (1, ?, ?)",
		formatTime(snap.TakenAt), string(roots))
	if err != nil {
		return fmt.Errorf("failed to write snapshot row: %w", err)
	}
	return nil
}

func writeFiles(ctx context.Context, q querier, files []types.FileRecord) error {
	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO files (path, language, size_bytes, content_hash, indexed_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare file insert: %w", err)
	}
	defer stmt.Close()

	for i := range files {
		f := &files[i]
		meta, err := encodeMap(f.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, f.Path, f.Language, f.SizeBytes, f.Hash, formatTime(f.IndexedAt), meta); err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
		}
	}
	return nil
}

func writeSymbols(ctx context.Context, q querier, symbols []types.Symbol) error {
	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO symbols (id, name, kind, namespace, signature, documentation, file_path, line, col, parent_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	for i := range symbols {
		s := &symbols[i]
		meta, err := encodeMap(s.Metadata)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, s.ID, s.Name, string(s.Kind), s.Namespace, s.Signature,
			s.Documentation, s.FilePath, s.Line, s.Column, nullString(s.ParentID), meta)
		if err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", s.ID, err)
		}
	}
	return nil
}

func writeReferences(ctx context.Context, q querier, refs []types.Reference) error {
	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO symbol_refs (symbol_id, file_path, line, col, is_definition, container_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare reference insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range refs {
		_, err := stmt.ExecContext(ctx, r.SymbolID, r.FilePath, r.Line, r.Column, r.IsDefinition, nullString(r.ContainerID))
		if err != nil {
			return fmt.Errorf("failed to insert reference to %s: %w", r.SymbolID, err)
		}
	}
	return nil
}

func writeRelations(ctx context.Context, q querier, rels []types.Relation) error {
	stmt, err := q.PrepareContext(ctx, `
		INSERT INTO relations (source_id, target_id, kind, properties)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare relation insert: %w", err)
	}
	defer stmt.Close()

	for i := range rels {
		r := &rels[i]
		props, err := encodeMap(r.Properties)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, r.SourceID, r.TargetID, string(r.Kind), props); err != nil {
			return fmt.Errorf("failed to insert relation %s -> %s: %w", r.SourceID, r.TargetID, err)
		}
	}
	return nil
}

// writeStats stores per-language, per-kind counters derived from the snapshot
func writeStats(ctx context.Context, q querier, snap types.Snapshot) error {
	counters := map[string]int{
		"files":      len(snap.Files),
		"symbols":    len(snap.Symbols),
		"references": len(snap.References),
		"relations":  len(snap.Relations),
		"roots":      len(snap.Roots),
	}
	for _, f := range snap.Files {
		counters["files."+f.Language]++
	}
	for _, s := range snap.Symbols {
		counters["symbols."+string(s.Kind)]++
	}
	for _, r := range snap.Relations {
		counters["relations."+string(r.Kind)]++
	}

	for _, name := range slices.Sorted(maps.Keys(counters)) {
		if _, err := q.ExecContext(ctx, "INSERT INTO stats (name, value) VALUES (?, ?)", name, counters[name]); err != nil {
			return fmt.Errorf("failed to write stat %s: %w", name, err)
		}
	}
	return nil
}

func encodeMap(m map[string]string) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
