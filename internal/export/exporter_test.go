package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/codeindex/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Exporter {
	t.Helper()
	// Use in-memory database for testing
	e, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func sampleSnapshot() types.Snapshot {
	return types.Snapshot{
		TakenAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Roots:   []string{"/src"},
		Files: []types.FileRecord{
			{Path: "/src/a.go", Language: "go", SizeBytes: 42, Hash: "00000000deadbeef", IndexedAt: time.Now(),
				Symbols: []string{"a.Foo", "a.Foo.Bar"}, Metadata: map[string]string{types.MetaLanguage: "go"}},
			{Path: "/src/b.cpp", Language: "cpp", SizeBytes: 7, Hash: "0000000000000001", IndexedAt: time.Now()},
		},
		Symbols: []types.Symbol{
			{ID: "a.Foo", Name: "Foo", Kind: types.KindStruct, FilePath: "/src/a.go", Line: 3, Column: 6,
				ChildIDs: []string{"a.Foo.Bar"}, Metadata: map[string]string{"scope": "exported"}},
			{ID: "a.Foo.Bar", Name: "Bar", Kind: types.KindMethod, FilePath: "/src/a.go", Line: 5, Column: 1, ParentID: "a.Foo"},
			{ID: "b.main", Name: "main", Kind: types.KindFunction, FilePath: "/src/b.cpp", Line: 1, Column: 1},
		},
		References: []types.Reference{
			{SymbolID: "a.Foo", FilePath: "/src/a.go", Line: 3, Column: 6, IsDefinition: true},
			{SymbolID: "a.Foo", FilePath: "/src/b.cpp", Line: 2, Column: 3, ContainerID: "b.main"},
		},
		Relations: []types.Relation{
			{SourceID: "a.Foo", TargetID: "a.Foo.Bar", Kind: types.RelationContains},
			{SourceID: "b.main", TargetID: "a.Foo.Bar", Kind: types.RelationCalls},
		},
	}
}

func TestOpen(t *testing.T) {
	e := setupTestDB(t)

	v, err := e.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
	assert.Equal(t, ":memory:", e.Path())
}

func TestWrite(t *testing.T) {
	e := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, e.Write(ctx, sampleSnapshot()))

	c, err := e.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Files: 2, Symbols: 3, References: 2, Relations: 2}, c)

	var parent, meta string
	err = e.db.QueryRowContext(ctx, "SELECT parent_id FROM symbols WHERE id = ?", "a.Foo.Bar").Scan(&parent)
	require.NoError(t, err)
	assert.Equal(t, "a.Foo", parent)

	err = e.db.QueryRowContext(ctx, "SELECT metadata FROM symbols WHERE id = ?", "a.Foo").Scan(&meta)
	require.NoError(t, err)
	assert.JSONEq(t, `{"scope":"exported"}`, meta)

	n, ok, err := e.Stat(ctx, "relations.calls")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok, err = e.Stat(ctx, "files.cpp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok, err = e.Stat(ctx, "symbols.enum")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrite_ReplacesContent(t *testing.T) {
	e := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, e.Write(ctx, sampleSnapshot()))

	smaller := sampleSnapshot()
	smaller.Files = smaller.Files[:1]
	smaller.Symbols = smaller.Symbols[:2]
	smaller.References = smaller.References[:1]
	smaller.Relations = smaller.Relations[:1]
	require.NoError(t, e.Write(ctx, smaller))

	c, err := e.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Files: 1, Symbols: 2, References: 1, Relations: 1}, c)

	empty := types.Snapshot{TakenAt: time.Now()}
	require.NoError(t, e.Write(ctx, empty))
	c, err = e.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, c)
}

func TestWrite_FailureKeepsPreviousExport(t *testing.T) {
	e := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, e.Write(ctx, sampleSnapshot()))

	broken := sampleSnapshot()
	broken.Symbols = append(broken.Symbols, types.Symbol{
		ID: "ghost", Name: "ghost", Kind: types.KindFunction, FilePath: "/src/missing.go",
	})
	err := e.Write(ctx, broken)
	require.Error(t, err)

	c, err := e.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Symbols)
}

func TestClose(t *testing.T) {
	e, err := Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.ErrorIs(t, e.Write(context.Background(), sampleSnapshot()), ErrNotOpen)
	_, err = e.Counts(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = e.SchemaVersion(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestReopenKeepsExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	e, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, e.Write(ctx, sampleSnapshot()))
	require.NoError(t, e.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	c, err := reopened.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Symbols)
}
