package index

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dshills/codeindex/pkg/types"
)

// GetSymbol returns a copy of the symbol with the given id
func (ix *Indexer) GetSymbol(id string) (types.Symbol, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	sym, ok := ix.data.symbols[id]
	if !ok {
		return types.Symbol{}, false
	}
	return sym.Clone(), true
}

// FindSymbolsByName returns symbols whose name equals name, or contains it
// when exactMatch is false. Results are ordered by name, then id.
func (ix *Indexer) FindSymbolsByName(name string, exactMatch bool) []types.Symbol {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if exactMatch {
		return ix.collectLocked(ix.data.byName[name], byNameThenID)
	}
	return ix.substringMatchesLocked(name, -1)
}

// FindSymbolsByType returns every symbol of the given kind, ordered by name then id
func (ix *Indexer) FindSymbolsByType(kind types.SymbolKind) []types.Symbol {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.collectLocked(ix.data.byKind[kind], byNameThenID)
}

// FindSymbolsInFile returns the symbols owned by path in source order
func (ix *Indexer) FindSymbolsInFile(path string) []types.Symbol {
	path = cleanQueryPath(path)

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.collectLocked(ix.data.byFile[path], byPosition)
}

// GetSymbolReferences returns every recorded occurrence of the symbol,
// ordered by file, line and column
func (ix *Indexer) GetSymbolReferences(id string) []types.Reference {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	keys := ix.data.refsBySymbol[id]
	refs := make([]types.Reference, 0, len(keys))
	for key := range keys {
		if ref, ok := ix.data.references[key]; ok {
			refs = append(refs, ref)
		}
	}
	slices.SortFunc(refs, func(a, b types.Reference) int {
		return cmp.Or(
			cmp.Compare(a.FilePath, b.FilePath),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
		)
	})
	return refs
}

// GetSymbolRelations returns the edges leaving id, or entering it when
// inbound is set. RelationAny disables the kind filter.
func (ix *Indexer) GetSymbolRelations(id string, kind types.RelationKind, inbound bool) []types.Relation {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	index := ix.data.outbound
	if inbound {
		index = ix.data.inbound
	}

	rels := make([]types.Relation, 0, len(index[id]))
	for key := range index[id] {
		if kind != types.RelationAny && key.Kind != kind {
			continue
		}
		if rel, ok := ix.data.relations[key]; ok {
			rels = append(rels, rel.Clone())
		}
	}
	slices.SortFunc(rels, func(a, b types.Relation) int {
		return cmp.Or(
			cmp.Compare(a.SourceID, b.SourceID),
			cmp.Compare(a.TargetID, b.TargetID),
			cmp.Compare(a.Kind, b.Kind),
		)
	})
	return rels
}

// GetAllFiles returns every file record ordered by path
func (ix *Indexer) GetAllFiles() []types.FileRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	files := make([]types.FileRecord, 0, len(ix.data.files))
	for _, rec := range ix.data.files {
		files = append(files, rec.Clone())
	}
	slices.SortFunc(files, func(a, b types.FileRecord) int { return cmp.Compare(a.Path, b.Path) })
	return files
}

// GetFileInfo returns the record for path
func (ix *Indexer) GetFileInfo(path string) (types.FileRecord, bool) {
	path = cleanQueryPath(path)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rec, ok := ix.data.files[path]
	if !ok {
		return types.FileRecord{}, false
	}
	return rec.Clone(), true
}

// FindFilesByLanguage returns the records of every file in language, ordered by path
func (ix *Indexer) FindFilesByLanguage(language string) []types.FileRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	paths := sortedIDs(ix.data.byLanguage[language])
	files := make([]types.FileRecord, 0, len(paths))
	for _, p := range paths {
		if rec, ok := ix.data.files[p]; ok {
			files = append(files, rec.Clone())
		}
	}
	return files
}

// Snapshot returns a deep copy of the whole index
func (ix *Indexer) Snapshot() types.Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	snap := types.Snapshot{
		TakenAt:    time.Now(),
		Roots:      slices.Clone(ix.roots),
		Files:      make([]types.FileRecord, 0, len(ix.data.files)),
		Symbols:    make([]types.Symbol, 0, len(ix.data.symbols)),
		References: make([]types.Reference, 0, len(ix.data.references)),
		Relations:  make([]types.Relation, 0, len(ix.data.relations)),
	}

	for _, path := range slices.Sorted(maps.Keys(ix.data.files)) {
		snap.Files = append(snap.Files, ix.data.files[path].Clone())
	}
	for _, id := range slices.Sorted(maps.Keys(ix.data.symbols)) {
		snap.Symbols = append(snap.Symbols, ix.data.symbols[id].Clone())
	}
	for _, ref := range ix.data.references {
		snap.References = append(snap.References, ref)
	}
	slices.SortFunc(snap.References, func(a, b types.Reference) int {
		return cmp.Or(
			cmp.Compare(a.FilePath, b.FilePath),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.SymbolID, b.SymbolID),
		)
	})
	for _, rel := range ix.data.relations {
		snap.Relations = append(snap.Relations, rel.Clone())
	}
	slices.SortFunc(snap.Relations, func(a, b types.Relation) int {
		return cmp.Or(
			cmp.Compare(a.SourceID, b.SourceID),
			cmp.Compare(a.TargetID, b.TargetID),
			cmp.Compare(a.Kind, b.Kind),
		)
	})
	return snap
}

// substringMatchesLocked returns symbols whose name contains query, ordered
// by name then id. A negative limit means no limit.
func (ix *Indexer) substringMatchesLocked(query string, limit int) []types.Symbol {
	names := make([]string, 0)
	for name := range ix.data.byName {
		if strings.Contains(name, query) {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	var out []types.Symbol
	for _, name := range names {
		for _, id := range sortedIDs(ix.data.byName[name]) {
			if limit >= 0 && len(out) >= limit {
				return out
			}
			if sym, ok := ix.data.symbols[id]; ok {
				out = append(out, sym.Clone())
			}
		}
	}
	return out
}

func (ix *Indexer) collectLocked(ids idSet, order func(a, b types.Symbol) int) []types.Symbol {
	out := make([]types.Symbol, 0, len(ids))
	for id := range ids {
		if sym, ok := ix.data.symbols[id]; ok {
			out = append(out, sym.Clone())
		}
	}
	slices.SortFunc(out, order)
	return out
}

func byNameThenID(a, b types.Symbol) int {
	return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
}

func byPosition(a, b types.Symbol) int {
	return cmp.Or(
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Column, b.Column),
		cmp.Compare(a.ID, b.ID),
	)
}

// cleanQueryPath normalizes a caller supplied path the way stored paths are
func cleanQueryPath(path string) string {
	if p, err := normalizePath(path); err == nil {
		return p
	}
	return path
}
