package index

import (
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/dshills/codeindex/pkg/types"
)

type (
	idSet  = map[string]struct{}
	refSet = map[types.ReferenceKey]struct{}
	relSet = map[types.RelationKey]struct{}
)

func sortedIDs(set idSet) []string {
	return slices.Sorted(maps.Keys(set))
}

// store holds every index structure. It is not synchronized; the Indexer
// guards it with its data lock.
type store struct {
	// Symbol store
	symbols map[string]*types.Symbol
	byName  map[string]idSet
	byKind  map[types.SymbolKind]idSet
	byFile  map[string]idSet

	// Reference store. refOrigin records which indexed file produced a reference.
	references   map[types.ReferenceKey]types.Reference
	refsBySymbol map[string]refSet
	refOrigin    map[types.ReferenceKey]string
	refsByOrigin map[string]refSet

	// Relation graph. An edge stays while at least one file in relOrigins emits it.
	relations    map[types.RelationKey]types.Relation
	outbound     map[string]relSet
	inbound      map[string]relSet
	relOrigins   map[types.RelationKey]idSet
	relsByOrigin map[string]relSet

	// File registry
	files      map[string]*types.FileRecord
	byLanguage map[string]idSet
}

func newStore() *store {
	return &store{
		symbols:      make(map[string]*types.Symbol),
		byName:       make(map[string]idSet),
		byKind:       make(map[types.SymbolKind]idSet),
		byFile:       make(map[string]idSet),
		references:   make(map[types.ReferenceKey]types.Reference),
		refsBySymbol: make(map[string]refSet),
		refOrigin:    make(map[types.ReferenceKey]string),
		refsByOrigin: make(map[string]refSet),
		relations:    make(map[types.RelationKey]types.Relation),
		outbound:     make(map[string]relSet),
		inbound:      make(map[string]relSet),
		relOrigins:   make(map[types.RelationKey]idSet),
		relsByOrigin: make(map[string]relSet),
		files:        make(map[string]*types.FileRecord),
		byLanguage:   make(map[string]idSet),
	}
}

// fileEntry is what the worker hands to merge for one successfully parsed file
type fileEntry struct {
	path      string
	language  string
	sizeBytes int64
	hash      string
	indexedAt time.Time
	outcome   *types.ParseOutcome
}

// mergeResult reports what merge kept and dropped
type mergeResult struct {
	symbols    int
	references int
	relations  int
	dropped    []string // human readable reasons, for logging
}

// merge replaces everything attributed to e.path with the parse outcome.
// Symbols are always owned by e.path; parent links are kept only when the
// parent comes from the same outcome so a child always lives in its parent's file.
func (s *store) merge(e fileEntry) mergeResult {
	var res mergeResult
	s.removeFile(e.path)

	outcome := e.outcome
	owned := make([]string, 0, len(outcome.Symbols))
	pending := make([]*types.Symbol, 0, len(outcome.Symbols))
	seen := make(map[string]*types.Symbol, len(outcome.Symbols))

	for i := range outcome.Symbols {
		sym := outcome.Symbols[i].Clone()
		sym.FilePath = e.path
		sym.ChildIDs = nil
		if sym.Kind == "" {
			sym.Kind = types.KindUnknown
		}
		if sym.ParentID == sym.ID {
			sym.ParentID = ""
		}
		if err := sym.Validate(); err != nil {
			res.dropped = append(res.dropped, err.Error())
			continue
		}

		if prev, dup := seen[sym.ID]; dup {
			// Last emission wins inside one outcome
			*prev = sym
			continue
		}

		// An id owned by another file moves to this one
		if existing, ok := s.symbols[sym.ID]; ok && existing.FilePath != e.path {
			res.dropped = append(res.dropped, "symbol "+sym.ID+" moved from "+existing.FilePath)
			s.detachSymbol(sym.ID)
		}

		p := &sym
		seen[sym.ID] = p
		pending = append(pending, p)
		owned = append(owned, sym.ID)
	}

	// Parent links only survive inside one outcome
	for _, sym := range pending {
		if sym.ParentID == "" {
			continue
		}
		parent, ok := seen[sym.ParentID]
		if !ok {
			sym.ParentID = ""
			continue
		}
		parent.ChildIDs = append(parent.ChildIDs, sym.ID)
	}

	for _, sym := range pending {
		s.insertSymbol(sym)
	}
	res.symbols = len(pending)

	for _, ref := range outcome.References {
		if ref.FilePath == "" {
			ref.FilePath = e.path
		}
		if ref.SymbolID == "" || ref.FilePath != e.path {
			res.dropped = append(res.dropped, "reference outside "+e.path)
			continue
		}
		s.insertReference(e.path, ref)
		res.references++
	}

	for _, rel := range outcome.Relations {
		if rel.SourceID == "" || rel.TargetID == "" {
			res.dropped = append(res.dropped, "relation with empty endpoint")
			continue
		}
		if rel.Kind == types.RelationAny {
			rel.Kind = types.RelationUnknown
		}
		s.insertRelation(e.path, rel.Clone())
		res.relations++
	}

	rec := &types.FileRecord{
		Path:      e.path,
		Language:  e.language,
		SizeBytes: e.sizeBytes,
		Hash:      e.hash,
		IndexedAt: e.indexedAt,
		Symbols:   owned,
		Metadata:  maps.Clone(outcome.Metadata),
	}
	if rec.Metadata == nil {
		rec.Metadata = make(map[string]string)
	}
	rec.Metadata[types.MetaLastIndexed] = strconv.FormatInt(e.indexedAt.Unix(), 10)
	rec.Metadata[types.MetaLanguage] = e.language
	s.files[e.path] = rec
	addKey(s.byLanguage, e.language, e.path)

	return res
}

func (s *store) insertSymbol(sym *types.Symbol) {
	s.symbols[sym.ID] = sym
	addKey(s.byName, sym.Name, sym.ID)
	addKey(s.byKind, sym.Kind, sym.ID)
	addKey(s.byFile, sym.FilePath, sym.ID)
}

// detachSymbol removes a symbol from every symbol index and from its file's owned set
func (s *store) detachSymbol(id string) {
	sym, ok := s.symbols[id]
	if !ok {
		return
	}
	dropKey(s.byName, sym.Name, id)
	dropKey(s.byKind, sym.Kind, id)
	dropKey(s.byFile, sym.FilePath, id)
	if rec, ok := s.files[sym.FilePath]; ok {
		rec.Symbols = slices.DeleteFunc(rec.Symbols, func(owned string) bool { return owned == id })
	}
	if sym.ParentID != "" {
		if parent, ok := s.symbols[sym.ParentID]; ok {
			parent.ChildIDs = slices.DeleteFunc(parent.ChildIDs, func(c string) bool { return c == id })
		}
	}
	// Children stay in the old file, so they lose their parent link
	for _, childID := range sym.ChildIDs {
		if child, ok := s.symbols[childID]; ok && child.ParentID == id {
			child.ParentID = ""
		}
	}
	delete(s.symbols, id)
	s.sweepRelations(id)
}

func (s *store) insertReference(origin string, ref types.Reference) {
	key := ref.Key()
	if prev, ok := s.refOrigin[key]; ok && prev != origin {
		dropKey(s.refsByOrigin, prev, key)
	}
	s.references[key] = ref
	s.refOrigin[key] = origin
	addKey(s.refsBySymbol, ref.SymbolID, key)
	addKey(s.refsByOrigin, origin, key)
}

func (s *store) deleteReference(key types.ReferenceKey) {
	ref, ok := s.references[key]
	if !ok {
		return
	}
	delete(s.references, key)
	dropKey(s.refsBySymbol, ref.SymbolID, key)
	origin := s.refOrigin[key]
	delete(s.refOrigin, key)
	dropKey(s.refsByOrigin, origin, key)
}

// insertRelation stores rel and adds origin to the files emitting it.
// The latest emission's properties win.
func (s *store) insertRelation(origin string, rel types.Relation) {
	key := rel.Key()
	s.relations[key] = rel
	addKey(s.relOrigins, key, origin)
	addKey(s.outbound, rel.SourceID, key)
	addKey(s.inbound, rel.TargetID, key)
	addKey(s.relsByOrigin, origin, key)
}

// releaseRelation withdraws origin's emission of key and deletes the edge
// once no file emits it.
func (s *store) releaseRelation(origin string, key types.RelationKey) {
	dropKey(s.relsByOrigin, origin, key)
	dropKey(s.relOrigins, key, origin)
	if len(s.relOrigins[key]) == 0 {
		s.deleteRelation(key)
	}
}

// deleteRelation drops the edge regardless of how many files emit it
func (s *store) deleteRelation(key types.RelationKey) {
	if _, ok := s.relations[key]; !ok {
		return
	}
	delete(s.relations, key)
	dropKey(s.outbound, key.SourceID, key)
	dropKey(s.inbound, key.TargetID, key)
	for origin := range s.relOrigins[key] {
		dropKey(s.relsByOrigin, origin, key)
	}
	delete(s.relOrigins, key)
}

// sweepRelations drops every edge touching id
func (s *store) sweepRelations(id string) {
	for key := range s.outbound[id] {
		s.deleteRelation(key)
	}
	for key := range s.inbound[id] {
		s.deleteRelation(key)
	}
}

// removeFile drops the file record and everything attributed to it. It
// reports whether anything was indexed for path.
func (s *store) removeFile(path string) bool {
	rec, hadRecord := s.files[path]
	if hadRecord {
		dropKey(s.byLanguage, rec.Language, path)
		delete(s.files, path)
	}

	symbolIDs := s.byFile[path]
	removed := len(symbolIDs) > 0
	for id := range symbolIDs {
		if sym, ok := s.symbols[id]; ok {
			dropKey(s.byName, sym.Name, id)
			dropKey(s.byKind, sym.Kind, id)
			delete(s.symbols, id)
		}
		s.sweepRelations(id)
	}
	delete(s.byFile, path)

	for key := range s.refsByOrigin[path] {
		s.deleteReference(key)
		removed = true
	}
	for key := range s.relsByOrigin[path] {
		s.releaseRelation(path, key)
		removed = true
	}

	return hadRecord || removed
}

func addKey[K comparable, V comparable](m map[K]map[V]struct{}, key K, v V) {
	set, ok := m[key]
	if !ok {
		set = make(map[V]struct{})
		m[key] = set
	}
	set[v] = struct{}{}
}

func dropKey[K comparable, V comparable](m map[K]map[V]struct{}, key K, v V) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, v)
	if len(set) == 0 {
		delete(m, key)
	}
}

// reset empties every index
func (s *store) reset() {
	*s = *newStore()
}
