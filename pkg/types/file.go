package types

import (
	"maps"
	"slices"
	"time"
)

// Metadata keys written on every FileRecord
const (
	MetaLastIndexed = "last_indexed"
	MetaLanguage    = "language"
)

// FileRecord is the registry entry for one indexed file
type FileRecord struct {
	Path      string
	Language  string
	SizeBytes int64
	Hash      string // xxhash64 of the indexed content, hex encoded
	IndexedAt time.Time

	// Symbols holds the ids extracted on the most recent successful index
	Symbols  []string
	Metadata map[string]string
}

// OwnsSymbol returns true if id is one of the file's symbols
func (f *FileRecord) OwnsSymbol(id string) bool {
	return slices.Contains(f.Symbols, id)
}

// Clone returns a deep copy of the record
func (f FileRecord) Clone() FileRecord {
	f.Symbols = slices.Clone(f.Symbols)
	f.Metadata = maps.Clone(f.Metadata)
	return f
}

// LanguageInfo describes a programming language known to a detector
type LanguageInfo struct {
	ID           string
	Name         string
	Extensions   []string
	Filenames    []string
	LineComment  string
	BlockComment [2]string
}

// Snapshot is a point-in-time deep copy of the whole index
type Snapshot struct {
	TakenAt    time.Time
	Roots      []string
	Files      []FileRecord
	Symbols    []Symbol
	References []Reference
	Relations  []Relation
}
