package types

import (
	"maps"
	"slices"
)

// Reference is one occurrence of a symbol at a file location
type Reference struct {
	SymbolID     string
	FilePath     string
	Line         int
	Column       int
	IsDefinition bool
	ContainerID  string // Enclosing symbol, empty at file scope
}

// Key identifies a reference; two references with the same key are the same occurrence
func (r Reference) Key() ReferenceKey {
	return ReferenceKey{SymbolID: r.SymbolID, FilePath: r.FilePath, Line: r.Line, Column: r.Column}
}

// ReferenceKey is the identity of a reference
type ReferenceKey struct {
	SymbolID string
	FilePath string
	Line     int
	Column   int
}

// RelationKind is the type of a directed edge between two symbols
type RelationKind string

const (
	// RelationAny matches every kind when used as a query filter
	RelationAny RelationKind = ""

	RelationUnknown      RelationKind = "unknown"
	RelationCalls        RelationKind = "calls"
	RelationInheritsFrom RelationKind = "inherits_from"
	RelationContains     RelationKind = "contains"
	RelationImplements   RelationKind = "implements"
	RelationUses         RelationKind = "uses"
	RelationOverrides    RelationKind = "overrides"
	RelationDependsOn    RelationKind = "depends_on"
)

// AllRelationKinds lists every concrete relation kind
var AllRelationKinds = []RelationKind{
	RelationUnknown, RelationCalls, RelationInheritsFrom, RelationContains,
	RelationImplements, RelationUses, RelationOverrides, RelationDependsOn,
}

// ParseRelationKind converts a string to a RelationKind. The empty string maps to RelationAny.
func ParseRelationKind(s string) (RelationKind, bool) {
	if s == "" {
		return RelationAny, true
	}
	k := RelationKind(s)
	return k, slices.Contains(AllRelationKinds, k)
}

// Relation is a directed semantic edge between two symbols
type Relation struct {
	SourceID   string
	TargetID   string
	Kind       RelationKind
	Properties map[string]string
}

// Key identifies a relation in the flat relation table
func (r Relation) Key() RelationKey {
	return RelationKey{SourceID: r.SourceID, TargetID: r.TargetID, Kind: r.Kind}
}

// RelationKey is the identity of a relation
type RelationKey struct {
	SourceID string
	TargetID string
	Kind     RelationKind
}

// Clone returns a deep copy of the relation
func (r Relation) Clone() Relation {
	r.Properties = maps.Clone(r.Properties)
	return r
}
