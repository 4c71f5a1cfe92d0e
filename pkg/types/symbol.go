package types

import (
	"fmt"
	"maps"
	"slices"
)

// SymbolKind represents the kind of a named program entity
type SymbolKind string

const (
	KindUnknown   SymbolKind = "unknown"
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindStruct    SymbolKind = "struct"
	KindVariable  SymbolKind = "variable"
	KindField     SymbolKind = "field"
	KindEnum      SymbolKind = "enum"
	KindInterface SymbolKind = "interface"
	KindNamespace SymbolKind = "namespace"
	KindModule    SymbolKind = "module"
	KindPackage   SymbolKind = "package"
	KindFile      SymbolKind = "file"
)

// AllSymbolKinds lists every valid kind in declaration order
var AllSymbolKinds = []SymbolKind{
	KindUnknown, KindFunction, KindMethod, KindClass, KindStruct, KindVariable,
	KindField, KindEnum, KindInterface, KindNamespace, KindModule, KindPackage, KindFile,
}

// ParseSymbolKind converts a string to a SymbolKind, falling back to KindUnknown
func ParseSymbolKind(s string) SymbolKind {
	k := SymbolKind(s)
	if k.Valid() {
		return k
	}
	return KindUnknown
}

// Valid reports whether k is one of the known kinds
func (k SymbolKind) Valid() bool {
	return slices.Contains(AllSymbolKinds, k)
}

// Symbol represents a named program entity extracted from source text
type Symbol struct {
	// Identification
	ID        string
	Name      string
	Kind      SymbolKind
	Namespace string // Package or namespace the symbol lives in

	// Content
	Signature     string
	Documentation string

	// Location
	FilePath string
	Line     int
	Column   int

	// Hierarchy
	ParentID string // Empty when the symbol has no parent
	ChildIDs []string

	Metadata map[string]string
}

// HasParent returns true if the symbol is nested in another symbol
func (s *Symbol) HasParent() bool {
	return s.ParentID != ""
}

// Validate checks the fields every indexed symbol must carry
func (s *Symbol) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: symbol id is required", ErrInvalidSymbol)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: symbol name is required", ErrInvalidSymbol)
	}
	if s.FilePath == "" {
		return fmt.Errorf("%w: symbol file path is required", ErrInvalidSymbol)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("%w: invalid symbol kind", ErrInvalidSymbol)
	}
	if s.ParentID == s.ID {
		return fmt.Errorf("%w: symbol cannot be its own parent", ErrInvalidSymbol)
	}
	return nil
}

// Clone returns a deep copy of the symbol
func (s Symbol) Clone() Symbol {
	s.ChildIDs = slices.Clone(s.ChildIDs)
	s.Metadata = maps.Clone(s.Metadata)
	return s
}
