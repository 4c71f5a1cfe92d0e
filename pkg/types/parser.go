package types

// ParseOutcome is everything a parser extracted from one file
type ParseOutcome struct {
	Language   string
	Symbols    []Symbol
	References []Reference
	Relations  []Relation

	// SymbolIDs lists the ids of Symbols in emission order
	SymbolIDs []string

	// Parser-specific extras, e.g. the Go package name
	Metadata map[string]string
}

// AddSymbol appends a symbol and records its id
func (po *ParseOutcome) AddSymbol(sym Symbol) {
	po.Symbols = append(po.Symbols, sym)
	po.SymbolIDs = append(po.SymbolIDs, sym.ID)
}

// AddReference appends a reference
func (po *ParseOutcome) AddReference(ref Reference) {
	po.References = append(po.References, ref)
}

// AddRelation appends a relation
func (po *ParseOutcome) AddRelation(rel Relation) {
	po.Relations = append(po.Relations, rel)
}

// ParseError describes why a parser rejected a file
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	return pe.Message
}

// Unwrap lets errors.Is match ErrParseFailed
func (pe *ParseError) Unwrap() error {
	return ErrParseFailed
}
