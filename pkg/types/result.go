package types

// SearchResultType distinguishes symbol hits from file hits
type SearchResultType string

const (
	ResultSymbol SearchResultType = "symbol"
	ResultFile   SearchResultType = "file"
)

// SearchResult is a single hit returned by a substring search
type SearchResult struct {
	Type     SearchResultType
	SymbolID string // Empty for file results
	FilePath string
	Line     int
	Column   int
	Name     string
	Kind     string // Symbol kind, or "file"
	Snippet  string // Code around the symbol, empty for file results
}

// Validate checks if the search result is well formed
func (sr *SearchResult) Validate() error {
	switch sr.Type {
	case ResultSymbol:
		if sr.SymbolID == "" {
			return ErrMissingSymbolID
		}
	case ResultFile:
		if sr.SymbolID != "" {
			return ErrUnexpectedSymbolID
		}
	default:
		return ErrInvalidResultType
	}

	if sr.FilePath == "" {
		return ErrMissingFilePath
	}

	return nil
}
