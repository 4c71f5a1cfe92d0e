package parser

import (
	"slices"
	"sync"

	"github.com/dshills/codeindex/internal/index"
)

// Registry maps language ids to parsers. It implements index.ParserFactory.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]index.Parser
}

// NewRegistry returns a registry with the Go parser registered under "go"
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]index.Parser)}
	r.Register("go", New())
	return r
}

// Register installs p for languageID, replacing any earlier parser
func (r *Registry) Register(languageID string, p index.Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[languageID] = p
}

// CreateParserForLanguage returns the parser for languageID
func (r *Registry) CreateParserForLanguage(languageID string) (index.Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[languageID]
	return p, ok
}

// Languages lists the language ids that have a parser, sorted
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.parsers))
	for id := range r.parsers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
