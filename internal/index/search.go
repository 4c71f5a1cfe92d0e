package index

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/dshills/codeindex/pkg/types"
)

// Search matches query as a case-sensitive substring of symbol names and
// then of file paths. Symbol hits always come first; file hits fill whatever
// room maxResults leaves. A non-positive maxResults yields no results.
func (ix *Indexer) Search(query string, maxResults int) []types.SearchResult {
	if maxResults <= 0 {
		return nil
	}

	ix.mu.RLock()
	symbols := ix.substringMatchesLocked(query, maxResults)

	var paths []string
	if room := maxResults - len(symbols); room > 0 {
		for path := range ix.data.files {
			if strings.Contains(path, query) {
				paths = append(paths, path)
			}
		}
		slices.Sort(paths)
		if len(paths) > room {
			paths = paths[:room]
		}
	}
	ix.mu.RUnlock()

	results := make([]types.SearchResult, 0, len(symbols)+len(paths))
	for _, sym := range symbols {
		res := types.SearchResult{
			Type:     types.ResultSymbol,
			SymbolID: sym.ID,
			FilePath: sym.FilePath,
			Line:     sym.Line,
			Column:   sym.Column,
			Name:     sym.Name,
			Kind:     string(sym.Kind),
		}
		// Snippets read from disk, so they are rendered outside the data lock
		if ix.snippets != nil {
			res.Snippet = ix.snippets.Snippet(sym.FilePath, sym.Line)
		}
		results = append(results, res)
	}
	for _, path := range paths {
		results = append(results, types.SearchResult{
			Type:     types.ResultFile,
			FilePath: path,
			Name:     filepath.Base(path),
			Kind:     string(types.ResultFile),
		})
	}

	return results
}
