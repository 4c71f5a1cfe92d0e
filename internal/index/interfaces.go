package index

import (
	"github.com/dshills/codeindex/pkg/types"
)

// LanguageDetector decides which files are indexed and in which language.
// Implementations must be safe for concurrent use; the indexer calls them without locking.
type LanguageDetector interface {
	ShouldIgnoreFile(path string) bool
	DetectLanguageFromPath(path string) (types.LanguageInfo, bool)
	DetectLanguageFromContent(content []byte, path string) (types.LanguageInfo, bool)
}

// ParserFactory hands out a parser for a language id
type ParserFactory interface {
	CreateParserForLanguage(languageID string) (Parser, bool)
}

// Parser extracts symbols, references and relations from one file.
//
// A nil content slice means the parser reads the file itself. Failures are
// returned as an error wrapping types.ErrParseFailed.
type Parser interface {
	ParseFile(path string, content []byte) (*types.ParseOutcome, error)
}

// SnippetProvider renders source lines around a location for search results
type SnippetProvider interface {
	Snippet(path string, line int) string
	Invalidate(path string)
	Purge()
}
