package snippet

import (
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultContextLines is the number of lines shown on each side of the target
	DefaultContextLines = 3

	// DefaultCacheSize bounds the number of rendered snippets kept in memory
	DefaultCacheSize = 1024

	targetMarker = "-> "
	plainMarker  = "   "
)

type cacheKey struct {
	path string
	line int
}

// Provider renders numbered source lines around a location and caches the result
type Provider struct {
	contextLines int
	cache        *lru.Cache[cacheKey, string]
}

// New creates a Provider. Non-positive arguments fall back to the defaults,
// except contextLines == 0 which renders only the target line.
func New(contextLines, cacheSize int) (*Provider, error) {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	cache, err := lru.New[cacheKey, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create snippet cache: %w", err)
	}

	return &Provider{contextLines: contextLines, cache: cache}, nil
}

// Snippet returns the lines around line (1-based) of path, each prefixed with
// its number and the target line marked with "-> ". Unreadable files and
// out-of-range lines yield an empty string.
func (p *Provider) Snippet(path string, line int) string {
	if line <= 0 {
		return ""
	}

	key := cacheKey{path: path, line: line}
	if s, ok := p.cache.Get(key); ok {
		return s
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	s := render(splitLines(string(content)), line, p.contextLines)
	if s != "" {
		p.cache.Add(key, s)
	}
	return s
}

// Invalidate drops every cached snippet of path
func (p *Provider) Invalidate(path string) {
	for _, key := range p.cache.Keys() {
		if key.path == path {
			p.cache.Remove(key)
		}
	}
}

// Purge drops every cached snippet
func (p *Provider) Purge() {
	p.cache.Purge()
}

// Len returns the number of cached snippets
func (p *Provider) Len() int {
	return p.cache.Len()
}

func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func render(lines []string, line, contextLines int) string {
	if line > len(lines) {
		return ""
	}

	first := max(line-contextLines, 1)
	last := min(line+contextLines, len(lines))

	var b strings.Builder
	for n := first; n <= last; n++ {
		marker := plainMarker
		if n == line {
			marker = targetMarker
		}
		fmt.Fprintf(&b, "%s%d: %s\n", marker, n, lines[n-1])
	}
	return b.String()
}
