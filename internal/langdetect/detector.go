package langdetect

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dshills/codeindex/pkg/types"
)

// ErrDuplicateLanguage is returned when registering a language id twice
var ErrDuplicateLanguage = errors.New("language already registered")

// Options tunes what a Detector ignores
type Options struct {
	IgnoreGlobs      []string // Extra doublestar patterns, matched against slash separated paths
	IgnoreExtensions []string // Extra extensions, without the dot
	RespectGitignore bool     // Honor .gitignore files up to the enclosing repository root
}

// Detector maps files to languages and decides which files are skipped.
// It is safe for concurrent use.
type Detector struct {
	mu        sync.RWMutex
	languages map[string]types.LanguageInfo
	byExt     map[string]string
	byName    map[string]string

	ignoreExt  map[string]struct{}
	ignoreDirs map[string]struct{}
	globs      []string

	respectGitignore bool
	gitMu            sync.Mutex
	gitignores       map[string]gitignoreEntry
}

// gitignoreEntry caches what one directory contributes
type gitignoreEntry struct {
	matcher  *ignore.GitIgnore // nil when the directory has no .gitignore
	repoRoot bool              // the directory contains .git
}

// New creates a Detector loaded with the default language and ignore tables
func New(opts *Options) *Detector {
	if opts == nil {
		opts = &Options{}
	}

	d := &Detector{
		languages:        make(map[string]types.LanguageInfo),
		byExt:            make(map[string]string),
		byName:           make(map[string]string),
		ignoreExt:        make(map[string]struct{}),
		ignoreDirs:       make(map[string]struct{}),
		respectGitignore: opts.RespectGitignore,
		gitignores:       make(map[string]gitignoreEntry),
	}

	for _, lang := range DefaultLanguages {
		_ = d.RegisterLanguage(lang)
	}
	for _, ext := range slices.Concat(DefaultIgnoreExtensions, opts.IgnoreExtensions) {
		d.ignoreExt[normalizeExt(ext)] = struct{}{}
	}
	for _, dir := range DefaultIgnoreDirs {
		d.ignoreDirs[dir] = struct{}{}
	}
	for _, g := range slices.Concat(DefaultIgnoreGlobs, opts.IgnoreGlobs) {
		if doublestar.ValidatePattern(g) {
			d.globs = append(d.globs, g)
		}
	}

	return d
}

// RegisterLanguage adds a language and its extension and filename associations
func (d *Detector) RegisterLanguage(info types.LanguageInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.languages[info.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLanguage, info.ID)
	}
	d.languages[info.ID] = info
	for _, ext := range info.Extensions {
		d.byExt[normalizeExt(ext)] = info.ID
	}
	for _, name := range info.Filenames {
		d.byName[name] = info.ID
	}
	return nil
}

// Language returns the registered language with the given id
func (d *Detector) Language(id string) (types.LanguageInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.languages[id]
	return info, ok
}

// Languages returns every registered language ordered by id
func (d *Detector) Languages() []types.LanguageInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]types.LanguageInfo, 0, len(d.languages))
	for _, info := range d.languages {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b types.LanguageInfo) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// ShouldIgnoreFile reports whether path (a file or a directory) is excluded
// from indexing
func (d *Detector) ShouldIgnoreFile(path string) bool {
	if _, ok := d.ignoreExt[normalizeExt(filepath.Ext(path))]; ok {
		return true
	}

	// Only the last element counts; callers check directories before descending
	if _, ok := d.ignoreDirs[filepath.Base(path)]; ok {
		return true
	}

	slashed := strings.TrimPrefix(filepath.ToSlash(path), "/")
	for _, g := range d.globs {
		if ok, _ := doublestar.Match(g, slashed); ok {
			return true
		}
	}

	if d.respectGitignore {
		return d.gitignored(path)
	}
	return false
}

// DetectLanguageFromPath maps a special filename or the extension to a language
func (d *Detector) DetectLanguageFromPath(path string) (types.LanguageInfo, bool) {
	if d.ShouldIgnoreFile(path) {
		return types.LanguageInfo{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if id, ok := d.byName[filepath.Base(path)]; ok {
		return d.languages[id], true
	}
	if id, ok := d.byExt[normalizeExt(filepath.Ext(path))]; ok {
		return d.languages[id], true
	}
	return types.LanguageInfo{}, false
}

// DetectLanguageFromContent falls back to the shebang line and then to
// simple content heuristics when the path alone is not conclusive
func (d *Detector) DetectLanguageFromContent(content []byte, path string) (types.LanguageInfo, bool) {
	if path != "" {
		if info, ok := d.DetectLanguageFromPath(path); ok {
			return info, true
		}
	}
	if len(content) == 0 {
		return types.LanguageInfo{}, false
	}

	id := shebangLanguage(firstLine(content))
	if id == "" {
		id = heuristicLanguage(content)
	}
	if id == "" {
		return types.LanguageInfo{}, false
	}
	return d.Language(id)
}

// ResetGitignoreCache forgets every loaded .gitignore file
func (d *Detector) ResetGitignoreCache() {
	d.gitMu.Lock()
	defer d.gitMu.Unlock()
	clear(d.gitignores)
}

// gitignored checks .gitignore files from the file's directory upwards,
// stopping at the first directory that contains .git
func (d *Detector) gitignored(path string) bool {
	dir := filepath.Dir(path)
	for {
		entry := d.gitignoreFor(dir)
		if entry.matcher != nil {
			rel, err := filepath.Rel(dir, path)
			if err == nil && entry.matcher.MatchesPath(filepath.ToSlash(rel)) {
				return true
			}
		}
		if entry.repoRoot {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

func (d *Detector) gitignoreFor(dir string) gitignoreEntry {
	d.gitMu.Lock()
	defer d.gitMu.Unlock()

	if entry, ok := d.gitignores[dir]; ok {
		return entry
	}

	var entry gitignoreEntry
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(dir, ".gitignore")); err == nil {
		entry.matcher = gi
	}
	if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
		entry.repoRoot = true
	}
	d.gitignores[dir] = entry
	return entry
}

func firstLine(content []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(content))
	if sc.Scan() {
		return sc.Text()
	}
	return ""
}

// shebangLanguage returns the language of a "#!" interpreter line, looking
// through /usr/bin/env
func shebangLanguage(line string) string {
	if !strings.HasPrefix(line, "#!") {
		return ""
	}
	fields := strings.Fields(line[2:])
	if len(fields) == 0 {
		return ""
	}

	interpreter := filepath.Base(fields[0])
	if interpreter == "env" {
		interpreter = ""
		for _, f := range fields[1:] {
			if !strings.HasPrefix(f, "-") {
				interpreter = filepath.Base(f)
				break
			}
		}
	}

	for _, rule := range shebangRules {
		if rule.pattern.MatchString(interpreter) {
			return rule.language
		}
	}
	return ""
}

func heuristicLanguage(content []byte) string {
	for _, h := range heuristics {
		for _, p := range h.patterns {
			if p.Match(content) {
				return h.language
			}
		}
	}
	return ""
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
