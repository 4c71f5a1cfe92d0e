// Package langdetect maps source files to languages and decides which files
// the indexer skips.
//
// Detection tries, in order: special filenames (Makefile-style names such as
// "Gemfile"), the lower-cased extension, the shebang interpreter, and a few
// content heuristics. Ignore rules cover binary extensions, well known build
// and dependency directories, doublestar globs and, optionally, .gitignore
// files.
//
//	d := langdetect.New(&langdetect.Options{RespectGitignore: true})
//	if !d.ShouldIgnoreFile(path) {
//	    lang, ok := d.DetectLanguageFromPath(path)
//	}
package langdetect
