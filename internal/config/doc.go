// Package config loads runtime settings from a TOML file and environment
// variables.
//
// Example file:
//
//	roots = ["~/src/project"]
//
//	[index]
//	ignore = ["**/testdata/**"]
//	respect_gitignore = true
//
//	[search]
//	max_results = 50
//	snippet_lines = 3
//
//	[export]
//	path = "~/.codeindex/index.db"
//
//	[watch]
//	enabled = true
//	debounce_ms = 100
//
// FromEnv reads the file named by CODEINDEX_CONFIG, then applies
// CODEINDEX_ROOTS, CODEINDEX_EXPORT_PATH and CODEINDEX_WATCH on top.
package config
