//go:build !sqlite_cgo

package export

// This file is compiled by default. It uses a pure Go SQLite implementation
// and needs no C compiler.
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
