// Package parser extracts symbols, references and relations from Go source
// files using go/ast.
//
// # Basic Usage
//
//	p := parser.New()
//	outcome, err := p.ParseFile("/path/to/file.go", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, symbol := range outcome.Symbols {
//	    fmt.Printf("Found %s: %s\n", symbol.Kind, symbol.Name)
//	}
//
// A Registry hands parsers to the indexer by language id:
//
//	reg := parser.NewRegistry()
//	ix := index.New(detector, reg, nil)
//
// # Symbol Ids
//
// Ids are scoped to the package directory so that symbols declared in
// different files of one package resolve to each other:
//
//	/src/app::app.NewServer        // function
//	/src/app::app.Server           // type
//	/src/app::app.Server.Start     // method or field
//	/src/app::app.init@main.go:12  // init functions are per file
//
// # Extracted Data
//
//   - Functions, methods, structs, interfaces, named types, constants and variables
//   - Struct fields and interface methods as child symbols
//   - A definition reference for every symbol, plus references to package level names
//   - contains, inherits_from (embedding), uses (types in signatures and fields)
//     and calls relations
//   - Documentation comments and exported/unexported scope in Metadata
//
// # Domain-Driven Design (DDD) Pattern Detection
//
// Type symbols get Metadata flags based on naming conventions:
//
//	ddd.repository     // "*Repository" or "*Repo" suffix
//	ddd.service        // "*Service" suffix
//	ddd.entity         // "*Entity" suffix or a struct with an "ID" field
//	ddd.aggregate_root // "*Aggregate" suffix
//	ddd.command        // "*Command" suffix (CQRS)
//	ddd.query          // "*Query" suffix (CQRS)
//	ddd.handler        // "*Handler" suffix (CQRS)
//
// # Error Handling
//
// A file with syntax errors yields no symbols. The error is a
// *types.ParseError carrying the first error position and matches
// types.ErrParseFailed with errors.Is.
package parser
