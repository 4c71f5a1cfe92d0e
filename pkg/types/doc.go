// Package types provides the shared data model of the codeindex engine.
//
// These types cross package boundaries: parsers produce them, the index stores
// them, and the MCP server and exporter consume them.
//
// # Core Types
//
// Symbol is a named program entity (function, class, field, ...) extracted from
// a source file. Its ID is assigned by the parser and must be stable across
// re-parses of unchanged content:
//
//	sym := types.Symbol{
//	    ID:       "pkg/util::util.Parse",
//	    Name:     "Parse",
//	    Kind:     types.KindFunction,
//	    FilePath: "/src/pkg/util/parse.go",
//	    Line:     12,
//	}
//
// Reference is one occurrence of a symbol at a location, optionally the
// definition site. Relation is a directed edge between two symbols:
//
//	rel := types.Relation{
//	    SourceID: caller.ID,
//	    TargetID: callee.ID,
//	    Kind:     types.RelationCalls,
//	}
//
// FileRecord is the registry entry for an indexed file. Its Symbols slice is
// always exactly the set of ids extracted on the most recent successful parse.
//
// # Parsing
//
// ParseOutcome is the result a parser returns for one file. Parsers report
// failure through an error wrapping ErrParseFailed rather than a flag:
//
//	outcome, err := p.ParseFile(path, nil)
//	if errors.Is(err, types.ErrParseFailed) {
//	    // skip the file
//	}
//
// # Values, not pointers
//
// Query methods hand out deep copies (see Symbol.Clone, FileRecord.Clone), so
// callers may keep or mutate results without synchronizing with the index.
package types
