// Package mcp implements the Model Context Protocol (MCP) server for codeindex.
//
// The server exposes the in-memory index to AI coding assistants as tools:
//   - add_root, remove_root, list_roots: manage the indexed directories
//   - search_code: substring search over symbol names, then file paths
//   - find_symbols, get_symbol: look symbols up by name, kind, file or id
//   - get_references, get_relations: walk references and the relation graph
//   - list_files: list indexed files, optionally by language
//   - get_status, reindex: inspect and restart indexing
//   - export_index: write a snapshot to a SQLite database
//
// # Protocol Overview
//
// MCP is JSON-RPC 2.0 over stdio. Stdout carries protocol messages only, so
// logging goes to stderr:
//
//	Client → Server: {"method": "tools/call", "params": {"name": "search_code", "arguments": {"query": "Cart"}}}
//	Server → Client: {"result": {"content": [{"type": "text", "text": "{...}"}]}}
//
// Every tool answers with a single text content holding an indented JSON
// object.
//
// # Basic Usage
//
//	ix := index.New(langdetect.New(nil), parser.NewRegistry(), nil)
//	s, err := mcp.NewServer(ix, &mcp.Options{ExportPath: "/tmp/index.db"})
//	if err != nil {
//	    return err
//	}
//	return s.Serve(ctx)
//
// # Error Handling
//
// Handlers return *MCPError values. Codes:
//   - -32602: Invalid params (missing or invalid arguments, bad root)
//   - -32603: Internal error
//   - -32001: Root not registered
//   - -32002: Indexing in progress (reindex while work is queued)
//   - -32003: Symbol not found
//   - -32004: Empty search query
//   - -32005: Export already running
package mcp
