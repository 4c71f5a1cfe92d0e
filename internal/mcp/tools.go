package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codeindex/internal/export"
	"github.com/dshills/codeindex/internal/index"
	"github.com/dshills/codeindex/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeRootNotFound       = -32001 // Path is not a registered root
	ErrorCodeIndexingInProgress = -32002 // Queued indexing work has not finished
	ErrorCodeSymbolNotFound     = -32003 // No symbol with the given id
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeExportInProgress   = -32005 // Another export_index call is running
)

// get_relations directions
const (
	directionOutgoing = "outgoing"
	directionIncoming = "incoming"
	directionBoth     = "both"
)

// handleAddRoot handles the add_root tool invocation
func (s *Server) handleAddRoot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	path, err = absPath("path", path)
	if err != nil {
		return nil, err
	}

	if err := s.index.AddRootDirectory(path); err != nil {
		return nil, indexError("failed to add root", err)
	}

	response := map[string]interface{}{
		"added": true,
		"roots": s.index.GetRootDirectories(),
	}

	if s.watcher != nil {
		if err := s.watcher.AddRoot(path); err != nil {
			s.logger.Printf("watch %s: %v", path, err)
			response["watch_error"] = err.Error()
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRemoveRoot handles the remove_root tool invocation
func (s *Server) handleRemoveRoot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	path, err = absPath("path", path)
	if err != nil {
		return nil, err
	}

	if err := s.index.RemoveRootDirectory(path); err != nil {
		return nil, indexError("failed to remove root", err)
	}
	if s.watcher != nil {
		s.watcher.RemoveRoot(path)
	}

	response := map[string]interface{}{
		"removed": true,
		"roots":   s.index.GetRootDirectories(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListRoots handles the list_roots tool invocation
func (s *Server) handleListRoots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roots := s.index.GetRootDirectories()
	response := map[string]interface{}{
		"count": len(roots),
		"roots": roots,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit, err := s.limit(args)
	if err != nil {
		return nil, err
	}

	hits := s.index.Search(query, limit)
	results := make([]map[string]interface{}, 0, len(hits))
	for _, hit := range hits {
		result := map[string]interface{}{
			"type":   string(hit.Type),
			"name":   hit.Name,
			"kind":   hit.Kind,
			"file":   hit.FilePath,
			"line":   hit.Line,
			"column": hit.Column,
		}
		if hit.SymbolID != "" {
			result["symbol_id"] = hit.SymbolID
		}
		if hit.Snippet != "" {
			result["snippet"] = hit.Snippet
		}
		results = append(results, result)
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFindSymbols handles the find_symbols tool invocation
func (s *Server) handleFindSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	name := getStringDefault(args, "name", "")
	exact := getBoolDefault(args, "exact", false)
	kindArg := getStringDefault(args, "kind", "")
	file := getStringDefault(args, "file", "")
	if name == "" && kindArg == "" && file == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "one of name, kind or file is required", nil)
	}

	kind := types.SymbolKind(kindArg)
	if kindArg != "" && !kind.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid kind", map[string]interface{}{
			"param":   "kind",
			"value":   kindArg,
			"allowed": types.AllSymbolKinds,
		})
	}

	if file != "" {
		if file, err = absPath("file", file); err != nil {
			return nil, err
		}
	}

	limit, err := s.limit(args)
	if err != nil {
		return nil, err
	}

	// Start from the narrowest index, then apply the remaining filters
	var candidates []types.Symbol
	switch {
	case file != "":
		candidates = s.index.FindSymbolsInFile(file)
	case name != "":
		candidates = s.index.FindSymbolsByName(name, exact)
	default:
		candidates = s.index.FindSymbolsByType(kind)
	}

	matched := make([]map[string]interface{}, 0, min(len(candidates), limit))
	total := 0
	for _, sym := range candidates {
		if kindArg != "" && sym.Kind != kind {
			continue
		}
		if name != "" && !nameMatches(sym.Name, name, exact) {
			continue
		}
		total++
		if len(matched) < limit {
			matched = append(matched, symbolJSON(sym))
		}
	}

	response := map[string]interface{}{
		"count":     len(matched),
		"total":     total,
		"truncated": total > len(matched),
		"symbols":   matched,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetSymbol handles the get_symbol tool invocation
func (s *Server) handleGetSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	sym, ok := s.index.GetSymbol(id)
	if !ok {
		return nil, symbolNotFound(id)
	}

	response := symbolJSON(sym)
	if sym.Documentation != "" {
		response["documentation"] = sym.Documentation
	}
	if len(sym.ChildIDs) > 0 {
		response["children"] = sym.ChildIDs
	}
	if len(sym.Metadata) > 0 {
		response["metadata"] = sym.Metadata
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetReferences handles the get_references tool invocation
func (s *Server) handleGetReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	// References may point at ids outside the index, such as another
	// package's symbols; only a completely unknown id is an error
	refs := s.index.GetSymbolReferences(id)
	if _, ok := s.index.GetSymbol(id); !ok && len(refs) == 0 {
		return nil, symbolNotFound(id)
	}

	out := make([]map[string]interface{}, 0, len(refs))
	for _, ref := range refs {
		r := map[string]interface{}{
			"file":       ref.FilePath,
			"line":       ref.Line,
			"column":     ref.Column,
			"definition": ref.IsDefinition,
		}
		if ref.ContainerID != "" {
			r["container"] = ref.ContainerID
		}
		out = append(out, r)
	}

	response := map[string]interface{}{
		"id":         id,
		"count":      len(out),
		"references": out,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetRelations handles the get_relations tool invocation
func (s *Server) handleGetRelations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	kindArg := getStringDefault(args, "kind", "")
	kind, ok := types.ParseRelationKind(kindArg)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid kind", map[string]interface{}{
			"param":   "kind",
			"value":   kindArg,
			"allowed": types.AllRelationKinds,
		})
	}

	direction := getStringDefault(args, "direction", directionOutgoing)
	var outgoing, incoming []types.Relation
	switch direction {
	case directionOutgoing:
		outgoing = s.index.GetSymbolRelations(id, kind, false)
	case directionIncoming:
		incoming = s.index.GetSymbolRelations(id, kind, true)
	case directionBoth:
		outgoing = s.index.GetSymbolRelations(id, kind, false)
		incoming = s.index.GetSymbolRelations(id, kind, true)
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid direction", map[string]interface{}{
			"param":   "direction",
			"value":   direction,
			"allowed": []string{directionOutgoing, directionIncoming, directionBoth},
		})
	}

	if _, ok := s.index.GetSymbol(id); !ok && len(outgoing)+len(incoming) == 0 {
		return nil, symbolNotFound(id)
	}

	response := map[string]interface{}{
		"id":        id,
		"direction": direction,
	}
	if direction != directionIncoming {
		response["outgoing"] = relationsJSON(outgoing)
	}
	if direction != directionOutgoing {
		response["incoming"] = relationsJSON(incoming)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListFiles handles the list_files tool invocation
func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	var files []types.FileRecord
	language := getStringDefault(args, "language", "")
	if language != "" {
		files = s.index.FindFilesByLanguage(language)
	} else {
		files = s.index.GetAllFiles()
	}

	out := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]interface{}{
			"path":       f.Path,
			"language":   f.Language,
			"size_bytes": f.SizeBytes,
			"hash":       f.Hash,
			"indexed_at": f.IndexedAt.Format(time.RFC3339),
			"symbols":    len(f.Symbols),
		})
	}

	response := map[string]interface{}{
		"count": len(out),
		"files": out,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.index.Stats()

	statistics := map[string]interface{}{
		"files_scanned":    stats.FilesScanned,
		"files_indexed":    stats.FilesIndexed,
		"files_skipped":    stats.FilesSkipped,
		"files_failed":     stats.FilesFailed,
		"files_removed":    stats.FilesRemoved,
		"symbols":          stats.Symbols,
		"references":       stats.References,
		"relations":        stats.Relations,
		"tasks_processed":  stats.TasksProcessed,
		"panics_recovered": stats.PanicsRecovered,
	}
	if !stats.LastUpdate.IsZero() {
		statistics["last_update"] = stats.LastUpdate.Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"state":      s.index.State().String(),
		"indexing":   s.index.IsIndexing(),
		"progress":   s.index.GetIndexingProgress(),
		"roots":      s.index.GetRootDirectories(),
		"watching":   s.watcher != nil,
		"statistics": statistics,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleReindex handles the reindex tool invocation
func (s *Server) handleReindex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	incremental := getBoolDefault(args, "incremental", true)

	if err := s.index.Reindex(incremental); err != nil {
		return nil, indexError("reindex failed", err)
	}

	response := map[string]interface{}{
		"started":     true,
		"incremental": incremental,
		"roots":       s.index.GetRootDirectories(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleExportIndex handles the export_index tool invocation
func (s *Server) handleExportIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	path := getStringDefault(args, "path", s.exportPath)
	if path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing and no default export path configured",
		})
	}
	wait := getBoolDefault(args, "wait", true)

	if !s.exportLock.TryAcquire() {
		return nil, newMCPError(ErrorCodeExportInProgress, "another export is already running", nil)
	}
	defer s.exportLock.Release()

	if wait {
		if err := s.index.WaitIdle(ctx); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "export cancelled while waiting for indexing", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	start := time.Now()
	counts, err := s.writeExport(ctx, path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "export failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"path":        path,
		"files":       counts.Files,
		"symbols":     counts.Symbols,
		"references":  counts.References,
		"relations":   counts.Relations,
		"complete":    !s.index.IsIndexing(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// writeExport snapshots the index into the SQLite database at path
func (s *Server) writeExport(ctx context.Context, path string) (export.Counts, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return export.Counts{}, fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	exp, err := export.Open(ctx, path)
	if err != nil {
		return export.Counts{}, err
	}
	defer func() { _ = exp.Close() }()

	if err := exp.Write(ctx, s.index.Snapshot()); err != nil {
		return export.Counts{}, err
	}
	return exp.Counts(ctx)
}

// limit reads the limit argument, bounded by the server's maximum
func (s *Server) limit(args map[string]interface{}) (int, error) {
	limit := getIntDefault(args, "limit", s.maxResults)
	if limit < 1 || limit > s.maxResults {
		return 0, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", s.maxResults), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	return limit, nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// indexError maps indexer sentinel errors onto MCP error codes
func indexError(message string, err error) error {
	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, index.ErrInvalidRoot):
		return newMCPError(ErrorCodeInvalidParams, message, map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	case errors.Is(err, index.ErrRootNotFound):
		return newMCPError(ErrorCodeRootNotFound, message, data)
	case errors.Is(err, index.ErrIndexingInProgress):
		return newMCPError(ErrorCodeIndexingInProgress, message, data)
	default:
		return newMCPError(ErrorCodeInternalError, message, data)
	}
}

func symbolNotFound(id string) error {
	return newMCPError(ErrorCodeSymbolNotFound, "symbol not found", map[string]interface{}{
		"id": id,
	})
}

// arguments extracts the argument object; a call without arguments yields an empty map
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// requireString extracts a mandatory non-empty string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || strings.TrimSpace(val) == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// absPath resolves a path argument against the working directory
func absPath(key, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid "+key, map[string]interface{}{
			"param":  key,
			"value":  path,
			"reason": err.Error(),
		})
	}
	return abs, nil
}

func nameMatches(name, query string, exact bool) bool {
	if exact {
		return name == query
	}
	return strings.Contains(name, query)
}

func symbolJSON(sym types.Symbol) map[string]interface{} {
	out := map[string]interface{}{
		"id":     sym.ID,
		"name":   sym.Name,
		"kind":   string(sym.Kind),
		"file":   sym.FilePath,
		"line":   sym.Line,
		"column": sym.Column,
	}
	if sym.Namespace != "" {
		out["namespace"] = sym.Namespace
	}
	if sym.Signature != "" {
		out["signature"] = sym.Signature
	}
	if sym.ParentID != "" {
		out["parent_id"] = sym.ParentID
	}
	return out
}

func relationsJSON(rels []types.Relation) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rels))
	for _, rel := range rels {
		r := map[string]interface{}{
			"source": rel.SourceID,
			"target": rel.TargetID,
			"kind":   string(rel.Kind),
		}
		if len(rel.Properties) > 0 {
			r["properties"] = rel.Properties
		}
		out = append(out, r)
	}
	return out
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
