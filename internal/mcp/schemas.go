package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func limitProperty(maxResults int) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Maximum number of results to return",
		"minimum":     1,
		"maximum":     maxResults,
		"default":     maxResults,
	}
}

// addRootTool returns the tool definition for add_root
func addRootTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_root",
		Description: "Register a directory for indexing and queue a scan of everything below it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty("Directory to index; relative paths resolve against the server's working directory"),
			},
			Required: []string{"path"},
		},
	}
}

// removeRootTool returns the tool definition for remove_root
func removeRootTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_root",
		Description: "Stop indexing a root directory and drop every file indexed under it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty("Previously registered root directory"),
			},
			Required: []string{"path"},
		},
	}
}

// listRootsTool returns the tool definition for list_roots
func listRootsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_roots",
		Description: "List the registered root directories",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool(maxResults int) mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search symbol names and file paths by case-sensitive substring. Symbol hits come first and carry a code snippet.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Substring to look for in symbol names and file paths",
				},
				"limit": limitProperty(maxResults),
			},
			Required: []string{"query"},
		},
	}
}

// findSymbolsTool returns the tool definition for find_symbols
func findSymbolsTool(maxResults int) mcp.Tool {
	return mcp.Tool{
		Name:        "find_symbols",
		Description: "Find symbols by name, kind or file. At least one filter is required; filters combine.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Symbol name, matched exactly or as a case-sensitive substring",
				},
				"exact": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, name must match exactly",
					"default":     false,
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Symbol kind such as function, method, struct, interface, field, variable",
				},
				"file":  pathProperty("Only symbols defined in this file"),
				"limit": limitProperty(maxResults),
			},
		},
	}
}

// getSymbolTool returns the tool definition for get_symbol
func getSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_symbol",
		Description: "Get a symbol by id, including signature, documentation and children",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Symbol id as returned by search_code or find_symbols",
				},
			},
			Required: []string{"id"},
		},
	}
}

// getReferencesTool returns the tool definition for get_references
func getReferencesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_references",
		Description: "List every recorded reference to a symbol, definitions included",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Symbol id",
				},
			},
			Required: []string{"id"},
		},
	}
}

// getRelationsTool returns the tool definition for get_relations
func getRelationsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_relations",
		Description: "List relations (calls, contains, inherits_from, uses, ...) leaving or entering a symbol",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Symbol id",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Only relations of this kind; empty for all",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "outgoing (symbol is the source), incoming (symbol is the target) or both",
					"enum":        []string{directionOutgoing, directionIncoming, directionBoth},
					"default":     directionOutgoing,
				},
			},
			Required: []string{"id"},
		},
	}
}

// listFilesTool returns the tool definition for list_files
func listFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_files",
		Description: "List indexed files, optionally restricted to one language",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"language": map[string]interface{}{
					"type":        "string",
					"description": "Language id such as go, cpp, python",
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report the indexer state, progress, roots and statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// reindexTool returns the tool definition for reindex
func reindexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reindex",
		Description: "Re-scan every root. A full reindex clears the index first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"incremental": map[string]interface{}{
					"type":        "boolean",
					"description": "If false, drop everything and rebuild from scratch",
					"default":     true,
				},
			},
		},
	}
}

// exportIndexTool returns the tool definition for export_index
func exportIndexTool(defaultPath string) mcp.Tool {
	return mcp.Tool{
		Name:        "export_index",
		Description: "Write a snapshot of the index to a SQLite database, replacing its previous content",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Destination database file",
					"default":     defaultPath,
				},
				"wait": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, wait for pending indexing work before taking the snapshot",
					"default":     true,
				},
			},
		},
	}
}
