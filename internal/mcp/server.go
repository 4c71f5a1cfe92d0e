package mcp

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/codeindex/internal/index"
)

const (
	// ServerName is the MCP server name
	ServerName = "codeindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultMaxResults caps search_code and find_symbols when Options leaves it unset
	DefaultMaxResults = 50
)

// ErrNoIndexer is returned by NewServer without an indexer
var ErrNoIndexer = errors.New("indexer is required")

// RootWatcher follows root directories for file changes. *watcher.Watcher implements it.
type RootWatcher interface {
	AddRoot(root string) error
	RemoveRoot(root string)
}

// Options configures a Server
type Options struct {
	MaxResults int         // Upper bound for limit arguments
	ExportPath string      // Default destination of export_index
	Watcher    RootWatcher // Optional; kept in step with add_root and remove_root
	Logger     *log.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp        *server.MCPServer
	index      *index.Indexer
	watcher    RootWatcher
	logger     *log.Logger
	maxResults int
	exportPath string
	exportLock exportLock
}

// NewServer creates a new MCP server instance backed by ix
func NewServer(ix *index.Indexer, opts *Options) (*Server, error) {
	if ix == nil {
		return nil, ErrNoIndexer
	}
	if opts == nil {
		opts = &Options{}
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		mcp:        server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		index:      ix,
		watcher:    opts.Watcher,
		logger:     logger,
		maxResults: maxResults,
		exportPath: opts.ExportPath,
	}

	s.registerTools()

	return s, nil
}

// Serve runs the MCP protocol on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO runs the MCP protocol over the given streams
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger)
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Roots
	s.mcp.AddTool(addRootTool(), s.handleAddRoot)
	s.mcp.AddTool(removeRootTool(), s.handleRemoveRoot)
	s.mcp.AddTool(listRootsTool(), s.handleListRoots)

	// Queries
	s.mcp.AddTool(searchCodeTool(s.maxResults), s.handleSearchCode)
	s.mcp.AddTool(findSymbolsTool(s.maxResults), s.handleFindSymbols)
	s.mcp.AddTool(getSymbolTool(), s.handleGetSymbol)
	s.mcp.AddTool(getReferencesTool(), s.handleGetReferences)
	s.mcp.AddTool(getRelationsTool(), s.handleGetRelations)
	s.mcp.AddTool(listFilesTool(), s.handleListFiles)

	// Maintenance
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(reindexTool(), s.handleReindex)
	s.mcp.AddTool(exportIndexTool(s.exportPath), s.handleExportIndex)
}
