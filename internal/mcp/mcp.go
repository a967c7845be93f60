// Package mcp provides the xarmour MCP server, exposing the block
// pipeline as tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/minfrin/xarmour"
	"github.com/minfrin/xarmour/internal/config"
	"github.com/minfrin/xarmour/internal/report"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg    *config.Config
	store  report.Store
	logger *log.Logger

	mu        sync.Mutex
	workspace string
}

// NewServer creates an MCP server with all xarmour tools registered.
// Commands run inside workspace.
func NewServer(cfg *config.Config, store report.Store, workspace string, opts ...ServerOption) *mcp.Server {
	var so serverOptions
	for _, o := range opts {
		o(&so)
	}
	h := &handler{
		cfg:       cfg,
		workspace: workspace,
		store:     store,
		logger:    so.logger,
	}
	if h.logger == nil {
		h.logger = log.New(io.Discard)
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: xarmour.Name, Version: xarmour.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "xarmour_run",
		Description: `Split armoured text (PEM or PGP blocks) and pass each block to a command on stdin.

Each block, including its BEGIN and END lines, is streamed to a fresh run of the command.
Without times the run stops at the first failing command; with times every block is
processed and the run passes when at least that many commands succeeded.
Results are stored for drill-down via xarmour_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "xarmour_inspect",
		Description: `Show the stored details of blocks from an xarmour_run result, including captured output.

Select blocks by label, by index, or omit both to list every block of the run.`,
	}, h.inspectHandler)

	return s
}

// ServerOption configures the xarmour MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger *log.Logger
}

// WithLogger attaches a logger to the server.
func WithLogger(l *log.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// updateWorkspaceFromRoots queries the client for MCP roots and moves the
// workspace to the first file root, if any. This is called during session
// initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	h.mu.Lock()
	h.workspace = u.Path
	h.mu.Unlock()
	h.logger.Debug("workspace from roots", "path", u.Path)
}

func (h *handler) currentWorkspace() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.workspace
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
