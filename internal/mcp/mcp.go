// Package mcp provides the secmcp MCP server, registering one tool per
// catalog entry plus the web lookups, and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/deixis/secmcp"
	"github.com/deixis/secmcp/internal/catalog"
	"github.com/deixis/secmcp/internal/config"
	"github.com/deixis/secmcp/internal/runner"
	"github.com/deixis/secmcp/internal/webapi"
)

//go:embed instructions.md
var Instructions string

// Executor runs one invocation. Implemented by runner.Runner and runner.Pool.
type Executor interface {
	Run(ctx context.Context, inv runner.Invocation) *runner.Result
}

// WebLookup performs the outbound HTTP lookups. Implemented by webapi.Client.
type WebLookup interface {
	CertificateNames(ctx context.Context, domain string) ([]string, error)
	NucleiTags(ctx context.Context, limit int) ([]string, error)
	SecurityHeaders(ctx context.Context, url string) (*webapi.HeaderReport, error)
}

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg      *config.Config
	registry *catalog.Registry
	exec     Executor
	web      WebLookup
	logger   zerolog.Logger
}

// NewServer creates an MCP server exposing every tool in registry.
func NewServer(cfg *config.Config, registry *catalog.Registry, exec Executor, web WebLookup, logger zerolog.Logger) *mcp.Server {
	if cfg == nil {
		cfg = &config.Config{}
	}
	h := &handler{
		cfg:      cfg,
		registry: registry,
		exec:     exec,
		web:      web,
		logger:   logger,
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "secmcp", Version: secmcp.Version}, opts)

	registerScannerTools(s, h)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "do_crtsh",
		Description: "Query crt.sh certificate transparency logs to find subdomains of a domain.",
	}, h.crtshHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_nuclei_tags",
		Description: "Get available nuclei template tags from the official templates repository.",
	}, h.nucleiTagsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "check_http_headers",
		Description: "Check which HTTP security headers a URL returns.",
	}, h.headersHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_available_tools",
		Description: "List every tool exposed by this server and whether its binary is installed.",
	}, h.listToolsHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "run_tool",
		Description: `Run one of the server's scanner binaries with a raw argument vector.

Use this when a do_* tool does not expose the flags you need. Only binaries
backing a registered tool may be run. Arguments are passed verbatim; no shell
is involved.`,
	}, h.runToolHandler)

	return s
}

// HTTPHandler serves server over the streamable HTTP transport.
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
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
