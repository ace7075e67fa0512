package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/secmcp/internal/catalog"
	"github.com/deixis/secmcp/internal/observability"
	"github.com/deixis/secmcp/internal/runner"
)

// webTools are the tools served without a subprocess.
var webTools = []struct{ name, description string }{
	{"do_crtsh", "Certificate transparency lookup"},
	{"get_nuclei_tags", "Get available nuclei template tags"},
	{"check_http_headers", "HTTP security headers analysis"},
	{"run_tool", "Run a scanner binary with raw arguments"},
}

type listToolsParams struct{}

func (h *handler) listToolsHandler(ctx context.Context, req *mcp.CallToolRequest, _ listToolsParams) (*mcp.CallToolResult, any, error) {
	var b strings.Builder
	fmt.Fprintln(&b, "=== Available Security Tools ===")
	fmt.Fprintln(&b)

	for _, spec := range h.registry.All() {
		status := "installed"
		if !catalog.Available(spec.Binary) {
			status = "not installed: " + spec.Binary
		}
		fmt.Fprintf(&b, "• %s: %s [%s]\n", spec.Name, spec.Description, status)
	}
	for _, t := range webTools {
		fmt.Fprintf(&b, "• %s: %s\n", t.name, t.description)
	}

	return textResult(strings.TrimRight(b.String(), "\n"))
}

type runToolParams struct {
	Binary         string   `json:"binary" jsonschema:"Scanner binary to run (e.g. nmap). Must back one of the registered tools."`
	Args           []string `json:"args,omitempty" jsonschema:"Arguments passed verbatim, one element per argument."`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" jsonschema:"Timeout in seconds. Defaults to the tool's own timeout."`
	Stdin          string   `json:"stdin,omitempty" jsonschema:"Text written to the process's standard input."`
}

func (h *handler) runToolHandler(ctx context.Context, req *mcp.CallToolRequest, params runToolParams) (*mcp.CallToolResult, any, error) {
	spec, ok := h.lookupBinary(params.Binary)
	if !ok {
		observability.RecordInvocation("run_tool", "invalid", 0)
		return errorResult(fmt.Sprintf("binary %q is not allowed; choose one of: %s",
			params.Binary, strings.Join(h.registry.Binaries(), ", ")))
	}
	if params.TimeoutSeconds < 0 {
		observability.RecordInvocation("run_tool", "invalid", 0)
		return errorResult("timeout_seconds must be positive")
	}

	timeout := spec.Timeout
	if params.TimeoutSeconds > 0 {
		timeout = catalog.Seconds(params.TimeoutSeconds)
	}
	if limit := h.registry.MaxTimeout(); limit > 0 && timeout > limit {
		timeout = limit
	}

	inv := runner.Invocation{
		Binary:  spec.Binary,
		Args:    params.Args,
		Timeout: timeout,
		Stdin:   params.Stdin,
	}
	return h.execute(ctx, spec, inv), nil, nil
}

// lookupBinary matches a requested binary against the registry, by exact
// value or by base name when the registry holds a configured path.
func (h *handler) lookupBinary(binary string) (*catalog.Spec, bool) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, false
	}
	if spec, ok := h.registry.SpecForBinary(binary); ok {
		return spec, true
	}
	for _, spec := range h.registry.All() {
		if filepath.Base(spec.Binary) == binary {
			return spec, true
		}
	}
	return nil, false
}
