package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/deixis/secmcp/internal/catalog"
	"github.com/deixis/secmcp/internal/observability"
	"github.com/deixis/secmcp/internal/runner"
)

// registerScannerTools registers one tool per registry entry, all served
// by the same dispatch routine.
func registerScannerTools(s *mcp.Server, h *handler) {
	for _, spec := range h.registry.All() {
		s.AddTool(
			&mcp.Tool{
				Name:        spec.Name,
				Title:       spec.Title,
				Description: spec.Description,
				InputSchema: spec.InputSchema(),
			},
			h.scannerHandler(spec),
		)
	}
}

// scannerHandler binds the raw arguments against the tool parameters and runs the tool.
// Tool failures are reported as IsError results, never as protocol errors.
func (h *handler) scannerHandler(spec *catalog.Spec) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		values, err := spec.Bind(req.Params.Arguments)
		if err != nil {
			observability.RecordInvocation(spec.Name, "invalid", 0)
			return toolError(err.Error()), nil
		}
		inv, err := spec.Invocation(values, h.registry.MaxTimeout())
		if err != nil {
			observability.RecordInvocation(spec.Name, "invalid", 0)
			return toolError(err.Error()), nil
		}
		return h.execute(ctx, spec, inv), nil
	}
}

// execute runs inv and renders the result. Non-zero exit codes accepted
// by the tool are not reported as errors.
func (h *handler) execute(ctx context.Context, spec *catalog.Spec, inv runner.Invocation) *mcp.CallToolResult {
	h.logger.Debug().
		Str("tool", spec.Name).
		Strs("argv", inv.Argv()).
		Dur("timeout", inv.Timeout).
		Msg("tool_start")

	res := h.exec.Run(ctx, inv)
	ok := res.OK() || (res.Outcome == runner.NonZeroExit && spec.AcceptsExit(res.ExitCode))

	observability.RecordInvocation(spec.Name, res.Outcome.String(), res.Duration)
	h.logResult(spec.Name, res, ok)

	text := res.Text()
	if res.Outcome == runner.NotFound {
		text += catalog.NewErrToolUnavailable(inv.Binary).Hint()
	}
	if res.Truncated {
		text += fmt.Sprintf("\n\n[output truncated: a stream exceeded %d bytes]", h.cfg.MaxOutputBytes())
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: !ok,
	}
}

func (h *handler) logResult(tool string, res *runner.Result, ok bool) {
	var event *zerolog.Event
	if ok {
		event = h.logger.Info()
	} else {
		event = h.logger.Warn()
	}
	event.
		Str("tool", tool).
		Str("run_id", res.RunID).
		Str("binary", res.Binary).
		Str("outcome", res.Outcome.String()).
		Int("exit_code", res.ExitCode).
		Bool("truncated", res.Truncated).
		Dur("duration", res.Duration.Round(time.Millisecond)).
		Msg("tool_run")
}

// toolError builds an error result for the low-level ToolHandler API.
func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
