package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/secmcp/internal/observability"
)

type crtshParams struct {
	Domain string `json:"domain" jsonschema:"Target domain (e.g. example.com)."`
}

func (h *handler) crtshHandler(ctx context.Context, req *mcp.CallToolRequest, params crtshParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Domain) == "" {
		return errorResult("domain is required")
	}

	start := time.Now()
	names, err := h.web.CertificateNames(ctx, params.Domain)
	h.recordWeb("do_crtsh", start, err)
	if err != nil {
		return errorResult(fmt.Sprintf("Error querying crt.sh: %v", err))
	}
	if len(names) == 0 {
		return textResult(fmt.Sprintf("No certificates found for %s", params.Domain))
	}
	return textResult(strings.Join(names, "\n"))
}

type nucleiTagsParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of tags to return. Default: 100."`
}

func (h *handler) nucleiTagsHandler(ctx context.Context, req *mcp.CallToolRequest, params nucleiTagsParams) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	tags, err := h.web.NucleiTags(ctx, params.Limit)
	h.recordWeb("get_nuclei_tags", start, err)
	if err != nil {
		return errorResult(fmt.Sprintf("Error fetching tags: %v", err))
	}
	if tags == nil {
		tags = []string{}
	}
	out, err := json.MarshalIndent(tags, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Error encoding tags: %v", err))
	}
	return textResult(string(out))
}

type headersParams struct {
	URL string `json:"url" jsonschema:"Target URL to check, including scheme."`
}

func (h *handler) headersHandler(ctx context.Context, req *mcp.CallToolRequest, params headersParams) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	report, err := h.web.SecurityHeaders(ctx, params.URL)
	h.recordWeb("check_http_headers", start, err)
	if err != nil {
		return errorResult(fmt.Sprintf("Error checking headers: %v", err))
	}
	return textResult(report.String())
}

func (h *handler) recordWeb(tool string, start time.Time, err error) {
	outcome := "success"
	event := h.logger.Info()
	if err != nil {
		outcome = "failed"
		event = h.logger.Warn().Err(err)
	}
	d := time.Since(start)
	observability.RecordInvocation(tool, outcome, d)
	event.Str("tool", tool).Str("outcome", outcome).Dur("duration", d).Msg("web_lookup")
}
