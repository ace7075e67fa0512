package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/deixis/secmcp/internal/catalog"
	"github.com/deixis/secmcp/internal/config"
	"github.com/deixis/secmcp/internal/runner"
	"github.com/deixis/secmcp/internal/webapi"
)

// testSpecs are small tools backed by binaries every Unix host has.
func testSpecs() []catalog.Spec {
	return []catalog.Spec{
		{
			Name:        "do_echo",
			Description: "Print text.",
			Binary:      "printf",
			Params: []catalog.Param{
				{Name: "text", Description: "Text to print.", Kind: catalog.String, Required: true},
			},
			Args:    []catalog.Arg{catalog.Lit("%s"), catalog.Pos("text")},
			Timeout: 10 * time.Second,
		},
		{
			Name:        "do_fail",
			Description: "Exit with code 2.",
			Binary:      "sh",
			Args:        []catalog.Arg{catalog.Lit("-c"), catalog.Lit("echo bad arg >&2; exit 2")},
			Timeout:     10 * time.Second,
		},
		{
			Name:        "do_findings",
			Description: "Exit with an accepted code.",
			Binary:      "false",
			Timeout:     10 * time.Second,
			OKExitCodes: []int{1},
		},
		{
			Name:        "do_sleep",
			Description: "Sleep.",
			Binary:      "sleep",
			Params: []catalog.Param{
				{Name: "seconds", Description: "Seconds to sleep.", Kind: catalog.Integer, Default: "30"},
			},
			Args:    []catalog.Arg{catalog.Pos("seconds")},
			Timeout: 10 * time.Second,
		},
		{
			Name:        "do_missing",
			Description: "Not installed.",
			Binary:      "secmcp-missing-binary",
			Timeout:     10 * time.Second,
		},
		{
			Name:        "do_nuclei",
			Description: "Not installed, with install hints.",
			Binary:      "/nonexistent/bin/nuclei",
			Timeout:     10 * time.Second,
		},
		{
			Name:        "do_lines",
			Description: "Count stdin lines.",
			Binary:      "wc",
			Params: []catalog.Param{
				{Name: "targets", Description: "Targets.", Kind: catalog.StringList, Required: true},
			},
			Args:    []catalog.Arg{catalog.Lit("-l")},
			Stdin:   "targets",
			Timeout: 10 * time.Second,
		},
	}
}

type fakeWeb struct{}

func (fakeWeb) CertificateNames(_ context.Context, domain string) ([]string, error) {
	switch domain {
	case "example.com":
		return []string{"api.example.com", "www.example.com"}, nil
	case "empty.example":
		return nil, nil
	}
	return nil, &webapi.StatusError{URL: "https://crt.sh/", StatusCode: 502, Status: "502 Bad Gateway"}
}

func (fakeWeb) NucleiTags(_ context.Context, limit int) ([]string, error) {
	tags := []string{"cve", "rce", "sqli"}
	if limit > 0 && limit < len(tags) {
		tags = tags[:limit]
	}
	return tags, nil
}

func (fakeWeb) SecurityHeaders(_ context.Context, url string) (*webapi.HeaderReport, error) {
	if !strings.HasPrefix(url, "http") {
		return nil, errors.New("url must start with http:// or https://")
	}
	return &webapi.HeaderReport{
		URL:    url,
		Status: "200 OK",
		Headers: []webapi.HeaderCheck{
			{Name: "X-Frame-Options", Value: "DENY", Present: true},
			{Name: "Content-Security-Policy"},
		},
	}, nil
}

// setup creates a full secmcp server + client over in-memory transports.
func setup(t *testing.T, specs []catalog.Spec, cfg *config.Config) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	if cfg == nil {
		cfg = &config.Config{}
	}
	registry, err := catalog.NewRegistry(specs, cfg)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	r := &runner.Runner{
		Dir:       t.TempDir(),
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}
	pool, err := runner.NewPool(r, 2)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	server := NewServer(cfg, registry, pool, fakeWeb{}, zerolog.Nop())

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
		pool.Release()
	})

	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var parts []string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// --- registration ---

func TestListTools_Builtin(t *testing.T) {
	cs := setup(t, catalog.Builtin(), nil)
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	byName := map[string]*mcp.Tool{}
	for _, tool := range res.Tools {
		byName[tool.Name] = tool
	}
	for _, spec := range catalog.Builtin() {
		if _, ok := byName[spec.Name]; !ok {
			t.Errorf("tool %s not registered", spec.Name)
		}
	}
	for _, name := range []string{"do_crtsh", "get_nuclei_tags", "check_http_headers", "list_available_tools", "run_tool"} {
		if _, ok := byName[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}

	schema, ok := byName["do_nmap"].InputSchema.(map[string]any)
	if !ok {
		t.Fatalf("do_nmap schema = %T", byName["do_nmap"].InputSchema)
	}
	required, _ := schema["required"].([]any)
	if len(required) != 1 || required[0] != "target" {
		t.Errorf("do_nmap required = %v", schema["required"])
	}
}

func TestListTools_Disabled(t *testing.T) {
	cfg := &config.Config{Tools: map[string]config.ToolConfig{"do_sleep": {Disabled: true}}}
	cs := setup(t, testSpecs(), cfg)
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	for _, tool := range res.Tools {
		if tool.Name == "do_sleep" {
			t.Error("disabled tool should not be listed")
		}
	}
}

// --- scanner tools ---

func TestScanner_Success(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "do_echo", map[string]any{"text": "ok"})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	if got := resultText(res); got != "ok" {
		t.Errorf("text = %q, want ok", got)
	}
}

func TestScanner_MetacharactersLiteral(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	payload := "a; echo injected && $(id) | cat"
	res := callTool(t, cs, "do_echo", map[string]any{"text": payload})
	if got := resultText(res); got != payload {
		t.Errorf("text = %q, want %q", got, payload)
	}
}

func TestScanner_NonZeroExit(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "do_fail", nil)
	text := resultText(res)
	if !res.IsError {
		t.Error("expected IsError for exit 2")
	}
	if !strings.Contains(text, "Command exited with code 2") || !strings.Contains(text, "bad arg") {
		t.Errorf("text = %q", text)
	}
}

func TestScanner_AcceptedExitCode(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "do_findings", nil)
	if res.IsError {
		t.Errorf("accepted exit code reported as error: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "code 1") {
		t.Errorf("text = %q", resultText(res))
	}
}

func TestScanner_NotFound(t *testing.T) {
	cs := setup(t, testSpecs(), nil)

	res := callTool(t, cs, "do_missing", nil)
	if !res.IsError {
		t.Error("expected IsError for missing binary")
	}
	if got := resultText(res); got != "binary not found: secmcp-missing-binary" {
		t.Errorf("text = %q", got)
	}

	res = callTool(t, cs, "do_nuclei", nil)
	text := resultText(res)
	if !strings.Contains(text, "binary not found: /nonexistent/bin/nuclei") || !strings.Contains(text, "go install") {
		t.Errorf("expected install hint, got %q", text)
	}
}

func TestScanner_Timeout(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	start := time.Now()
	res := callTool(t, cs, "do_sleep", map[string]any{"timeout_seconds": 1})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("call took %s", elapsed)
	}
	if !res.IsError {
		t.Error("expected IsError for timeout")
	}
	if got := resultText(res); got != "Command timed out after 1s" {
		t.Errorf("text = %q", got)
	}
}

func TestScanner_Stdin(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "do_lines", map[string]any{"targets": []string{"a.com", "b.com", "c.com"}})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	if got := strings.TrimSpace(resultText(res)); got != "3" {
		t.Errorf("wc -l = %q, want 3", got)
	}
}

func TestScanner_Truncated(t *testing.T) {
	cs := setup(t, testSpecs(), &config.Config{RawMaxOutput: 16})
	res := callTool(t, cs, "do_echo", map[string]any{"text": strings.Repeat("x", 64)})
	text := resultText(res)
	if !strings.HasPrefix(text, strings.Repeat("x", 16)+"\n\n[output truncated") {
		t.Errorf("text = %q", text)
	}
}

func TestScanner_InvalidArguments(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing", nil, "text: is required"},
		{"unknown", map[string]any{"text": "x", "extra": 1}, "unknown parameters: extra"},
		{"wrong type", map[string]any{"text": 3}, "must be a string"},
		{"bad timeout", map[string]any{"text": "x", "timeout_seconds": -1}, "timeout_seconds: must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, cs, "do_echo", tt.args)
			if !res.IsError {
				t.Fatal("expected IsError")
			}
			if !strings.Contains(resultText(res), tt.want) {
				t.Errorf("text = %q, want %q", resultText(res), tt.want)
			}
		})
	}
}

// --- run_tool ---

func TestRunTool(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "run_tool", map[string]any{
		"binary": "printf",
		"args":   []string{"%s-%s", "a", "b"},
	})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	if got := resultText(res); got != "a-b" {
		t.Errorf("text = %q, want a-b", got)
	}
}

func TestRunTool_NoOutput(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "run_tool", map[string]any{"binary": "sleep", "args": []string{"0"}})
	if got := resultText(res); got != runner.NoOutput {
		t.Errorf("text = %q, want %q", got, runner.NoOutput)
	}
}

func TestRunTool_Stdin(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "run_tool", map[string]any{"binary": "wc", "args": []string{"-c"}, "stdin": "hello"})
	if got := strings.TrimSpace(resultText(res)); got != "5" {
		t.Errorf("wc -c = %q, want 5", got)
	}
}

func TestRunTool_Timeout(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "run_tool", map[string]any{
		"binary":          "sleep",
		"args":            []string{"30"},
		"timeout_seconds": 1,
	})
	if !res.IsError || resultText(res) != "Command timed out after 1s" {
		t.Errorf("result = %v %q", res.IsError, resultText(res))
	}
}

func TestRunTool_HugeTimeoutIsCapped(t *testing.T) {
	cs := setup(t, testSpecs(), &config.Config{RawMaxTimeout: "1s"})
	res := callTool(t, cs, "run_tool", map[string]any{
		"binary":          "sleep",
		"args":            []string{"30"},
		"timeout_seconds": 9999999999,
	})
	if !res.IsError || resultText(res) != "Command timed out after 1s" {
		t.Errorf("result = %v %q", res.IsError, resultText(res))
	}
}

func TestRunTool_Disallowed(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "run_tool", map[string]any{"binary": "rm", "args": []string{"-rf", "/tmp/x"}})
	if !res.IsError {
		t.Error("expected IsError for unregistered binary")
	}
	if !strings.Contains(resultText(res), `binary "rm" is not allowed`) {
		t.Errorf("text = %q", resultText(res))
	}
}

func TestRunTool_BaseNameOfConfiguredPath(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "run_tool", map[string]any{"binary": "nuclei"})
	if !strings.Contains(resultText(res), "binary not found: /nonexistent/bin/nuclei") {
		t.Errorf("text = %q", resultText(res))
	}
}

// --- web tools ---

func TestCrtsh(t *testing.T) {
	cs := setup(t, testSpecs(), nil)

	res := callTool(t, cs, "do_crtsh", map[string]any{"domain": "example.com"})
	if res.IsError || resultText(res) != "api.example.com\nwww.example.com" {
		t.Errorf("result = %v %q", res.IsError, resultText(res))
	}

	res = callTool(t, cs, "do_crtsh", map[string]any{"domain": "empty.example"})
	if res.IsError || !strings.Contains(resultText(res), "No certificates found") {
		t.Errorf("result = %v %q", res.IsError, resultText(res))
	}

	res = callTool(t, cs, "do_crtsh", map[string]any{"domain": "down.example"})
	if !res.IsError || !strings.Contains(resultText(res), "Error querying crt.sh") {
		t.Errorf("result = %v %q", res.IsError, resultText(res))
	}
}

func TestNucleiTags(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "get_nuclei_tags", map[string]any{"limit": 2})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	if got := resultText(res); got != "[\n  \"cve\",\n  \"rce\"\n]" {
		t.Errorf("text = %q", got)
	}
}

func TestCheckHTTPHeaders(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "check_http_headers", map[string]any{"url": "https://example.com"})
	text := resultText(res)
	if res.IsError {
		t.Fatalf("unexpected error: %s", text)
	}
	if !strings.Contains(text, "✓ X-Frame-Options: DENY") || !strings.Contains(text, "✗ Content-Security-Policy: MISSING") {
		t.Errorf("text = %q", text)
	}

	res = callTool(t, cs, "check_http_headers", map[string]any{"url": "example.com"})
	if !res.IsError || !strings.Contains(resultText(res), "Error checking headers") {
		t.Errorf("result = %v %q", res.IsError, resultText(res))
	}
}

// --- list_available_tools ---

func TestListAvailableTools(t *testing.T) {
	cs := setup(t, testSpecs(), nil)
	res := callTool(t, cs, "list_available_tools", nil)
	text := resultText(res)
	for _, want := range []string{
		"=== Available Security Tools ===",
		"• do_echo: Print text. [installed]",
		"• do_missing: Not installed. [not installed: secmcp-missing-binary]",
		"• do_crtsh: Certificate transparency lookup",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}
