package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deixis/secmcp"
)

// execute runs the CLI with a private config file and returns stdout.
func execute(t *testing.T, configYAML string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secmcp.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SECMCP_CONFIG", path)
	t.Setenv("SECMCP_LOG_LEVEL", "disabled")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != secmcp.Version {
		t.Errorf("version = %q", out)
	}
}

func TestInstructions(t *testing.T) {
	out, err := execute(t, "", "instructions")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "run_tool") {
		t.Errorf("instructions = %q", out)
	}
}

func TestRun(t *testing.T) {
	cfg := "tools:\n  do_waybackurls:\n    binary: echo\n"
	out, err := execute(t, cfg, "run", "do_waybackurls", "domain=example.com")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "example.com\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no tool", []string{"run"}},
		{"unknown tool", []string{"run", "do_nope"}},
		{"not key value", []string{"run", "do_nmap", "scanme"}},
		{"missing required", []string{"run", "do_nmap"}},
		{"unknown param", []string{"run", "do_nmap", "target=x", "port=80"}},
		{"bad flag", []string{"run", "--frobnicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := exitCode(err); code != 2 {
				t.Errorf("exit code = %d (%v), want 2", code, err)
			}
		})
	}
}

func TestRun_ToolFailure(t *testing.T) {
	cfg := "tools:\n  do_sslscan:\n    binary: secmcp-missing-binary\n"
	out, err := execute(t, cfg, "run", "do_sslscan", "target=example.com:443")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if exitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1", exitCode(err))
	}
	if !strings.Contains(out, "binary not found: secmcp-missing-binary") {
		t.Errorf("stdout = %q", out)
	}
}

func TestExec(t *testing.T) {
	out, err := execute(t, "", "exec", "--stdin", "a\nb\n", "--", "wc", "-l")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if strings.TrimSpace(out) != "2" {
		t.Errorf("stdout = %q", out)
	}

	out, err = execute(t, "", "exec", "--", "sh", "-c", "echo bad arg >&2; exit 3")
	if err == nil || exitCode(err) != 1 {
		t.Fatalf("err = %v, want exit 1", err)
	}
	if !strings.Contains(out, "Command exited with code 3") || !strings.Contains(out, "bad arg") {
		t.Errorf("stdout = %q", out)
	}

	out, err = execute(t, "", "exec", "--timeout", "200ms", "--", "sleep", "10")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(out, "Command timed out after 200ms") {
		t.Errorf("stdout = %q", out)
	}
}

func TestTools(t *testing.T) {
	cfg := "tools:\n  do_nmap:\n    binary: sh\n  do_wpscan:\n    disabled: true\n"
	out, err := execute(t, cfg, "tools")
	if err != nil {
		t.Fatalf("tools: %v", err)
	}
	if !strings.Contains(out, "do_nmap") || !strings.Contains(out, "installed") {
		t.Errorf("stdout = %q", out)
	}
	if strings.Contains(out, "do_wpscan") {
		t.Error("disabled tool listed")
	}
}

func TestConfigErrors(t *testing.T) {
	_, err := execute(t, "tools:\n  do_nope: {}\n", "tools")
	if err == nil || !strings.Contains(err.Error(), "do_nope") {
		t.Errorf("err = %v", err)
	}
}

func TestParseKeyValues(t *testing.T) {
	kv, err := parseKeyValues([]string{"target=10.0.0.1", "nmap_args=-sV --script=vuln", "empty="})
	if err != nil {
		t.Fatal(err)
	}
	if kv["target"] != "10.0.0.1" || kv["nmap_args"] != "-sV --script=vuln" || kv["empty"] != "" {
		t.Errorf("kv = %v", kv)
	}

	for _, bad := range [][]string{{"novalue"}, {"=x"}, {"a=1", "a=2"}} {
		if _, err := parseKeyValues(bad); err == nil {
			t.Errorf("parseKeyValues(%q) should fail", bad)
		}
	}
}
