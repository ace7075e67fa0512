package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "secmcp", "warn", "json")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info().Msg("hidden")
	logger.Warn().Str("tool", "do_nmap").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if ev["app"] != "secmcp" || ev["tool"] != "do_nmap" || ev["message"] != "shown" {
		t.Errorf("event = %v", ev)
	}
}

func TestNewLogger_ConsoleNoColorOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "secmcp", "", "console")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info().Msg("hello")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("console output to a buffer should not be coloured: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewLogger_Errors(t *testing.T) {
	if _, err := NewLogger(&bytes.Buffer{}, "secmcp", "loud", ""); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewLogger(&bytes.Buffer{}, "secmcp", "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(toolInvocations.WithLabelValues("do_test", "success"))
	RecordInvocation("do_test", "success", 120*time.Millisecond)
	RecordInvocation("do_test", "success", 80*time.Millisecond)
	if got := testutil.ToFloat64(toolInvocations.WithLabelValues("do_test", "success")); got != before+2 {
		t.Errorf("invocations = %v, want %v", got, before+2)
	}
	RecordHTTPRequest("POST", "/mcp", 200, 12*time.Millisecond)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "secmcp", "debug", "json")
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.Use(RequestLogger(logger), RequestMetrics())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/healthz", "200"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/healthz", "200")); got != before+1 {
		t.Errorf("http requests = %v, want %v", got, before+1)
	}
	if !strings.Contains(buf.String(), `"path":"/healthz"`) {
		t.Errorf("log = %q", buf.String())
	}
}
