package webapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// SecurityHeaderNames lists the response headers the header check inspects.
var SecurityHeaderNames = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"X-XSS-Protection",
	"Referrer-Policy",
	"Permissions-Policy",
	"Cross-Origin-Opener-Policy",
	"Cross-Origin-Resource-Policy",
}

// HeaderCheck is the state of one security header.
type HeaderCheck struct {
	Name    string
	Value   string
	Present bool
}

// HeaderReport is the result of SecurityHeaders.
type HeaderReport struct {
	URL     string
	Status  string
	Headers []HeaderCheck
}

// Missing returns the names of absent headers.
func (r *HeaderReport) Missing() []string {
	var out []string
	for _, h := range r.Headers {
		if !h.Present {
			out = append(out, h.Name)
		}
	}
	return out
}

// String renders the report as the text returned to callers.
func (r *HeaderReport) String() string {
	var b strings.Builder
	b.WriteString("=== HTTP Security Headers Analysis ===\n\n")
	fmt.Fprintf(&b, "URL: %s\nStatus: %s\n\n", r.URL, r.Status)
	for i, h := range r.Headers {
		if i > 0 {
			b.WriteByte('\n')
		}
		if h.Present {
			fmt.Fprintf(&b, "✓ %s: %s", h.Name, h.Value)
		} else {
			fmt.Fprintf(&b, "✗ %s: MISSING", h.Name)
		}
	}
	return b.String()
}

// SecurityHeaders sends a HEAD request to target and reports which
// security headers the final response carries.
func (c *Client) SecurityHeaders(ctx context.Context, target string) (*HeaderReport, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return nil, fmt.Errorf("url must start with http:// or https://: %q", target)
	}

	resp, _, err := c.do(ctx, http.MethodHead, target)
	if err != nil {
		return nil, err
	}

	report := &HeaderReport{URL: target, Status: resp.Status}
	for _, name := range SecurityHeaderNames {
		v := strings.Join(resp.Header.Values(name), ", ")
		report.Headers = append(report.Headers, HeaderCheck{Name: name, Value: v, Present: v != ""})
	}
	return report, nil
}
