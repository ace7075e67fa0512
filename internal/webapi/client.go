// Package webapi performs the outbound HTTP lookups exposed as tools:
// certificate transparency search, nuclei template tags and the security
// header check. Every request carries an explicit timeout and is tried once.
package webapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/deixis/secmcp/internal/config"
)

// maxBody bounds how much of a response body is read.
const maxBody = 32 << 20

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s", e.URL, e.Status)
}

// DecodeError reports a response body that is not the expected JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Options configures a Client. Zero fields take the config defaults.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	CrtshURL       string
	NucleiStatsURL string
	Transport      http.RoundTripper
}

// Client performs the lookups.
type Client struct {
	http           *http.Client
	userAgent      string
	crtshURL       string
	nucleiStatsURL string
}

// New returns a Client for opts.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultWebTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.CrtshURL == "" {
		opts.CrtshURL = config.DefaultCrtshURL
	}
	if opts.NucleiStatsURL == "" {
		opts.NucleiStatsURL = config.DefaultNucleiStatsURL
	}
	return &Client{
		http:           &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		userAgent:      opts.UserAgent,
		crtshURL:       opts.CrtshURL,
		nucleiStatsURL: opts.NucleiStatsURL,
	}
}

// FromConfig returns a Client using the web section of cfg.
func FromConfig(cfg *config.Config) *Client {
	return New(Options{
		Timeout:        cfg.WebTimeout(),
		UserAgent:      cfg.UserAgent(),
		CrtshURL:       cfg.CrtshURL(),
		NucleiStatsURL: cfg.NucleiStatsURL(),
	})
}

// do sends one request and returns the response with its body read.
func (c *Client) do(ctx context.Context, method, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if method == http.MethodGet {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, body, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, body, nil
}

// NormalizeDomain lowercases domain, drops a trailing dot and converts
// internationalised names to their ASCII form.
func NormalizeDomain(domain string) (string, error) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" {
		return "", fmt.Errorf("empty domain")
	}
	ascii, err := idna.Lookup.ToASCII(d)
	if err != nil {
		return "", fmt.Errorf("invalid domain %q: %w", domain, err)
	}
	return ascii, nil
}
