package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

type crtshEntry struct {
	NameValue string `json:"name_value"`
}

// CertificateNames searches certificate transparency logs for names under
// domain. Wildcard prefixes are stripped; the result is deduplicated,
// lowercased and sorted.
func (c *Client) CertificateNames(ctx context.Context, domain string) ([]string, error) {
	d, err := NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.crtshURL)
	if err != nil {
		return nil, fmt.Errorf("crt.sh url: %w", err)
	}
	q := u.Query()
	q.Set("q", "%."+d)
	q.Set("output", "json")
	u.RawQuery = q.Encode()
	target := u.String()

	_, body, err := c.do(ctx, http.MethodGet, target)
	if err != nil {
		return nil, err
	}

	var entries []crtshEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &DecodeError{URL: target, Err: err}
	}
	return certificateNames(entries), nil
}

func certificateNames(entries []crtshEntry) []string {
	seen := make(map[string]struct{})
	for _, e := range entries {
		// One entry may list several SANs, newline separated.
		for _, name := range strings.Split(e.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			name = strings.TrimSuffix(strings.TrimPrefix(name, "*."), ".")
			if name != "" {
				seen[name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
