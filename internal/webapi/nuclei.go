package webapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
)

// DefaultTagLimit is how many tags NucleiTags returns by default.
const DefaultTagLimit = 100

// NucleiTags returns template tag names from the nuclei templates
// statistics file, in file order. limit <= 0 means DefaultTagLimit.
func (c *Client) NucleiTags(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultTagLimit
	}

	_, body, err := c.do(ctx, http.MethodGet, c.nucleiStatsURL)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, &DecodeError{URL: c.nucleiStatsURL, Err: errors.New("invalid JSON")}
	}

	tags := make([]string, 0, limit)
	for _, name := range gjson.GetBytes(body, "tags.#.name").Array() {
		if len(tags) == limit {
			break
		}
		if s := name.String(); s != "" {
			tags = append(tags, s)
		}
	}
	return tags, nil
}
