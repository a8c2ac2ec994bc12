package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/crm-nexus/nexus/lookups"
)

var _ lookups.API = (*Client)(nil)

// Lookup fetches the active rows of a reference table, optionally
// filtered by a search term. These endpoints are public.
func (c *Client) Lookup(ctx context.Context, table lookups.Table, search string) ([]lookups.Item, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	query.Set("isActive", "true")

	var items []lookups.Item
	if err := c.do(ctx, http.MethodGet, "/"+string(table), query, nil, &items, ""); err != nil {
		return nil, err
	}
	return items, nil
}
