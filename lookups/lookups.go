// Package lookups reads the backend's reference tables (license types,
// regions, term licenses, products sold) through a small in-process cache.
// The tables change rarely, so one fetch per (table, search) pair per run
// is enough.
package lookups

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Table names a lookup endpoint. The value doubles as the URL path segment.
type Table string

const (
	TableLicenseTypes Table = "license-types"
	TableRegions      Table = "regions"
	TableTermLicenses Table = "term-licenses"
	TableProductsSold Table = "product-sold"
)

func (t Table) Valid() bool {
	switch t {
	case TableLicenseTypes, TableRegions, TableTermLicenses, TableProductsSold:
		return true
	}
	return false
}

var UnknownTableErr = errors.New("unknown lookup table")

// Item is one row of a lookup table.
type Item struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Value     string    `json:"value"`
	Code      *string   `json:"code,omitempty"`
	Order     int       `json:"order"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// API is the backend surface the cache reads through.
type API interface {
	Lookup(ctx context.Context, table Table, search string) ([]Item, error)
}

// Cache is a read-through cache over the lookup endpoints.
type Cache struct {
	api API

	mu      sync.RWMutex
	entries map[string][]Item
}

func NewCache(api API) (*Cache, error) {
	if api == nil {
		return nil, errors.New("[lookups.NewCache] api is required")
	}
	return &Cache{
		api:     api,
		entries: make(map[string][]Item),
	}, nil
}

// Get returns the table rows, fetching once and serving the cached copy
// afterwards. Distinct searches cache independently.
func (c *Cache) Get(ctx context.Context, table Table, search string) ([]Item, error) {
	if !table.Valid() {
		return nil, errors.Wrap(UnknownTableErr, string(table))
	}

	key := string(table) + "\x00" + search

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	items, err := c.api.Lookup(ctx, table, search)
	if err != nil {
		return nil, errors.Wrapf(err, "[Cache.Get] %s", table)
	}

	c.mu.Lock()
	c.entries[key] = items
	c.mu.Unlock()
	return items, nil
}

// Invalidate drops every cached table.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string][]Item)
	c.mu.Unlock()
}
