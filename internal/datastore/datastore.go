// Package datastore stores the tabular rows of resources and answers the
// paged searches the preview widgets issue.
package datastore

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a resource has no datastore table.
var ErrNotFound = errors.New("datastore table not found")

// DefaultLimit is used when a search does not specify a limit.
const DefaultLimit = 100

// MaxLimit caps the number of records a single search returns.
const MaxLimit = 10000

// Field describes a column of a datastore table.
type Field struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Table is a set of rows to load for a resource. All values are text.
type Table struct {
	Fields  []Field
	Records [][]string
}

// SearchParams selects a page of a resource's rows.
type SearchParams struct {
	ResourceID string
	Offset     int
	// Limit is nil when the caller did not ask for a page size. Zero is a
	// valid limit and selects no records.
	Limit *int
}

// Limit returns n as a SearchParams.Limit value.
func Limit(n int) *int {
	return &n
}

// Normalize applies the default and maximum limit and clamps negative
// offsets. The returned params always carry a limit.
func (p SearchParams) Normalize() SearchParams {
	if p.Offset < 0 {
		p.Offset = 0
	}
	limit := DefaultLimit
	if p.Limit != nil {
		limit = min(max(*p.Limit, 0), MaxLimit)
	}
	p.Limit = &limit
	return p
}

// PageSize is the effective limit after normalization.
func (p SearchParams) PageSize() int {
	return *p.Normalize().Limit
}

// SearchResult is a page of rows plus the total row count.
type SearchResult struct {
	ResourceID string           `json:"resource_id"`
	Fields     []Field          `json:"fields"`
	Records    []map[string]any `json:"records"`
	Total      int64            `json:"total"`
	Offset     int              `json:"offset"`
	Limit      int              `json:"limit"`
}

// Datastore loads and queries resource tables.
type Datastore interface {
	// Create replaces the table of resourceID with t.
	Create(ctx context.Context, resourceID string, t *Table) error
	// Search returns a page of rows in load order.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
	// Delete drops the table of resourceID. Deleting a missing table is not an error.
	Delete(ctx context.Context, resourceID string) error
	Close() error
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9_]+`)

// TableName returns the table holding the rows of resourceID.
func TableName(resourceID string) string {
	return "resource_" + unsafeChars.ReplaceAllString(strings.ToLower(resourceID), "_")
}

// QuoteIdent quotes a column or table name.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
