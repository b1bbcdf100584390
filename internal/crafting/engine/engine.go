// Package engine contains the catalog query business logic.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/rsned/rocket-capacity-server/internal/crafting/db"
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// ErrItemNotFound is returned when a query names an item that is not in
// the catalog.
var ErrItemNotFound = errors.New("item not found")

// maxSuggestions caps the number of near matches offered for a missing item.
const maxSuggestions = 5

// Engine is the main query engine for catalog operations.
type Engine struct {
	catalog *db.CatalogStore
}

// New creates a new Engine over the given database.
func New(database *db.DB) *Engine {
	return &Engine{
		catalog: db.NewCatalogStore(database),
	}
}

// requireItem loads an item, failing with ErrItemNotFound when it is absent.
func (e *Engine) requireItem(ctx context.Context, name string) (*crafting.EnrichedItem, error) {
	item, err := e.catalog.GetItem(ctx, name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, name)
	}
	return item, nil
}

// itemMap loads the whole catalog keyed by item name.
func (e *Engine) itemMap(ctx context.Context) (map[string]*crafting.EnrichedItem, error) {
	items, err := e.catalog.GetAllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	m := make(map[string]*crafting.EnrichedItem, len(items))
	for i := range items {
		m[items[i].Name] = &items[i]
	}
	return m, nil
}

// suggestions returns the catalog names closest to name by edit distance.
func (e *Engine) suggestions(ctx context.Context, name string) ([]string, error) {
	names, err := e.catalog.ItemNames(ctx)
	if err != nil {
		return nil, err
	}
	return closest(name, names, maxSuggestions), nil
}

func closest(name string, candidates []string, limit int) []string {
	type match struct {
		name string
		dist int
	}
	threshold := len(name)/3 + 2

	var matches []match
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d <= threshold {
			matches = append(matches, match{c, d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})

	var out []string
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].name)
	}
	return out
}
