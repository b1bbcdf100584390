package engine

import (
	"context"
	"fmt"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

const defaultSearchLimit = 10

// ItemLookup executes the item_lookup tool logic.
func (e *Engine) ItemLookup(ctx context.Context, req crafting.ItemLookupRequest) (*crafting.ItemLookupResponse, error) {
	if req.Surface != "" && !req.Surface.IsValid() {
		return nil, fmt.Errorf("unknown surface: %s", req.Surface)
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	resp := &crafting.ItemLookupResponse{}

	// A surface restricts the search to items bound to it
	var onSurface map[string]bool
	if req.Surface != "" {
		names, err := e.catalog.ListItemsBySurface(ctx, req.Surface)
		if err != nil {
			return nil, err
		}
		onSurface = make(map[string]bool, len(names))
		for _, name := range names {
			onSurface[name] = true
		}
		if req.Search == "" && req.Name == "" {
			resp.SurfaceItems = names[:min(len(names), req.Limit)]
			return resp, nil
		}
	}

	// If search term provided, search first
	if req.Search != "" {
		hits, err := e.catalog.SearchItems(ctx, req.Search, req.Limit)
		if err != nil {
			return nil, err
		}
		if onSurface != nil {
			kept := hits[:0]
			for _, hit := range hits {
				if onSurface[hit.Name] {
					kept = append(kept, hit)
				}
			}
			hits = kept
		}
		resp.SearchResults = hits

		// If exactly one result and no name provided, use it
		if len(hits) == 1 && req.Name == "" {
			req.Name = hits[0].Name
		}
	}

	if req.Name == "" {
		return resp, nil
	}

	item, err := e.catalog.GetItem(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if item == nil {
		resp.Suggestions, err = e.suggestions(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
	resp.Item = item

	usedIn, err := e.catalog.FindItemsUsingIngredient(ctx, item.Name)
	if err != nil {
		return nil, err
	}
	resp.UsedIn = usedIn

	return resp, nil
}
