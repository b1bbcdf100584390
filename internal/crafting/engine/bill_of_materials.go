package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rsned/rocket-capacity-server/internal/crafting/pipeline"
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// BillOfMaterials executes the bill_of_materials tool logic.
// It performs recursive dependency resolution along the first alternative of
// every item, accounting for recipe yields, and returns the raw materials,
// intermediates and craft steps in build order.
func (e *Engine) BillOfMaterials(ctx context.Context, req crafting.BillOfMaterialsRequest) (*crafting.BillOfMaterialsResponse, error) {
	// Apply defaults
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	items, err := e.itemMap(ctx)
	if err != nil {
		return nil, err
	}
	target, ok := items[req.Item]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, req.Item)
	}

	// The same alternative is used for an item wherever it appears in the
	// tree, so diamond dependencies resolve consistently.
	craftable := make(map[string]*crafting.Alternative)
	visited := make(map[string]bool)
	var path []string
	onPath := make(map[string]bool)

	var dfs func(name string) error
	dfs = func(name string) error {
		if onPath[name] {
			return &pipeline.CycleError{Stage: "bill of materials", Names: cyclePath(path, name)}
		}
		if visited[name] {
			return nil
		}
		visited[name] = true

		alt := firstAlternative(items[name])
		if alt == nil {
			// Not craftable (raw material)
			return nil
		}
		craftable[name] = alt

		onPath[name] = true
		path = append(path, name)
		for _, ing := range alt.Ingredients {
			if err := dfs(ing.Name); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		delete(onPath, name)
		return nil
	}
	if err := dfs(target.Name); err != nil {
		return nil, err
	}

	// Topological sort (deepest dependencies first)
	sortedBottomUp, err := topologicalSort(craftable)
	if err != nil {
		return nil, fmt.Errorf("topological sort: %w", err)
	}

	demand := map[string]float64{target.Name: req.Quantity}
	craftRuns := make(map[string]float64)
	for i := len(sortedBottomUp) - 1; i >= 0; i-- {
		name := sortedBottomUp[i]
		alt := craftable[name]
		itemDemand := demand[name]
		if itemDemand == 0 {
			continue
		}

		runs := math.Ceil(itemDemand / alt.Yield)
		craftRuns[name] = runs

		// Propagate demand to ingredients
		for _, ing := range alt.Ingredients {
			demand[ing.Name] += runs * ing.Amount
		}
	}

	resp := &crafting.BillOfMaterialsResponse{
		Item:          target.Name,
		Quantity:      req.Quantity,
		RawMaterials:  []crafting.BOMItem{},
		Intermediates: []crafting.BOMIntermediate{},
		CraftSteps:    []crafting.BOMCraftStep{},
	}

	for name, qty := range demand {
		if craftable[name] == nil && qty > 0 {
			resp.RawMaterials = append(resp.RawMaterials, crafting.BOMItem{Item: name, Quantity: qty})
		}
	}
	sort.Slice(resp.RawMaterials, func(i, j int) bool {
		return resp.RawMaterials[i].Item < resp.RawMaterials[j].Item
	})

	for _, name := range sortedBottomUp {
		runs := craftRuns[name]
		if runs == 0 {
			continue
		}
		alt := craftable[name]

		resp.CraftSteps = append(resp.CraftSteps, crafting.BOMCraftStep{
			StepNumber:   len(resp.CraftSteps) + 1,
			Recipe:       alt.Name,
			CraftRuns:    runs,
			Item:         name,
			OutputPerRun: alt.Yield,
		})

		// Exclude the target item from intermediates
		if name == target.Name {
			continue
		}
		resp.Intermediates = append(resp.Intermediates, crafting.BOMIntermediate{
			Item:          name,
			Recipe:        alt.Name,
			CraftRuns:     runs,
			TotalProduced: runs * alt.Yield,
			TotalNeeded:   demand[name],
		})
	}
	sort.Slice(resp.Intermediates, func(i, j int) bool {
		return resp.Intermediates[i].Item < resp.Intermediates[j].Item
	})

	return resp, nil
}

// firstAlternative returns the first alternative of item that produces
// anything, or nil for raw materials.
func firstAlternative(item *crafting.EnrichedItem) *crafting.Alternative {
	if item == nil {
		return nil
	}
	for i := range item.Alternatives {
		if item.Alternatives[i].Yield > 0 {
			return &item.Alternatives[i]
		}
	}
	return nil
}

// cyclePath returns the part of path that starts at name, closed by name.
func cyclePath(path []string, name string) []string {
	for i, p := range path {
		if p == name {
			return append(append([]string{}, path[i:]...), name)
		}
	}
	return []string{name}
}

// topologicalSort performs a topological sort on craftable items.
// Returns items in dependency order (deepest dependencies first), breaking
// ties by name.
func topologicalSort(craftable map[string]*crafting.Alternative) ([]string, error) {
	names := make([]string, 0, len(craftable))
	for name := range craftable {
		names = append(names, name)
	}
	sort.Strings(names)

	// Build in-degree map
	inDegree := make(map[string]int, len(names))
	adjacency := make(map[string][]string)
	for _, name := range names {
		inDegree[name] += 0
		seen := make(map[string]bool)
		for _, ing := range craftable[name].Ingredients {
			// Only consider craftable ingredients as dependencies
			if craftable[ing.Name] == nil || seen[ing.Name] {
				continue
			}
			seen[ing.Name] = true
			adjacency[ing.Name] = append(adjacency[ing.Name], name)
			inDegree[name]++
		}
	}

	// Find nodes with no incoming edges
	var queue []string
	for _, name := range names {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var sorted []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		// Reduce in-degree for dependents
		for _, dependent := range adjacency[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	// Check for cycles
	if len(sorted) != len(craftable) {
		var stuck []string
		for _, name := range names {
			if inDegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, &pipeline.CycleError{Stage: "bill of materials", Names: stuck}
	}

	return sorted, nil
}
