package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

const defaultUsesLimit = 25

// IngredientUses executes the ingredient_uses tool logic.
func (e *Engine) IngredientUses(ctx context.Context, req crafting.IngredientUsesRequest) (*crafting.IngredientUsesResponse, error) {
	if req.Ingredient == "" {
		return nil, errors.New("ingredient is required")
	}
	if req.Surface != "" && !req.Surface.IsValid() {
		return nil, fmt.Errorf("unknown surface: %s", req.Surface)
	}
	if req.Limit <= 0 {
		req.Limit = defaultUsesLimit
	}

	names, err := e.catalog.FindItemsUsingIngredient(ctx, req.Ingredient)
	if err != nil {
		return nil, err
	}

	uses := []crafting.IngredientUseInfo{}
	for _, name := range names {
		item, err := e.catalog.GetItem(ctx, name)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}

		for _, alt := range item.Alternatives {
			if req.Surface != "" && alt.CraftedOnlyOn != req.Surface {
				continue
			}
			for _, ing := range alt.Ingredients {
				if ing.Name != req.Ingredient {
					continue
				}
				uses = append(uses, crafting.IngredientUseInfo{
					Item:          item.Name,
					Recipe:        alt.Name,
					Amount:        ing.Amount,
					WeightRatio:   ing.WeightRatio,
					CraftedOnlyOn: alt.CraftedOnlyOn,
				})
			}
		}
	}

	sortIngredientUses(uses)

	resp := &crafting.IngredientUsesResponse{
		Ingredient: req.Ingredient,
		TotalUses:  len(uses),
	}
	if len(uses) > req.Limit {
		uses = uses[:req.Limit]
	}
	resp.UsedIn = uses

	return resp, nil
}

// sortIngredientUses puts the uses where the ingredient carries the most
// weight first.
func sortIngredientUses(uses []crafting.IngredientUseInfo) {
	sort.SliceStable(uses, func(i, j int) bool {
		if uses[i].WeightRatio != uses[j].WeightRatio {
			return uses[i].WeightRatio > uses[j].WeightRatio
		}
		if uses[i].Item != uses[j].Item {
			return uses[i].Item < uses[j].Item
		}
		return uses[i].Recipe < uses[j].Recipe
	})
}
