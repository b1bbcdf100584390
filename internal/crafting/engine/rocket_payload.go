package engine

import (
	"context"
	"fmt"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// RocketPayload executes the rocket_payload tool logic. For every
// alternative of the item it splits the requested rockets between the
// ingredients by weight and reports how many of the item those ingredients
// craft.
func (e *Engine) RocketPayload(ctx context.Context, req crafting.RocketPayloadRequest) (*crafting.RocketPayloadResponse, error) {
	if req.Rockets <= 0 {
		req.Rockets = 1
	}

	item, err := e.requireItem(ctx, req.Item)
	if err != nil {
		return nil, err
	}

	resp := &crafting.RocketPayloadResponse{
		Item:           item.Name,
		RocketCapacity: item.RocketCapacity * req.Rockets,
		Rockets:        req.Rockets,
		Plans:          make([]crafting.PayloadPlan, 0, len(item.Alternatives)),
	}

	capacities := make(map[string]float64)
	for _, alt := range item.Alternatives {
		plan := crafting.PayloadPlan{
			Recipe:        alt.Name,
			CraftedOnlyOn: alt.CraftedOnlyOn,
			Ingredients:   make([]crafting.PayloadIngredient, 0, len(alt.Ingredients)),
		}

		for _, ing := range alt.Ingredients {
			capacity, ok := capacities[ing.Name]
			if !ok {
				ingItem, err := e.requireItem(ctx, ing.Name)
				if err != nil {
					return nil, fmt.Errorf("ingredient of %s: %w", alt.Name, err)
				}
				capacity = ingItem.RocketCapacity
				capacities[ing.Name] = capacity
			}

			plan.Ingredients = append(plan.Ingredients, crafting.PayloadIngredient{
				Name:           ing.Name,
				Amount:         ing.Amount,
				WeightRatio:    ing.WeightRatio,
				RocketCapacity: ing.WeightRatio * capacity * req.Rockets,
			})
		}

		plan.CraftCount = craftCount(alt.Yield, plan.Ingredients)
		resp.Plans = append(resp.Plans, plan)
	}

	return resp, nil
}

// craftCount is the number of items crafted from the rocket share of the
// first ingredient. Recipes without ingredients craft their yield.
func craftCount(yield float64, ingredients []crafting.PayloadIngredient) float64 {
	if len(ingredients) == 0 {
		return yield
	}
	first := ingredients[0]
	if first.Amount <= 0 {
		return 0
	}
	return yield * first.RocketCapacity / first.Amount
}
