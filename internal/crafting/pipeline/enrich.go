package pipeline

import (
	"errors"
	"fmt"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// Enrich builds the catalog entry of every item, in item order.
//
// The alternatives of an item are the recipes producing it whose
// ingredients are all items of the list; recipes still needing a fluid or a
// filtered item cannot fill a rocket and are left out. Items without a
// positive weight cannot be shipped and fail with an
// UnresolvableReferenceError.
func Enrich(items []crafting.Item, recipes []crafting.Recipe, withIconPaths bool) ([]crafting.EnrichedItem, error) {
	idx := newRecipeIndex(items, recipes)

	var errs []error
	out := make([]crafting.EnrichedItem, 0, len(items))
	for i := range items {
		item := &items[i]
		if !item.HasWeight() {
			errs = append(errs, &UnresolvableReferenceError{Kind: "weight", Name: item.Name, Context: "rocket capacity"})
			continue
		}

		e := crafting.EnrichedItem{
			Type:           item.Type,
			Name:           item.Name,
			Subgroup:       item.Subgroup,
			StackSize:      item.StackSize,
			RocketCapacity: RocketLiftWeight / item.Weight,
			Alternatives:   []crafting.Alternative{},
		}
		if withIconPaths {
			e.Icon = item.Icon
		}

		for _, ri := range idx.producers[item.Name] {
			alt, ok, err := alternative(idx, items, &recipes[ri], item.Name)
			if err != nil {
				errs = append(errs, fmt.Errorf("enriching %s: %w", item.Name, err))
				continue
			}
			if ok {
				e.Alternatives = append(e.Alternatives, alt)
			}
		}
		out = append(out, e)
	}
	return out, errors.Join(errs...)
}

// alternative describes recipe r as a way of producing the named item. It
// returns ok == false when r has an ingredient outside the item list.
func alternative(idx *recipeIndex, items []crafting.Item, r *crafting.Recipe, name string) (crafting.Alternative, bool, error) {
	weights := make([]float64, len(r.Ingredients))
	total := 0.0
	for k, ing := range r.Ingredients {
		if ing.IsFluid() {
			return crafting.Alternative{}, false, nil
		}
		i, ok := idx.item(ing.Name)
		if !ok {
			return crafting.Alternative{}, false, nil
		}
		if !items[i].HasWeight() {
			return crafting.Alternative{}, false, &UnresolvableReferenceError{
				Kind:    "weight",
				Name:    ing.Name,
				Context: "ingredient of recipe " + r.Name,
			}
		}
		weights[k] = ing.Amount * items[i].Weight
		total += weights[k]
	}

	res, _ := resultFor(r, name, crafting.TypeItem)
	alt := crafting.Alternative{
		Name:          r.Name,
		Yield:         res.Yield(),
		Ingredients:   make([]crafting.EnrichedIngredient, 0, len(r.Ingredients)),
		CraftedOnlyOn: CraftedOnlyOn(r.SurfaceConditions),
	}
	for k, ing := range r.Ingredients {
		ratio := 0.0
		if total > 0 {
			ratio = weights[k] / total
		}
		alt.Ingredients = append(alt.Ingredients, crafting.EnrichedIngredient{
			Name:        ing.Name,
			Amount:      ing.Amount,
			WeightRatio: ratio,
		})
	}
	return alt, true, nil
}

// CraftedOnlyOn classifies the surface a recipe is restricted to from its
// first surface condition. Unconditioned recipes return "".
func CraftedOnlyOn(conditions []crafting.SurfaceCondition) crafting.Surface {
	if len(conditions) == 0 {
		return ""
	}
	c := conditions[0]
	switch c.Property {
	case "magnetic-field":
		return crafting.SurfaceFulgora
	case "gravity":
		return crafting.SurfaceSpace
	case "pressure":
		switch {
		case c.Max == 4000:
			return crafting.SurfaceVulcanus
		case c.Max == 2000:
			return crafting.SurfaceGleba
		case c.Min == 1000:
			return crafting.SurfaceNauvis
		}
		return crafting.SurfaceAquilo
	}
	return ""
}
