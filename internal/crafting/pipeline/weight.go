package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// Weight constants, in grams.
const (
	// RocketLiftWeight is the payload one rocket carries.
	RocketLiftWeight = 1_000_000.0

	// DefaultItemWeight is used for items without a usable recipe.
	DefaultItemWeight = 100.0

	// FluidIngredientWeight is the weight of one unit of a fluid ingredient.
	FluidIngredientWeight = 100.0

	// DefaultIngredientToWeightCoefficient scales the ingredient weight of
	// items that do not set their own coefficient.
	DefaultIngredientToWeightCoefficient = 0.5
)

// ResolveWeights derives the weight of every item without an authored one
// from the first recipe producing it.
//
// Items are resolved in passes; an item waits until every item ingredient
// of its recipe has a weight. A pass that resolves nothing ends resolution
// with a CycleError naming the waiting items. An ingredient missing from the
// item list fails the item with an UnresolvableReferenceError, and every
// item waiting on it fails too. Unrelated items still resolve.
func ResolveWeights(items []crafting.Item, recipes []crafting.Recipe) error {
	r := &weightResolver{
		items:   items,
		recipes: recipes,
		index:   newRecipeIndex(items, recipes),
		failed:  make(map[string]bool),
	}

	pending := make([]int, 0, len(items))
	for i := range items {
		if !items[i].HasWeight() {
			pending = append(pending, i)
		}
	}

	var errs []error
	for len(pending) > 0 {
		progressed := false
		next := pending[:0]
		for _, i := range pending {
			w, ready, err := r.weigh(&items[i])
			switch {
			case err != nil:
				errs = append(errs, err)
				r.failed[items[i].Name] = true
				progressed = true
			case ready:
				items[i].Weight = w
				progressed = true
			default:
				next = append(next, i)
			}
		}
		pending = next

		if !progressed {
			names := make([]string, 0, len(pending))
			for _, i := range pending {
				names = append(names, items[i].Name)
			}
			errs = append(errs, &CycleError{Stage: "weight resolution", Names: sortedNames(names)})
			break
		}
	}
	return errors.Join(errs...)
}

type weightResolver struct {
	items   []crafting.Item
	recipes []crafting.Recipe
	index   *recipeIndex
	failed  map[string]bool
}

// weigh computes the weight of item. It returns ready == false while an
// ingredient weight is still unknown.
func (r *weightResolver) weigh(item *crafting.Item) (float64, bool, error) {
	producers := r.index.producers[item.Name]
	if len(producers) == 0 {
		return DefaultItemWeight, true, nil
	}
	recipe := &r.recipes[producers[0]]

	total := 0.0
	for _, ing := range recipe.Ingredients {
		if ing.IsFluid() {
			total += ing.Amount * FluidIngredientWeight
			continue
		}
		i, ok := r.index.item(ing.Name)
		if !ok {
			return 0, false, &UnresolvableReferenceError{
				Kind:    "item",
				Name:    ing.Name,
				Context: fmt.Sprintf("ingredient of recipe %s for %s", recipe.Name, item.Name),
			}
		}
		if r.failed[ing.Name] {
			return 0, false, fmt.Errorf("weighing %s: ingredient %s has no weight: %w", item.Name, ing.Name, ErrUnresolvableReference)
		}
		if !r.items[i].HasWeight() {
			return 0, false, nil
		}
		total += ing.Amount * r.items[i].Weight
	}

	res, ok := resultFor(recipe, item.Name, crafting.TypeItem)
	if !ok || res.Count() <= 0 {
		return DefaultItemWeight, true, nil
	}

	coefficient := item.IngredientToWeightCoefficient
	if coefficient <= 0 {
		coefficient = DefaultIngredientToWeightCoefficient
	}
	intermediate := total / res.Count() * coefficient
	if intermediate <= 0 {
		return DefaultItemWeight, true, nil
	}
	return stackWeight(intermediate, item.StackSize, recipe.AllowProductivity), true, nil
}

// stackWeight rounds an ingredient-derived weight so that a rocket carries a
// whole number of stacks.
func stackWeight(intermediate float64, stackSize int, productivity bool) float64 {
	if stackSize <= 0 {
		return intermediate
	}
	stack := float64(stackSize)
	if !productivity {
		return math.Max(intermediate, RocketLiftWeight/stack)
	}
	stacks := RocketLiftWeight / intermediate / stack
	if stacks <= 1 {
		return intermediate
	}
	return RocketLiftWeight / math.Floor(stacks) / stack
}

// VisibleItems drops hidden items. Hidden prototypes never reach weight
// resolution or the catalog.
func VisibleItems(items []crafting.Item) []crafting.Item {
	out := make([]crafting.Item, 0, len(items))
	for _, it := range items {
		if !it.Hidden {
			out = append(out, it)
		}
	}
	return out
}

// FilterItems drops items that are still at or below the default weight,
// which are the UI tools and placeholders of the game data.
func FilterItems(items []crafting.Item) []crafting.Item {
	out := make([]crafting.Item, 0, len(items))
	for _, it := range items {
		if it.Weight <= DefaultItemWeight {
			continue
		}
		out = append(out, it)
	}
	return out
}
