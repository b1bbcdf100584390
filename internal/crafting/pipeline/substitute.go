package pipeline

import (
	"strings"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// SubstituteFluidBarrels replaces every fluid ingredient that has a barrel
// item with that barrel, FluidPerBarrel fluid units to a barrel. It returns
// the number of ingredients replaced. Running it twice is a no-op.
func SubstituteFluidBarrels(recipes []crafting.Recipe, barrels []crafting.Item) int {
	known := make(map[string]bool, len(barrels))
	for _, b := range barrels {
		known[b.Name] = true
	}

	replaced := 0
	for ri := range recipes {
		ings := recipes[ri].Ingredients
		for i := range ings {
			if !ings[i].IsFluid() {
				continue
			}
			barrel := BarrelName(strings.TrimSuffix(ings[i].Name, barrelSuffix))
			if !known[barrel] {
				continue
			}
			ings[i] = crafting.Ingredient{
				Type:   crafting.TypeItem,
				Name:   barrel,
				Amount: ings[i].Amount / FluidPerBarrel,
			}
			replaced++
		}
	}
	return replaced
}

// fluidSubstitution expands fluid ingredients into the ingredients of the
// recipe producing the fluid.
type fluidSubstitution struct {
	recipes []crafting.Recipe
	// producer maps a fluid to the index of the recipe used to expand it.
	producer map[string]int
	// cyclic marks fluids whose expansion never bottoms out.
	cyclic map[string]bool
}

// SubstituteFluidItems replaces fluid ingredients that have no barrel with
// the ingredients of the fluid's production recipe, scaled to the amount
// needed, until no replaceable fluid is left.
//
// The production recipe of a fluid is the first recipe yielding it that does
// not itself consume the fluid. Fluids without one are irreducible and stay
// in place. Recipes needing a fluid whose production chain loops back on
// itself are left untouched and reported in a CycleError; every other recipe
// is still substituted. It returns the number of fluid ingredients expanded.
func SubstituteFluidItems(recipes []crafting.Recipe) (int, error) {
	s := &fluidSubstitution{
		recipes:  recipes,
		producer: make(map[string]int),
	}
	s.findProducers()
	s.findCycles()

	var stuck []string
	pending := make([]int, 0, len(recipes))
	for ri := range recipes {
		expandable, blocked := s.scan(ri)
		if blocked {
			stuck = append(stuck, recipes[ri].Name)
		}
		if expandable {
			pending = append(pending, ri)
		}
	}

	expanded := 0
	for pass := 0; len(pending) > 0; pass++ {
		if pass > len(recipes) {
			names := make([]string, 0, len(pending))
			for _, ri := range pending {
				names = append(names, recipes[ri].Name)
			}
			return expanded, &CycleError{Stage: "fluid substitution", Names: sortedNames(append(stuck, names...))}
		}

		next := pending[:0]
		for _, ri := range pending {
			expanded += s.expand(ri)
			if expandable, _ := s.scan(ri); expandable {
				next = append(next, ri)
			}
		}
		pending = next
	}

	if len(stuck) > 0 {
		return expanded, &CycleError{Stage: "fluid substitution", Names: sortedNames(stuck)}
	}
	return expanded, nil
}

func (s *fluidSubstitution) findProducers() {
	for ri := range s.recipes {
		r := &s.recipes[ri]
		for _, res := range r.Results {
			if res.Type != crafting.TypeFluid || res.Yield() <= 0 {
				continue
			}
			if _, ok := s.producer[res.Name]; ok || consumes(r, res.Name) {
				continue
			}
			s.producer[res.Name] = ri
		}
	}
}

// findCycles marks every fluid that can reach a cycle in the graph linking a
// fluid to the fluids its producer consumes.
func (s *fluidSubstitution) findCycles() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.producer))
	s.cyclic = make(map[string]bool)

	var visit func(fluid string) bool
	visit = func(fluid string) bool {
		switch state[fluid] {
		case visiting:
			return true
		case done:
			return s.cyclic[fluid]
		}
		state[fluid] = visiting
		loops := false
		for _, ing := range s.recipes[s.producer[fluid]].Ingredients {
			if _, ok := s.producer[ing.Name]; ok && ing.IsFluid() && visit(ing.Name) {
				loops = true
			}
		}
		state[fluid] = done
		s.cyclic[fluid] = loops
		return loops
	}
	for fluid := range s.producer {
		visit(fluid)
	}
}

// scan reports whether recipe ri has a fluid ingredient that can be
// expanded, and whether it has one that is blocked by a cycle.
func (s *fluidSubstitution) scan(ri int) (expandable, blocked bool) {
	for _, ing := range s.recipes[ri].Ingredients {
		if !ing.IsFluid() {
			continue
		}
		if _, ok := s.producer[ing.Name]; !ok {
			continue
		}
		if s.cyclic[ing.Name] {
			blocked = true
		} else {
			expandable = true
		}
	}
	return expandable, blocked
}

// expand replaces the expandable fluid ingredients of recipe ri that are
// present at the start of the call. Each fluid is scaled by its amount at
// the time it is replaced, so shares merged in by an earlier expansion are
// carried along. A fluid merged back in after its own replacement is left
// for the next pass. It returns how many were replaced.
func (s *fluidSubstitution) expand(ri int) int {
	target := &s.recipes[ri]

	var names []string
	for _, ing := range target.Ingredients {
		if _, ok := s.producer[ing.Name]; ok && ing.IsFluid() && !s.cyclic[ing.Name] {
			names = append(names, ing.Name)
		}
	}

	replaced := 0
	for _, name := range names {
		amount, ok := fluidAmount(target, name)
		if !ok {
			continue
		}
		src := &s.recipes[s.producer[name]]
		res, _ := resultFor(src, name, crafting.TypeFluid)
		ratio := amount / res.Yield()

		target.Ingredients = removeIngredient(target.Ingredients, name, crafting.TypeFluid)
		for _, ing := range src.Ingredients {
			ing.Amount *= ratio
			target.Ingredients = mergeIngredient(target.Ingredients, ing)
		}
		replaced++
	}
	return replaced
}

// fluidAmount returns the current amount of fluid name in r.
func fluidAmount(r *crafting.Recipe, name string) (float64, bool) {
	for _, ing := range r.Ingredients {
		if ing.Name == name && ing.IsFluid() {
			return ing.Amount, true
		}
	}
	return 0, false
}

// consumes reports whether r has an ingredient named name.
func consumes(r *crafting.Recipe, name string) bool {
	for _, ing := range r.Ingredients {
		if ing.Name == name {
			return true
		}
	}
	return false
}

// resultFor returns the first result of r with the given name and type.
func resultFor(r *crafting.Recipe, name, typ string) (crafting.Result, bool) {
	for _, res := range r.Results {
		if res.Name == name && resultType(res) == typ {
			return res, true
		}
	}
	return crafting.Result{}, false
}

func resultType(res crafting.Result) string {
	if res.Type == "" {
		return crafting.TypeItem
	}
	return res.Type
}

func removeIngredient(list []crafting.Ingredient, name, typ string) []crafting.Ingredient {
	out := list[:0]
	for _, ing := range list {
		if ing.Name == name && ing.Type == typ {
			continue
		}
		out = append(out, ing)
	}
	return out
}

// mergeIngredient adds ing to list, summing amounts with an ingredient of
// the same name and type.
func mergeIngredient(list []crafting.Ingredient, ing crafting.Ingredient) []crafting.Ingredient {
	for i := range list {
		if list[i].Name == ing.Name && list[i].Type == ing.Type {
			list[i].Amount += ing.Amount
			return list
		}
	}
	return append(list, ing)
}
