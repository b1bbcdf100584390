package pipeline

import (
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// Barrel constants of the base game.
const (
	// EmptyBarrel is the reusable container every fluid barrel empties into.
	EmptyBarrel = "barrel"

	// FluidPerBarrel is the number of fluid units one barrel holds.
	FluidPerBarrel = 50.0

	BarrelStackSize   = 10
	BarrelWeight      = 1000.0
	EmptyBarrelEnergy = 0.2

	barrelSuffix = "-barrel"
)

// BarrelName returns the barrel item name of a fluid.
func BarrelName(fluid string) string {
	return fluid + barrelSuffix
}

// EmptyBarrelRecipeName returns the name of the recipe emptying a fluid
// barrel.
func EmptyBarrelRecipeName(fluid string) string {
	return "empty-" + BarrelName(fluid)
}

// Barrels holds the synthesized barrel items and their emptying recipes.
type Barrels struct {
	Items   []crafting.Item
	Recipes []crafting.Recipe
}

// SynthesizeBarrels creates a barrel item and an emptying recipe for every
// fluid that can be barreled. Each fluid is barreled once, in input order.
func SynthesizeBarrels(fluids []crafting.Fluid) Barrels {
	var b Barrels
	seen := make(map[string]bool, len(fluids))
	for i := range fluids {
		f := &fluids[i]
		if !f.Barrelable() || seen[f.Name] {
			continue
		}
		seen[f.Name] = true

		barrel := BarrelName(f.Name)
		b.Items = append(b.Items, crafting.Item{
			Type:      crafting.TypeItem,
			Name:      barrel,
			Subgroup:  "barrel",
			Icon:      f.Icon,
			StackSize: BarrelStackSize,
			Weight:    BarrelWeight,
		})
		b.Recipes = append(b.Recipes, crafting.Recipe{
			Type:           "recipe",
			Name:           EmptyBarrelRecipeName(f.Name),
			Category:       "crafting",
			Subgroup:       "empty-barrel",
			EnergyRequired: EmptyBarrelEnergy,
			Ingredients: []crafting.Ingredient{
				{Type: crafting.TypeItem, Name: barrel, Amount: 1},
			},
			Results: []crafting.Result{
				{Type: crafting.TypeItem, Name: EmptyBarrel, Amount: 1},
			},
		})
	}
	return b
}
