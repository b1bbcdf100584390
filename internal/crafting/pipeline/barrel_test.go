package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

func TestSynthesizeBarrels(t *testing.T) {
	no := false
	fluids := []crafting.Fluid{
		{Type: "fluid", Name: "water", Icon: "water.png"},
		{Type: "fluid", Name: "steam", AutoBarrel: &no},
		{Type: "fluid", Name: "fluid-unknown", Hidden: true},
		{Type: "fluid", Name: "crude-oil"},
		{Type: "fluid", Name: "water"},
	}

	b := SynthesizeBarrels(fluids)
	require.Len(t, b.Items, 2)
	require.Len(t, b.Recipes, 2)

	water := b.Items[0]
	assert.Equal(t, "water-barrel", water.Name)
	assert.Equal(t, crafting.TypeItem, water.Type)
	assert.Equal(t, "barrel", water.Subgroup)
	assert.Equal(t, "water.png", water.Icon)
	assert.Equal(t, BarrelStackSize, water.StackSize)
	assert.Equal(t, BarrelWeight, water.Weight)
	assert.Equal(t, "crude-oil-barrel", b.Items[1].Name)

	empty := b.Recipes[0]
	assert.Equal(t, "empty-water-barrel", empty.Name)
	assert.Equal(t, EmptyBarrelEnergy, empty.EnergyRequired)
	assert.Equal(t, []crafting.Ingredient{item("water-barrel", 1)}, empty.Ingredients)
	assert.Equal(t, []crafting.Result{product(EmptyBarrel, 1)}, empty.Results)
}

func TestSubstituteFluidBarrels(t *testing.T) {
	barrels := SynthesizeBarrels([]crafting.Fluid{{Name: "sulfuric-acid"}}).Items
	recipes := []crafting.Recipe{
		recipe("battery", []crafting.Ingredient{fluid("sulfuric-acid", 20), item("iron-plate", 1)}, product("battery", 1)),
		recipe("casting-iron", []crafting.Ingredient{fluid("molten-iron", 20)}, product("iron-plate", 2)),
	}

	n := SubstituteFluidBarrels(recipes, barrels)
	assert.Equal(t, 1, n)
	assert.Equal(t, []crafting.Ingredient{item("sulfuric-acid-barrel", 0.4), item("iron-plate", 1)}, recipes[0].Ingredients)
	assert.Equal(t, []crafting.Ingredient{fluid("molten-iron", 20)}, recipes[1].Ingredients)

	// A second run changes nothing.
	before := cloneRecipes(recipes)
	assert.Zero(t, SubstituteFluidBarrels(recipes, barrels))
	assert.Equal(t, before, recipes)
}

func cloneRecipes(recipes []crafting.Recipe) []crafting.Recipe {
	out := make([]crafting.Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r
		out[i].Ingredients = append([]crafting.Ingredient{}, r.Ingredients...)
		out[i].Results = append([]crafting.Result{}, r.Results...)
	}
	return out
}
