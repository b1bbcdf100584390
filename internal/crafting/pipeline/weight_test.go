package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

func newItem(name string, stack int, weight float64) crafting.Item {
	return crafting.Item{Type: crafting.TypeItem, Name: name, StackSize: stack, Weight: weight}
}

func productive(r crafting.Recipe) crafting.Recipe {
	r.AllowProductivity = true
	return r
}

func weights(items []crafting.Item) map[string]float64 {
	out := make(map[string]float64, len(items))
	for _, it := range items {
		out[it.Name] = it.Weight
	}
	return out
}

func TestResolveWeights(t *testing.T) {
	circuit := newItem("electronic-circuit", 200, 0)
	circuit.IngredientToWeightCoefficient = 0.28

	// Listed dependents first so resolution needs several passes.
	items := []crafting.Item{
		circuit,
		newItem("copper-cable", 200, 0),
		newItem("iron-plate", 100, 0),
		newItem("copper-plate", 100, 0),
		newItem("iron-ore", 50, 2000),
		newItem("copper-ore", 50, 2000),
		newItem("pipe", 100, 0),
		newItem("wood", 100, 0),
	}
	recipes := []crafting.Recipe{
		productive(recipe("electronic-circuit", []crafting.Ingredient{item("iron-plate", 1), item("copper-cable", 3)}, product("electronic-circuit", 1))),
		productive(recipe("copper-cable", []crafting.Ingredient{item("copper-plate", 1)}, product("copper-cable", 2))),
		productive(recipe("iron-plate", []crafting.Ingredient{item("iron-ore", 1)}, product("iron-plate", 1))),
		productive(recipe("copper-plate", []crafting.Ingredient{item("copper-ore", 1)}, product("copper-plate", 1))),
		recipe("pipe", []crafting.Ingredient{item("iron-plate", 1)}, product("pipe", 1)),
		// Never the first recipe of iron-plate.
		recipe("scrap-iron", []crafting.Ingredient{item("wood", 100)}, product("iron-plate", 1)),
	}

	require.NoError(t, ResolveWeights(items, recipes))
	assert.Equal(t, map[string]float64{
		"electronic-circuit": 500,
		"copper-cable":       250,
		"iron-plate":         1000,
		"copper-plate":       1000,
		"iron-ore":           2000,
		"copper-ore":         2000,
		"pipe":               10000,
		"wood":               DefaultItemWeight,
	}, weights(items))
}

func TestResolveWeightsFluidAndStacks(t *testing.T) {
	items := []crafting.Item{
		newItem("battery", 200, 0),
		newItem("iron-plate", 100, 1000),
		newItem("copper-plate", 100, 1000),
		newItem("heavy", 10, 0),
		newItem("no-stack", 0, 0),
	}
	recipes := []crafting.Recipe{
		productive(recipe("battery", []crafting.Ingredient{fluid("sulfuric-acid", 20), item("iron-plate", 1), item("copper-plate", 1)}, product("battery", 1))),
		// One stack outweighs a rocket: the intermediate weight is kept.
		productive(recipe("heavy", []crafting.Ingredient{item("iron-plate", 500)}, product("heavy", 1))),
		recipe("no-stack", []crafting.Ingredient{item("iron-plate", 3)}, product("no-stack", 1)),
	}

	require.NoError(t, ResolveWeights(items, recipes))
	w := weights(items)
	assert.Equal(t, 2500.0, w["battery"])
	assert.Equal(t, 250000.0, w["heavy"])
	assert.Equal(t, 1500.0, w["no-stack"])
}

func TestResolveWeightsDefaults(t *testing.T) {
	items := []crafting.Item{
		newItem("no-recipe", 50, 0),
		newItem("no-results", 50, 0),
		newItem("zero-yield", 50, 0),
	}
	recipes := []crafting.Recipe{
		recipe("no-results", nil),
		recipe("zero-yield", []crafting.Ingredient{}, product("zero-yield", 0)),
	}
	require.NoError(t, ResolveWeights(items, recipes))
	for _, it := range items {
		assert.Equal(t, DefaultItemWeight, it.Weight, it.Name)
	}
}

func TestResolveWeightsCycle(t *testing.T) {
	items := []crafting.Item{
		newItem("a", 50, 0),
		newItem("b", 50, 0),
		newItem("ore", 50, 1000),
		newItem("plate", 50, 0),
	}
	recipes := []crafting.Recipe{
		recipe("a", []crafting.Ingredient{item("b", 1)}, product("a", 1)),
		recipe("b", []crafting.Ingredient{item("a", 1)}, product("b", 1)),
		recipe("plate", []crafting.Ingredient{item("ore", 1)}, product("plate", 1)),
	}

	err := ResolveWeights(items, recipes)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicDependency)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.ElementsMatch(t, []string{"a", "b"}, cycle.Names)

	// The unrelated item still resolves.
	assert.Equal(t, 20000.0, items[3].Weight)
	assert.Zero(t, items[0].Weight)
}

func TestResolveWeightsCycleNamesSorted(t *testing.T) {
	items := []crafting.Item{
		newItem("zinc", 50, 0),
		newItem("alloy", 50, 0),
	}
	recipes := []crafting.Recipe{
		recipe("zinc", []crafting.Ingredient{item("alloy", 1)}, product("zinc", 1)),
		recipe("alloy", []crafting.Ingredient{item("zinc", 1)}, product("alloy", 1)),
	}

	err := ResolveWeights(items, recipes)
	require.Error(t, err)
	assert.EqualError(t, err, "weight resolution: cyclic dependency among 2 entities: alloy, zinc")
}

func TestResolveWeightsMissingIngredient(t *testing.T) {
	items := []crafting.Item{
		newItem("gizmo", 50, 0),
		newItem("widget", 50, 0),
		newItem("plate", 50, 0),
		newItem("ore", 50, 1000),
	}
	recipes := []crafting.Recipe{
		recipe("gizmo", []crafting.Ingredient{item("widget", 1)}, product("gizmo", 1)),
		recipe("widget", []crafting.Ingredient{item("unobtainium", 1)}, product("widget", 1)),
		recipe("plate", []crafting.Ingredient{item("ore", 1)}, product("plate", 1)),
	}

	err := ResolveWeights(items, recipes)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvableReference)
	assert.NotErrorIs(t, err, ErrCyclicDependency)

	var ref *UnresolvableReferenceError
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, "unobtainium", ref.Name)
	assert.Contains(t, err.Error(), "gizmo")

	assert.Zero(t, items[0].Weight)
	assert.Zero(t, items[1].Weight)
	assert.Equal(t, 20000.0, items[2].Weight)
}

func TestStackWeight(t *testing.T) {
	tests := []struct {
		name         string
		intermediate float64
		stack        int
		productivity bool
		want         float64
	}{
		{"floor without productivity", 100, 100, false, 10000},
		{"heavy without productivity", 50000, 100, false, 50000},
		{"rounded to whole stacks", 5750, 50, true, 1e6 / 3 / 50},
		{"exact stacks", 1000, 100, true, 1000},
		{"less than one stack", 30000, 50, true, 30000},
		{"unknown stack size", 1234, 0, true, 1234},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, stackWeight(tt.intermediate, tt.stack, tt.productivity), 1e-9)
		})
	}
}

func TestFilterItems(t *testing.T) {
	items := []crafting.Item{
		newItem("blueprint", 1, DefaultItemWeight),
		newItem("iron-plate", 100, 1000),
		newItem("copper-cable", 200, 250),
	}

	got := FilterItems(items)
	require.Len(t, got, 2)
	assert.Equal(t, "iron-plate", got[0].Name)
	assert.Equal(t, "copper-cable", got[1].Name)
}

func TestVisibleItems(t *testing.T) {
	hidden := newItem("item-unknown", 1, 5000)
	hidden.Hidden = true
	items := []crafting.Item{hidden, newItem("iron-plate", 100, 1000)}

	got := VisibleItems(items)
	require.Len(t, got, 1)
	assert.Equal(t, "iron-plate", got[0].Name)
}
