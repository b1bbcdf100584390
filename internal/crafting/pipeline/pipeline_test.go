package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsned/rocket-capacity-server/internal/crafting/source"
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

var testManifest = source.Manifest{
	Items:   []string{"base/prototypes/item.lua", "space-age/prototypes/item.lua"},
	Recipes: []string{"base/prototypes/recipe.lua", "space-age/prototypes/recipe.lua"},
	Fluids:  []string{"base/prototypes/fluid.lua", "space-age/prototypes/fluid.lua"},
	Patches: []string{"space-age/base-data-updates.lua"},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadTestData(t *testing.T) *GameData {
	t.Helper()
	bundle, err := source.Fetch(context.Background(), source.DirReader{Root: "testdata"}, testManifest, 2)
	require.NoError(t, err)
	data, diags, err := Parse(bundle)
	require.NoError(t, err)
	require.Empty(t, diags)
	return data
}

func findItem(t *testing.T, items []crafting.EnrichedItem, name string) crafting.EnrichedItem {
	t.Helper()
	for _, it := range items {
		if it.Name == name {
			return it
		}
	}
	require.Failf(t, "item not found", "%s is not in the catalog", name)
	return crafting.EnrichedItem{}
}

func findAlternative(t *testing.T, item crafting.EnrichedItem, recipe string) crafting.Alternative {
	t.Helper()
	for _, alt := range item.Alternatives {
		if alt.Name == recipe {
			return alt
		}
	}
	require.Failf(t, "alternative not found", "%s has no alternative %s", item.Name, recipe)
	return crafting.Alternative{}
}

func amounts(ings []crafting.EnrichedIngredient) map[string]float64 {
	out := make(map[string]float64, len(ings))
	for _, ing := range ings {
		out[ing.Name] = ing.Amount
	}
	return out
}

func TestCollectScenarios(t *testing.T) {
	c := NewCollector(source.DirReader{Root: "testdata"}, testManifest, Options{}, discardLogger())
	catalog, err := c.Collect(context.Background())
	require.NoError(t, err)

	tests := []struct {
		item     string
		capacity float64
	}{
		{"flying-robot-frame", 150},
		{"electronic-circuit", 2000},
		{"iron-ore", 500},
		{"battery", 400},
		{"water-barrel", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			assert.InDelta(t, tt.capacity, findItem(t, catalog.Items, tt.item).RocketCapacity, 1e-6)
		})
	}

	cliff := findAlternative(t, findItem(t, catalog.Items, "cliff-explosives"), "cliff-explosives")
	assert.Equal(t, map[string]float64{
		"explosives": 10,
		"calcite":    10,
		"grenade":    1,
		"barrel":     1,
	}, amounts(cliff.Ingredients))

	module := findAlternative(t, findItem(t, catalog.Items, "productivity-module-3"), "productivity-module-3")
	assert.Equal(t, 1.0, amounts(module.Ingredients)["biter-egg"])

	battery := findAlternative(t, findItem(t, catalog.Items, "battery"), "battery")
	assert.Equal(t, map[string]float64{
		"sulfuric-acid-barrel": 0.4,
		"iron-plate":           1,
		"copper-plate":         1,
	}, amounts(battery.Ingredients))

	plate := findItem(t, catalog.Items, "iron-plate")
	require.Len(t, plate.Alternatives, 2)
	casting := findAlternative(t, plate, "casting-iron")
	assert.Equal(t, crafting.SurfaceVulcanus, casting.CraftedOnlyOn)
	assert.InDeltaMapValues(t, map[string]float64{"iron-ore": 2, "calcite": 0.04}, amounts(casting.Ingredients), 1e-9)

	egg := findAlternative(t, findItem(t, catalog.Items, "biter-egg"), "biter-egg-recycling")
	assert.Equal(t, crafting.SurfaceSpace, egg.CraftedOnlyOn)

	for _, it := range catalog.Items {
		assert.NotEqual(t, "blueprint", it.Name)
		assert.NotEqual(t, "item-unknown", it.Name)
		assert.Empty(t, it.Icon)
	}

	assert.Equal(t, Stats{
		Items:             24,
		Recipes:           22,
		Fluids:            7,
		Patches:           5,
		Barrels:           3,
		BarrelSubstituted: 5,
		FluidsExpanded:    1,
	}, catalog.Stats)
}

func TestBuildProperties(t *testing.T) {
	data := loadTestData(t)
	catalog, err := Build(data, Options{WithIconPaths: true})
	require.NoError(t, err)

	weight := make(map[string]float64)
	for _, it := range data.Items {
		weight[it.Name] = it.Weight
	}
	weight["water-barrel"] = BarrelWeight

	for _, it := range catalog.Items {
		assert.NotEmpty(t, it.Icon, it.Name)
		if w, ok := weight[it.Name]; ok {
			assert.InDelta(t, RocketLiftWeight/w, it.RocketCapacity, 1e-6, it.Name)
		}
		for _, alt := range it.Alternatives {
			if len(alt.Ingredients) == 0 {
				continue
			}
			sum := 0.0
			for _, ing := range alt.Ingredients {
				sum += ing.WeightRatio
			}
			assert.InDelta(t, 1.0, sum, 1e-6, "%s/%s", it.Name, alt.Name)
		}
	}

	produced := make(map[string]bool)
	for _, r := range catalog.Recipes {
		for _, res := range r.Results {
			produced[res.Name] = true
		}
	}
	for _, r := range catalog.Recipes {
		for _, ing := range r.Ingredients {
			if ing.IsFluid() {
				assert.False(t, produced[ing.Name], "%s still needs producible fluid %s", r.Name, ing.Name)
			}
		}
	}

	// Substitution is a fixed point.
	before := cloneRecipes(catalog.Recipes)
	var barrels []crafting.Item
	for _, it := range catalog.Items {
		if it.Subgroup == "barrel" {
			barrels = append(barrels, crafting.Item{Name: it.Name})
		}
	}
	assert.Zero(t, SubstituteFluidBarrels(catalog.Recipes, barrels))
	n, err := SubstituteFluidItems(catalog.Recipes)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, before, catalog.Recipes)
}

func TestBuildPartial(t *testing.T) {
	data := loadTestData(t)
	data.Patches = append(data.Patches, crafting.DataPatch{RecipeName: "flying-robot-frme", PropertyName: "energy_required", Value: 1.0})

	catalog, err := Build(data, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvableReference)
	assert.Contains(t, err.Error(), `did you mean "flying-robot-frame"`)
	assert.Equal(t, 1, catalog.Stats.UnresolvedEntities)
	assert.InDelta(t, 150, findItem(t, catalog.Items, "flying-robot-frame").RocketCapacity, 1e-6)
}

func TestBuildIgnoresHiddenItems(t *testing.T) {
	ghostA := newItem("ghost-a", 10, 0)
	ghostA.Hidden = true
	ghostB := newItem("ghost-b", 10, 0)
	ghostB.Hidden = true

	data := &GameData{
		Items: []crafting.Item{
			ghostA,
			ghostB,
			newItem("iron-plate", 100, 1000),
			newItem("iron-gear-wheel", 100, 0),
		},
		Recipes: []crafting.Recipe{
			recipe("ghost-a", []crafting.Ingredient{item("ghost-b", 1)}, product("ghost-a", 1)),
			recipe("ghost-b", []crafting.Ingredient{item("ghost-a", 1)}, product("ghost-b", 1)),
			recipe("iron-gear-wheel", []crafting.Ingredient{item("iron-plate", 2)}, product("iron-gear-wheel", 1)),
		},
	}

	catalog, err := Build(data, Options{})
	require.NoError(t, err)
	assert.Zero(t, catalog.Stats.UnresolvedEntities)

	names := make([]string, 0, len(catalog.Items))
	for _, it := range catalog.Items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"iron-plate", "iron-gear-wheel"}, names)
	assert.InDelta(t, 100, findItem(t, catalog.Items, "iron-gear-wheel").RocketCapacity, 1e-9)
}

func TestMergeByName(t *testing.T) {
	base := []crafting.Item{newItem("a", 1, 1), newItem("b", 1, 1)}
	next := []crafting.Item{newItem("c", 1, 3), newItem("a", 1, 2)}

	got := mergeByName(base, next, func(i crafting.Item) string { return i.Name })
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, 2.0, got[0].Weight)
	assert.Equal(t, "b", got[1].Name)
	assert.Equal(t, "c", got[2].Name)
}
