package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemFixture = `
local item_sounds = require("__base__.prototypes.item_sounds")

data:extend(
{
  {
    type = "item",
    name = "iron-ore",
    icon = "__base__/graphics/icons/iron-ore.png",
    subgroup = "raw-resource",
    order = "e[iron-ore]",
    inventory_move_sound = item_sounds.resource_inventory_move,
    stack_size = 50,
    weight = 2 * kg
  },
  {
    type = "item",
    name = "coal",
    icon = "__base__/graphics/icons/coal.png",
    fuel_category = "chemical",
    fuel_value = "4MJ",
    subgroup = "raw-resource",
    stack_size = 50,
    weight = 1 * tons / 100
  },
  {
    type = "item",
    name = "electronic-circuit",
    icon = "__base__/graphics/icons/electronic-circuit.png",
    subgroup = "intermediate-product",
    ingredient_to_weight_coefficient = 0.28,
    stack_size = 200
  },
  {
    type = "blueprint",
    name = "blueprint",
    icon = "__base__/graphics/icons/blueprint.png",
    hidden = true,
    stack_size = 1,
    weight = weight_of_paper
  }
})
`

func TestParseItems(t *testing.T) {
	items, errs, err := ParseItems("item.lua", itemFixture)
	require.NoError(t, err)
	require.Len(t, items, 4)

	ore := items[0]
	assert.Equal(t, "item", ore.Type)
	assert.Equal(t, "iron-ore", ore.Name)
	assert.Equal(t, "raw-resource", ore.Subgroup)
	assert.Equal(t, "__base__/graphics/icons/iron-ore.png", ore.Icon)
	assert.Equal(t, 50, ore.StackSize)
	assert.Equal(t, 2000.0, ore.Weight)
	assert.True(t, ore.HasWeight())

	coal := items[1]
	assert.Equal(t, 4e6, coal.FuelValue)
	assert.Equal(t, "chemical", coal.FuelCategory)
	assert.InDelta(t, 10000.0, coal.Weight, 1e-9)

	circuit := items[2]
	assert.Equal(t, 0.28, circuit.IngredientToWeightCoefficient)
	assert.False(t, circuit.HasWeight())

	blueprint := items[3]
	assert.True(t, blueprint.Hidden)
	assert.False(t, blueprint.HasWeight())

	// The unknown symbol in the blueprint weight is reported, not fatal.
	require.Len(t, errs, 1)
	assert.Equal(t, "blueprint", errs[0].Entity)
	assert.Equal(t, "weight", errs[0].Field)
	assert.Equal(t, "item.lua", errs[0].Source)
	assert.ErrorIs(t, errs[0], ErrUnknownSymbol)
}

func TestParseItemsWithoutSection(t *testing.T) {
	_, _, err := ParseItems("empty.lua", "-- nothing here")
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestParseItemsSkipsUnnamedEntries(t *testing.T) {
	items, errs, err := ParseItems("item.lua", `data:extend({ { type = "item", stack_size = 5 }, "stray" })`)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, errs, 2)
}
