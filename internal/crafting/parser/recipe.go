package parser

import (
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// RecipeFields are the recipe prototype keys kept by the parser, including
// the keys of nested ingredient, result and surface condition tables.
var RecipeFields = NewFieldSet(
	"type",
	"name",
	"category",
	"subgroup",
	"ingredients",
	"energy_required",
	"results",
	"probability",
	"amount",
	"amount_min",
	"amount_max",
	"allow_productivity",
	"temperature",
	"surface_conditions",
	"property",
	"min",
	"max",
)

// recipeNumbers are evaluated to numbers, e.g. a `-150` temperature.
var recipeNumbers = map[string]UnitTable{
	"temperature":     NoUnits,
	"energy_required": NoUnits,
	"amount":          NoUnits,
	"amount_min":      NoUnits,
	"amount_max":      NoUnits,
	"probability":     NoUnits,
	"min":             NoUnits,
	"max":             NoUnits,
}

func recipeExtractor() *Extractor {
	return &Extractor{Fields: RecipeFields, Evaluate: NumericField(recipeNumbers)}
}

// ParseRecipes parses the recipe prototypes of a Lua data file.
func ParseRecipes(source, content string) ([]crafting.Recipe, []*ParseError, error) {
	records, errs, err := parseEntities(source, content, recipeExtractor())
	if err != nil {
		return nil, nil, err
	}

	recipes := make([]crafting.Recipe, 0, len(records))
	for _, r := range records {
		if t, ok := r["type"]; ok && t != "recipe" {
			continue
		}
		normalizeProducts(r)

		var recipe crafting.Recipe
		if perr := decodeEntity(source, r, &recipe); perr != nil {
			errs = append(errs, perr)
			continue
		}
		if recipe.Ingredients == nil {
			recipe.Ingredients = []crafting.Ingredient{}
		}
		if recipe.Results == nil {
			recipe.Results = []crafting.Result{}
		}
		recipes = append(recipes, recipe)
	}
	return recipes, errs, nil
}

// normalizeProducts rewrites the ingredient and result lists of a recipe
// record into the long form.
func normalizeProducts(record map[string]any) {
	for _, key := range []string{"ingredients", "results"} {
		list, ok := record[key].([]any)
		if !ok {
			continue
		}
		for i, p := range list {
			list[i] = normalizeProduct(p)
		}
	}
}

// normalizeProduct expands the {"name", amount} shorthand and defaults the
// product type to item.
func normalizeProduct(p any) any {
	switch v := p.(type) {
	case []any:
		if len(v) != 2 {
			return p
		}
		name, ok := v[0].(string)
		if !ok {
			return p
		}
		return map[string]any{"type": crafting.TypeItem, "name": name, "amount": v[1]}
	case map[string]any:
		if _, ok := v["type"]; !ok {
			v["type"] = crafting.TypeItem
		}
		return v
	}
	return p
}
