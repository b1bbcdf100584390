package pipeline

import (
	"errors"
	"fmt"

	"github.com/rsned/rocket-capacity-server/internal/crafting/parser"
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// patchableProperties are the recipe properties a plain set may replace.
var patchableProperties = map[string]bool{
	"category":           true,
	"subgroup":           true,
	"energy_required":    true,
	"ingredients":        true,
	"results":            true,
	"allow_productivity": true,
	"surface_conditions": true,
}

// ApplyPatches replays patches, in order, on the recipe of the same name.
//
// A patch naming a recipe that does not exist is an
// UnresolvableReferenceError; patches never create recipes. Failing patches
// are skipped and reported together, the others are still applied.
func ApplyPatches(recipes []crafting.Recipe, patches []crafting.DataPatch) error {
	byName := make(map[string]int, len(recipes))
	names := make([]string, 0, len(recipes))
	for i, r := range recipes {
		if _, ok := byName[r.Name]; !ok {
			names = append(names, r.Name)
		}
		byName[r.Name] = i
	}

	var errs []error
	for _, p := range patches {
		i, ok := byName[p.RecipeName]
		if !ok {
			errs = append(errs, &UnresolvableReferenceError{
				Kind:       "recipe",
				Name:       p.RecipeName,
				Context:    fmt.Sprintf("patch of %s on line %d", p.PropertyName, p.Line),
				Suggestion: suggest(p.RecipeName, names),
			})
			continue
		}
		if err := applyPatch(&recipes[i], p); err != nil {
			errs = append(errs, fmt.Errorf("patching %s.%s on line %d: %w", p.RecipeName, p.PropertyName, p.Line, err))
		}
	}
	return errors.Join(errs...)
}

func applyPatch(r *crafting.Recipe, p crafting.DataPatch) error {
	switch {
	case p.Indexed != nil:
		return setElement(r, p.PropertyName, *p.Indexed, p.Value)
	case p.Inserted:
		return appendElement(r, p.PropertyName, p.Value)
	}

	if !patchableProperties[p.PropertyName] {
		return fmt.Errorf("property %s cannot be patched", p.PropertyName)
	}
	if err := parser.Decode(map[string]any{p.PropertyName: p.Value}, r); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	if r.Ingredients == nil {
		r.Ingredients = []crafting.Ingredient{}
	}
	if r.Results == nil {
		r.Results = []crafting.Result{}
	}
	return nil
}

func setElement(r *crafting.Recipe, property string, index int, value any) error {
	switch property {
	case "ingredients":
		var ing crafting.Ingredient
		if err := parser.Decode(value, &ing); err != nil {
			return fmt.Errorf("decoding ingredient: %w", err)
		}
		list, err := setAt(r.Ingredients, index, ing)
		if err != nil {
			return err
		}
		r.Ingredients = list
	case "results":
		var res crafting.Result
		if err := parser.Decode(value, &res); err != nil {
			return fmt.Errorf("decoding result: %w", err)
		}
		list, err := setAt(r.Results, index, res)
		if err != nil {
			return err
		}
		r.Results = list
	default:
		return fmt.Errorf("property %s is not a list", property)
	}
	return nil
}

func appendElement(r *crafting.Recipe, property string, value any) error {
	switch property {
	case "ingredients":
		var ing crafting.Ingredient
		if err := parser.Decode(value, &ing); err != nil {
			return fmt.Errorf("decoding ingredient: %w", err)
		}
		r.Ingredients = append(r.Ingredients, ing)
	case "results":
		var res crafting.Result
		if err := parser.Decode(value, &res); err != nil {
			return fmt.Errorf("decoding result: %w", err)
		}
		r.Results = append(r.Results, res)
	default:
		return fmt.Errorf("property %s is not a list", property)
	}
	return nil
}

// setAt replaces list[index]. An index one past the end appends, as a Lua
// assignment to t[#t+1] does.
func setAt[T any](list []T, index int, v T) ([]T, error) {
	switch {
	case index >= 0 && index < len(list):
		list[index] = v
		return list, nil
	case index == len(list):
		return append(list, v), nil
	}
	return nil, fmt.Errorf("index %d out of range for %d elements", index, len(list))
}
