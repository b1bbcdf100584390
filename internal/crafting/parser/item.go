package parser

import (
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// ItemFields are the item prototype keys kept by the parser.
var ItemFields = NewFieldSet(
	"type",
	"name",
	"subgroup",
	"icon",
	"stack_size",
	"hidden",
	"weight",
	"ingredient_to_weight_coefficient",
	"fuel_category",
	"fuel_value",
)

// itemNumbers are the item fields that may be written as unit expressions,
// e.g. `2 * kg`, `1 * tons / 3` or "2MJ".
var itemNumbers = map[string]UnitTable{
	"weight":                           MassUnits,
	"stack_size":                       NoUnits,
	"ingredient_to_weight_coefficient": NoUnits,
	"fuel_value":                       EnergyUnits,
}

// ParseItems parses the item prototypes of a Lua data file.
func ParseItems(source, content string) ([]crafting.Item, []*ParseError, error) {
	x := &Extractor{Fields: ItemFields, Evaluate: NumericField(itemNumbers)}
	records, errs, err := parseEntities(source, content, x)
	if err != nil {
		return nil, nil, err
	}

	items := make([]crafting.Item, 0, len(records))
	for _, r := range records {
		var item crafting.Item
		if perr := decodeEntity(source, r, &item); perr != nil {
			errs = append(errs, perr)
			continue
		}
		items = append(items, item)
	}
	return items, errs, nil
}
