package parser

import (
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// FluidFields are the fluid prototype keys kept by the parser.
var FluidFields = NewFieldSet(
	"type",
	"name",
	"subgroup",
	"icon",
	"hidden",
	"auto_barrel",
	"default_temperature",
)

var fluidNumbers = map[string]UnitTable{
	"default_temperature": NoUnits,
}

// ParseFluids parses the fluid prototypes of a Lua data file. Prototypes of
// any other type in the same file are skipped.
func ParseFluids(source, content string) ([]crafting.Fluid, []*ParseError, error) {
	x := &Extractor{Fields: FluidFields, Evaluate: NumericField(fluidNumbers)}
	records, errs, err := parseEntities(source, content, x)
	if err != nil {
		return nil, nil, err
	}

	fluids := make([]crafting.Fluid, 0, len(records))
	for _, r := range records {
		if r["type"] != crafting.TypeFluid {
			continue
		}
		var fluid crafting.Fluid
		if perr := decodeEntity(source, r, &fluid); perr != nil {
			errs = append(errs, perr)
			continue
		}
		fluids = append(fluids, fluid)
	}
	return fluids, errs, nil
}
