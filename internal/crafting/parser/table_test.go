package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/gopher-lua/ast"
)

func mustTable(t *testing.T, src string) *ast.TableExpr {
	t.Helper()
	table, ok := mustExpr(t, src).(*ast.TableExpr)
	require.True(t, ok, "not a table: %s", src)
	return table
}

func TestExtractRecordFiltersFields(t *testing.T) {
	x := &Extractor{Fields: NewFieldSet("name", "stack_size")}

	out, errs := x.Extract(mustTable(t, `{
		name = "iron-plate",
		stack_size = 100,
		pictures = { sheet = "foo.png" },
		place_result = "iron-chest",
	}`))
	require.Empty(t, errs)

	assert.Equal(t, map[string]any{
		"name":       "iron-plate",
		"stack_size": 100.0,
	}, out)
}

func TestExtractList(t *testing.T) {
	x := &Extractor{Fields: NewFieldSet("type", "name", "amount")}

	out, errs := x.Extract(mustTable(t, `{
		{type = "item", name = "iron-plate", amount = 1},
		{type = "fluid", name = "water", amount = 50, temperature = 15},
	}`))
	require.Empty(t, errs)

	assert.Equal(t, []any{
		map[string]any{"type": "item", "name": "iron-plate", "amount": 1.0},
		map[string]any{"type": "fluid", "name": "water", "amount": 50.0},
	}, out)
}

func TestExtractEmptyTableIsList(t *testing.T) {
	x := &Extractor{}
	out, errs := x.Extract(mustTable(t, `{}`))
	require.Empty(t, errs)
	assert.Equal(t, []any{}, out)
}

func TestExtractNilFieldSetAllowsAll(t *testing.T) {
	x := &Extractor{}
	out, errs := x.Extract(mustTable(t, `{a = 1, b = kg, c = 2 * kg}`))
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"a": 1.0, "b": "kg", "c": "2*kg"}, out)
}

func TestExtractAppliesEvaluatorToStringLeaves(t *testing.T) {
	var seen []string
	x := &Extractor{
		Evaluate: func(field string, v Value) (any, error) {
			seen = append(seen, field)
			return "<" + v.String() + ">", nil
		},
	}

	out, errs := x.Extract(mustTable(t, `{n = 1, b = true, s = "x", e = 2 * kg}`))
	require.Empty(t, errs)

	assert.Equal(t, map[string]any{"n": 1.0, "b": true, "s": "<x>", "e": "<2*kg>"}, out)
	assert.ElementsMatch(t, []string{"s", "e"}, seen)
}

func TestExtractKeepsGoodFieldsWhenOneFails(t *testing.T) {
	x := &Extractor{
		Fields: NewFieldSet("name", "weight", "icon"),
		Evaluate: NumericField(map[string]UnitTable{
			"weight": MassUnits,
		}),
	}

	out, errs := x.Extract(mustTable(t, `{
		name = "thing",
		weight = 3 * lightyears,
		icon = util.icon("thing"),
	}`))

	require.Len(t, errs, 2)
	assert.Equal(t, map[string]any{"name": "thing"}, out)

	fields := []string{errs[0].Field, errs[1].Field}
	assert.ElementsMatch(t, []string{"weight", "icon"}, fields)
	assert.True(t, errors.Is(errs[0], ErrUnknownSymbol) || errors.Is(errs[1], ErrUnknownSymbol))
	assert.True(t, errors.Is(errs[0], ErrUnsupportedExpression) || errors.Is(errs[1], ErrUnsupportedExpression))
}

func TestExtractDropsNil(t *testing.T) {
	x := &Extractor{}
	out, errs := x.Extract(mustTable(t, `{a = nil, b = 2}`))
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"b": 2.0}, out)
}
