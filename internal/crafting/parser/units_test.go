package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitTableReduce(t *testing.T) {
	tests := []struct {
		name  string
		units UnitTable
		src   string
		want  float64
	}{
		{"kilograms", MassUnits, `2 * kg`, 2000},
		{"tons divided", MassUnits, `1 * tons / 4`, 250000},
		{"grams", MassUnits, `500 * grams`, 500},
		{"plain number", NoUnits, `200`, 200},
		{"negative", NoUnits, `-15`, -15},
		{"negative symbol", MassUnits, `-kg`, -1000},
		{"power", NoUnits, `2 ^ 10`, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Eval(mustExpr(t, tt.src))
			require.NoError(t, err)

			got, err := tt.units.Reduce(v)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestUnitTableEvaluateString(t *testing.T) {
	tests := []struct {
		units UnitTable
		src   string
		want  float64
	}{
		{EnergyUnits, "2MJ", 2e6},
		{EnergyUnits, "2.5MJ", 2.5e6},
		{EnergyUnits, "500kJ", 5e5},
		{EnergyUnits, "1GJ", 1e9},
		{MassUnits, "1 ton / 3", 1e6 / 3},
		{MassUnits, "20 kg", 20000},
		{NoUnits, "1e3", 1000},
		{NoUnits, "10", 10},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := tt.units.EvaluateString(tt.src)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestUnitTableNormalize(t *testing.T) {
	assert.Equal(t, "2*MJ", EnergyUnits.Normalize("2MJ"))
	assert.Equal(t, "4*kJ + 1*MJ", EnergyUnits.Normalize("4kJ + 1MJ"))
	assert.Equal(t, "1e3", EnergyUnits.Normalize("1e3"))
	assert.Equal(t, "2kW", EnergyUnits.Normalize("2kW"))
}

func TestUnitTableErrors(t *testing.T) {
	_, err := EnergyUnits.EvaluateString("2kW")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = EnergyUnits.EvaluateString("2 * kW")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = MassUnits.EvaluateString("iron-plate")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = NoUnits.EvaluateString("")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = NoUnits.EvaluateString("1 / 0")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = NoUnits.Reduce(Value{Kind: KindBool, Bool: true})
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestNumericField(t *testing.T) {
	eval := NumericField(map[string]UnitTable{"weight": MassUnits})

	got, err := eval("weight", Value{Kind: KindString, Str: "3 kg"})
	require.NoError(t, err)
	assert.Equal(t, 3000.0, got)

	got, err = eval("subgroup", Value{Kind: KindString, Str: "intermediate-product"})
	require.NoError(t, err)
	assert.Equal(t, "intermediate-product", got)

	_, err = eval("weight", Value{Kind: KindString, Str: "heavy"})
	assert.Error(t, err)
}
