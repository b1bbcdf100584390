package parser

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"
)

// UnitTable maps the unit symbols that may appear in a numeric field to
// their value in the canonical unit of that field.
type UnitTable struct {
	Version string
	Symbols map[string]float64
}

// UnitTableVersion is the game data version the unit tables match.
const UnitTableVersion = "2.0"

var (
	// MassUnits converts mass expressions to grams.
	MassUnits = UnitTable{
		Version: UnitTableVersion,
		Symbols: map[string]float64{
			"gram":  1,
			"grams": 1,
			"kg":    1e3,
			"ton":   1e6,
			"tons":  1e6,
		},
	}

	// EnergyUnits converts energy expressions to joules.
	EnergyUnits = UnitTable{
		Version: UnitTableVersion,
		Symbols: map[string]float64{
			"J":  1,
			"kJ": 1e3,
			"MJ": 1e6,
			"GJ": 1e9,
			"TJ": 1e12,
		},
	}

	// NoUnits is used for plain numeric fields.
	NoUnits = UnitTable{Version: UnitTableVersion}
)

// Lookup returns the value of a unit symbol.
func (t UnitTable) Lookup(symbol string) (float64, bool) {
	v, ok := t.Symbols[symbol]
	return v, ok
}

// Reduce evaluates a value to a finite number, resolving symbols against
// the unit table. Strings are parsed as expressions first.
func (t UnitTable) Reduce(v Value) (float64, error) {
	n, err := t.reduce(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%s: %w", v.String(), ErrNotNumeric)
	}
	return n, nil
}

func (t UnitTable) reduce(v Value) (float64, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil

	case KindSymbol:
		n, ok := t.Lookup(v.Str)
		if !ok {
			return 0, fmt.Errorf("%s: %w", v.Str, ErrUnknownSymbol)
		}
		return n, nil

	case KindString:
		return t.EvaluateString(v.Str)

	case KindExpr:
		if len(v.Operands) == 1 {
			if v.Op != "-" {
				return 0, fmt.Errorf("%s: %w", v.String(), ErrNotNumeric)
			}
			n, err := t.reduce(v.Operands[0])
			return -n, err
		}
		left, err := t.reduce(v.Operands[0])
		if err != nil {
			return 0, err
		}
		right, err := t.reduce(v.Operands[1])
		if err != nil {
			return 0, err
		}
		return arith(v.Op, left, right)

	default:
		return 0, fmt.Errorf("%s value: %w", v.Kind, ErrNotNumeric)
	}
}

// unitSuffix matches a number written directly against a unit, as in 2MJ.
var unitSuffix = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([A-Za-z]+)\b`)

// Normalize inserts an explicit multiplication between a number and a
// trailing unit symbol known to the table: "2MJ" becomes "2*MJ".
// Exponents such as 1e3 are left alone.
func (t UnitTable) Normalize(s string) string {
	return unitSuffix.ReplaceAllStringFunc(s, func(m string) string {
		parts := unitSuffix.FindStringSubmatch(m)
		if _, ok := t.Lookup(parts[2]); !ok {
			return m
		}
		return parts[1] + "*" + parts[2]
	})
}

// EvaluateString parses s as a Lua expression and reduces it.
func (t UnitTable) EvaluateString(s string) (float64, error) {
	src := strings.TrimSpace(t.Normalize(s))
	if src == "" {
		return 0, fmt.Errorf("empty string: %w", ErrNotNumeric)
	}

	chunk, err := parse.Parse(strings.NewReader("return "+src), "<expr>")
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}
	if len(chunk) != 1 {
		return 0, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}
	ret, ok := chunk[0].(*ast.ReturnStmt)
	if !ok || len(ret.Exprs) != 1 {
		return 0, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}

	v, err := Eval(ret.Exprs[0])
	if err != nil {
		return 0, err
	}
	if v.Kind == KindString {
		// A quoted string inside the string; do not recurse forever.
		return 0, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}
	return t.Reduce(v)
}

// NumericField returns a FieldEvaluator that reduces the named fields with
// their unit tables and renders every other string-like value as text.
func NumericField(fields map[string]UnitTable) FieldEvaluator {
	return func(field string, v Value) (any, error) {
		units, ok := fields[field]
		if !ok {
			return v.String(), nil
		}
		n, err := units.Reduce(v)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}
