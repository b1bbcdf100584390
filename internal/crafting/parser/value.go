package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/yuin/gopher-lua/ast"
)

// Kind identifies the shape of a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindSymbol
	KindTable
	KindExpr
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindTable:
		return "table"
	case KindExpr:
		return "expr"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the result of evaluating a literal expression.
//
// Arithmetic whose operands are all numbers is folded into a KindNumber.
// Anything else (for example 2 * kg) stays a KindExpr tree with the
// operator in Op and one or two Operands, to be reduced later by a field
// evaluator that knows which symbols are in scope.
type Value struct {
	Kind     Kind
	Bool     bool
	Num      float64
	Str      string
	Op       string
	Operands []Value
	Table    *ast.TableExpr
	Line     int
}

// Number returns a numeric Value.
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// String renders the value the way it reads in the source, without quotes.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindString, KindSymbol:
		return v.Str
	case KindTable:
		return "{...}"
	case KindExpr:
		if len(v.Operands) == 1 {
			if v.Op == "not" {
				return "not " + v.Operands[0].String()
			}
			return v.Op + v.Operands[0].String()
		}
		return v.Operands[0].String() + v.Op + v.Operands[1].String()
	default:
		return "?"
	}
}

// Eval converts a literal expression node into a Value.
func Eval(expr ast.Expr) (Value, error) {
	line := expr.Line()

	switch e := expr.(type) {
	case *ast.StringExpr:
		return Value{Kind: KindString, Str: e.Value, Line: line}, nil

	case *ast.NumberExpr:
		n, err := parseNumber(e.Value)
		if err != nil {
			return Value{}, &ParseError{Line: line, Expr: e.Value, Err: ErrNotNumeric}
		}
		return Value{Kind: KindNumber, Num: n, Line: line}, nil

	case *ast.TrueExpr:
		return Value{Kind: KindBool, Bool: true, Line: line}, nil

	case *ast.FalseExpr:
		return Value{Kind: KindBool, Bool: false, Line: line}, nil

	case *ast.NilExpr:
		return Value{Kind: KindNil, Line: line}, nil

	case *ast.IdentExpr:
		return Value{Kind: KindSymbol, Str: e.Value, Line: line}, nil

	case *ast.TableExpr:
		return Value{Kind: KindTable, Table: e, Line: line}, nil

	case *ast.ArithmeticOpExpr:
		return evalBinary(e.Operator, e.Lhs, e.Rhs, line)

	case *ast.StringConcatOpExpr:
		return evalBinary("..", e.Lhs, e.Rhs, line)

	case *ast.UnaryMinusOpExpr:
		return evalUnary("-", e.Expr, line)

	case *ast.UnaryNotOpExpr:
		return evalUnary("not", e.Expr, line)

	default:
		return Value{}, &ParseError{
			Line: line,
			Expr: fmt.Sprintf("%T", expr),
			Err:  ErrUnsupportedExpression,
		}
	}
}

func evalBinary(op string, lhs, rhs ast.Expr, line int) (Value, error) {
	left, err := Eval(lhs)
	if err != nil {
		return Value{}, err
	}
	right, err := Eval(rhs)
	if err != nil {
		return Value{}, err
	}
	if left.Kind == KindTable || right.Kind == KindTable {
		return Value{}, &ParseError{Line: line, Expr: op, Err: ErrUnsupportedExpression}
	}

	if op == ".." && isScalar(left) && isScalar(right) {
		return Value{Kind: KindString, Str: left.String() + right.String(), Line: line}, nil
	}
	if left.Kind == KindNumber && right.Kind == KindNumber {
		n, err := arith(op, left.Num, right.Num)
		if err != nil {
			return Value{}, &ParseError{Line: line, Expr: op, Err: err}
		}
		return Value{Kind: KindNumber, Num: n, Line: line}, nil
	}

	return Value{Kind: KindExpr, Op: op, Operands: []Value{left, right}, Line: line}, nil
}

func evalUnary(op string, operand ast.Expr, line int) (Value, error) {
	arg, err := Eval(operand)
	if err != nil {
		return Value{}, err
	}
	switch {
	case op == "-" && arg.Kind == KindNumber:
		return Value{Kind: KindNumber, Num: -arg.Num, Line: line}, nil
	case op == "not" && arg.Kind == KindBool:
		return Value{Kind: KindBool, Bool: !arg.Bool, Line: line}, nil
	case arg.Kind == KindTable:
		return Value{}, &ParseError{Line: line, Expr: op, Err: ErrUnsupportedExpression}
	}
	return Value{Kind: KindExpr, Op: op, Operands: []Value{arg}, Line: line}, nil
}

func isScalar(v Value) bool {
	return v.Kind == KindString || v.Kind == KindNumber
}

// arith applies a Lua arithmetic operator.
func arith(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		return a / b, nil
	case "%":
		// Lua modulo takes the sign of the divisor.
		return a - math.Floor(a/b)*b, nil
	case "^":
		return math.Pow(a, b), nil
	default:
		return 0, fmt.Errorf("operator %q: %w", op, ErrUnsupportedExpression)
	}
}

// parseNumber parses a Lua numeric literal.
func parseNumber(s string) (float64, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	i, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	return float64(i), nil
}
