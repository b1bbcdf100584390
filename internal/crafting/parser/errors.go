// Package parser extracts item, recipe, fluid and data-update prototypes
// from the Lua files of the game data.
//
// Only a restricted subset of Lua is understood: literal tables, string,
// number and boolean literals, identifiers (kept as symbols) and arithmetic
// expressions. Everything else is reported as a ParseError and the affected
// field is skipped.
package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedExpression is returned for expression shapes outside the
	// supported subset.
	ErrUnsupportedExpression = errors.New("unsupported expression")

	// ErrNotNumeric is returned when a numeric field cannot be reduced to a
	// finite number.
	ErrNotNumeric = errors.New("expression is not numeric")

	// ErrUnknownSymbol is returned when an identifier is not in the unit table.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrSectionNotFound is returned when a file has no data:extend call.
	ErrSectionNotFound = errors.New("data:extend section not found")
)

// ParseError describes a problem with a single field or entity. Parsing
// continues after a ParseError; the field or entity it names is dropped.
type ParseError struct {
	Source string
	Entity string
	Field  string
	Line   int
	Expr   string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	}
	if e.Entity != "" {
		fmt.Fprintf(&b, "%s: ", e.Entity)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "field %s: ", e.Field)
	}
	b.WriteString(e.Err.Error())
	if e.Expr != "" {
		fmt.Fprintf(&b, " (%s)", e.Expr)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// annotate fills in the source and entity of errors that lack them.
func annotate(errs []*ParseError, source, entity string) {
	for _, e := range errs {
		if e.Source == "" {
			e.Source = source
		}
		if e.Entity == "" {
			e.Entity = entity
		}
	}
}
