package parser

import (
	"errors"

	"github.com/yuin/gopher-lua/ast"
)

// FieldSet is an allow-list of table keys. A nil FieldSet allows every key.
type FieldSet map[string]struct{}

// NewFieldSet builds a FieldSet from names.
func NewFieldSet(names ...string) FieldSet {
	s := make(FieldSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is allowed.
func (s FieldSet) Has(name string) bool {
	if s == nil {
		return true
	}
	_, ok := s[name]
	return ok
}

// FieldEvaluator post-processes a string-like leaf (string, symbol or
// deferred expression) of the named field before it is stored.
type FieldEvaluator func(field string, v Value) (any, error)

// Extractor converts Lua table constructors into Go maps and slices.
type Extractor struct {
	Fields   FieldSet
	Evaluate FieldEvaluator
}

// Extract converts a table into either a map[string]any, when its first
// allowed entry is a key = value declaration, or a []any, when it is a list.
// An empty table becomes an empty list. Fields that fail to evaluate are
// left out of the result and reported.
func (x *Extractor) Extract(t *ast.TableExpr) (any, []*ParseError) {
	var errs []*ParseError
	out := x.extractTable(t, &errs)
	return out, errs
}

// ExtractValue converts any supported expression. Tables are extracted,
// leaves are evaluated as a value of field.
func (x *Extractor) ExtractValue(field string, e ast.Expr) (any, []*ParseError) {
	var errs []*ParseError
	out, _ := x.extractValue(field, e, &errs)
	return out, errs
}

func (x *Extractor) extractTable(t *ast.TableExpr, errs *[]*ParseError) any {
	fields := make([]*ast.Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Key == nil {
			fields = append(fields, f)
			continue
		}
		key, ok := fieldKey(f)
		if ok && x.Fields.Has(key) {
			fields = append(fields, f)
		}
	}

	if len(fields) == 0 || fields[0].Key == nil {
		list := make([]any, 0, len(fields))
		for _, f := range fields {
			if f.Key != nil {
				continue
			}
			if v, ok := x.extractValue("", f.Value, errs); ok {
				list = append(list, v)
			}
		}
		return list
	}

	record := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Key == nil {
			continue
		}
		key, _ := fieldKey(f)
		if v, ok := x.extractValue(key, f.Value, errs); ok {
			record[key] = v
		}
	}
	return record
}

func (x *Extractor) extractValue(field string, e ast.Expr, errs *[]*ParseError) (any, bool) {
	v, err := Eval(e)
	if err != nil {
		*errs = append(*errs, fieldError(field, e.Line(), "", err))
		return nil, false
	}

	switch v.Kind {
	case KindTable:
		return x.extractTable(v.Table, errs), true
	case KindNil:
		return nil, false
	case KindBool:
		return v.Bool, true
	case KindNumber:
		return v.Num, true
	}

	if x.Evaluate == nil {
		return v.String(), true
	}
	out, err := x.Evaluate(field, v)
	if err != nil {
		*errs = append(*errs, fieldError(field, v.Line, v.String(), err))
		return nil, false
	}
	return out, true
}

// fieldKey returns the string key of a keyed table field.
func fieldKey(f *ast.Field) (string, bool) {
	s, ok := f.Key.(*ast.StringExpr)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func fieldError(field string, line int, expr string, err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		if pe.Field == "" {
			pe.Field = field
		}
		if pe.Line == 0 {
			pe.Line = line
		}
		return pe
	}
	return &ParseError{Field: field, Line: line, Expr: expr, Err: err}
}
