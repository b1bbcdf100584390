package parser

import (
	"fmt"
	"strings"

	"github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// ParsePatches reads the recipe modifications of a data-updates file.
//
// Three statement forms are recognised:
//
//	data.raw.recipe["x"].ingredients = {...}            -- replace
//	data.raw.recipe["x"].ingredients[2] = {...}         -- indexed set
//	table.insert(data.raw.recipe["x"].ingredients, {...}) -- append
//
// Statements that target anything other than a recipe are ignored.
// Patches are returned in document order.
func ParsePatches(source, content string) ([]crafting.DataPatch, []*ParseError, error) {
	chunk, err := parse.Parse(strings.NewReader(content), source)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	p := &patchParser{source: source, x: recipeExtractor()}
	p.walk(chunk)
	return p.patches, p.errs, nil
}

type patchParser struct {
	source  string
	x       *Extractor
	patches []crafting.DataPatch
	errs    []*ParseError
}

func (p *patchParser) walk(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.AssignStmt:
			for i, lhs := range s.Lhs {
				if i >= len(s.Rhs) {
					break
				}
				p.assign(lhs, s.Rhs[i])
			}
		case *ast.FuncCallStmt:
			p.call(s)
		case *ast.DoBlockStmt:
			p.walk(s.Stmts)
		case *ast.IfStmt:
			p.walk(s.Then)
			p.walk(s.Else)
		}
	}
}

func (p *patchParser) assign(lhs, rhs ast.Expr) {
	target, ok := recipeTarget(lhs)
	if !ok {
		p.unsupported(lhs, "assignment")
		return
	}
	p.add(target, rhs, false)
}

// unsupported reports a statement that reaches into data.raw.recipe in a
// shape the interpreter cannot replay. Properties outside RecipeFields are
// irrelevant to the catalog and skipped without a diagnostic.
func (p *patchParser) unsupported(e ast.Expr, what string) {
	path, _ := literalPrefix(e)
	if len(path) < 3 || path[0] != "data" || path[1] != "raw" || path[2] != "recipe" {
		return
	}
	if len(path) >= 5 && !RecipeFields.Has(path[4]) {
		return
	}

	perr := &ParseError{
		Source: p.source,
		Line:   e.Line(),
		Err:    fmt.Errorf("%s to %s: %w", what, strings.Join(path, "."), ErrUnsupportedExpression),
	}
	if len(path) >= 4 {
		perr.Entity = path[3]
	}
	if len(path) >= 5 {
		perr.Field = path[4]
	}
	p.errs = append(p.errs, perr)
}

func (p *patchParser) call(s *ast.FuncCallStmt) {
	call, ok := s.Expr.(*ast.FuncCallExpr)
	if !ok || !isTableInsert(call) {
		return
	}
	if len(call.Args) == 0 {
		return
	}
	target, ok := recipeTarget(call.Args[0])
	if !ok {
		p.unsupported(call.Args[0], "table.insert")
		return
	}
	if len(call.Args) != 2 || target.index != nil {
		p.errs = append(p.errs, &ParseError{
			Source: p.source,
			Entity: target.recipe,
			Field:  target.property,
			Line:   s.Line(),
			Err:    fmt.Errorf("positional table.insert: %w", ErrUnsupportedExpression),
		})
		return
	}
	p.add(target, call.Args[1], true)
}

func (p *patchParser) add(target patchTarget, value ast.Expr, inserted bool) {
	v, errs := p.x.ExtractValue(target.property, value)
	annotate(errs, p.source, target.recipe)
	if len(errs) > 0 {
		p.errs = append(p.errs, errs...)
		return
	}

	switch target.property {
	case "ingredients", "results":
		if target.index != nil || inserted {
			v = normalizeProduct(v)
		} else if list, ok := v.([]any); ok {
			for i := range list {
				list[i] = normalizeProduct(list[i])
			}
		}
	}

	p.patches = append(p.patches, crafting.DataPatch{
		RecipeName:   target.recipe,
		PropertyName: target.property,
		Value:        v,
		Indexed:      target.index,
		Inserted:     inserted,
		Line:         value.Line(),
	})
}

type patchTarget struct {
	recipe   string
	property string
	index    *int
}

// recipeTarget matches data.raw.recipe[name].property and
// data.raw.recipe[name].property[n].
func recipeTarget(e ast.Expr) (patchTarget, bool) {
	path, ok := attrPath(e)
	if !ok || len(path) < 5 || len(path) > 6 {
		return patchTarget{}, false
	}
	if path[0] != "data" || path[1] != "raw" || path[2] != "recipe" {
		return patchTarget{}, false
	}

	t := patchTarget{recipe: path[3], property: path[4]}
	if !RecipeFields.Has(t.property) {
		return patchTarget{}, false
	}
	if len(path) == 6 {
		n, err := parseNumber(path[5])
		if err != nil || n < 1 {
			return patchTarget{}, false
		}
		// Lua arrays are 1-based.
		idx := int(n) - 1
		t.index = &idx
	}
	return t, true
}

// attrPath flattens a chain of field accesses rooted at an identifier.
func attrPath(e ast.Expr) ([]string, bool) {
	switch v := e.(type) {
	case *ast.IdentExpr:
		return []string{v.Value}, true
	case *ast.AttrGetExpr:
		base, ok := attrPath(v.Object)
		if !ok {
			return nil, false
		}
		switch k := v.Key.(type) {
		case *ast.StringExpr:
			return append(base, k.Value), true
		case *ast.NumberExpr:
			return append(base, k.Value), true
		}
	}
	return nil, false
}

// literalPrefix returns the leading segments of a field access chain up to
// the first key that is not a string or number literal. complete is false
// when the chain was cut short.
func literalPrefix(e ast.Expr) (path []string, complete bool) {
	switch v := e.(type) {
	case *ast.IdentExpr:
		return []string{v.Value}, true
	case *ast.AttrGetExpr:
		base, ok := literalPrefix(v.Object)
		if !ok {
			return base, false
		}
		switch k := v.Key.(type) {
		case *ast.StringExpr:
			return append(base, k.Value), true
		case *ast.NumberExpr:
			return append(base, k.Value), true
		}
		return base, false
	}
	return nil, false
}

func isTableInsert(call *ast.FuncCallExpr) bool {
	path, ok := attrPath(call.Func)
	return ok && len(path) == 2 && path[0] == "table" && path[1] == "insert"
}
