package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"
)

// extendCall matches the data registration call of a prototype file.
var extendCall = regexp.MustCompile(`data\s*:\s*extend\s*\(`)

// Section is the argument list of the data:extend call of a file.
type Section struct {
	Text string
	// Line is the line of the file on which Text starts.
	Line int
}

// IsolateSection returns the argument text of the last data:extend call in
// content, so that the rest of the file (requires, local helpers, sounds)
// never reaches the parser.
func IsolateSection(content string) (Section, error) {
	locs := extendCall.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return Section{}, ErrSectionNotFound
	}
	start := locs[len(locs)-1][1]
	rest := content[start:]

	end := strings.LastIndex(rest, ")")
	if end < 0 {
		return Section{}, fmt.Errorf("unterminated data:extend call: %w", ErrSectionNotFound)
	}

	return Section{
		Text: rest[:end],
		Line: strings.Count(content[:start], "\n") + 1,
	}, nil
}

// ParseSection parses the section as a single table constructor. Line
// numbers reported by the returned nodes match the original file.
func ParseSection(name string, s Section) (*ast.TableExpr, error) {
	pad := strings.Repeat("\n", max(s.Line-1, 0))
	chunk, err := parse.Parse(strings.NewReader(pad+"return "+s.Text), name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	if len(chunk) != 1 {
		return nil, fmt.Errorf("parsing %s: expected a single expression, got %d statements", name, len(chunk))
	}
	ret, ok := chunk[0].(*ast.ReturnStmt)
	if !ok || len(ret.Exprs) != 1 {
		return nil, fmt.Errorf("parsing %s: expected a single table argument", name)
	}
	table, ok := ret.Exprs[0].(*ast.TableExpr)
	if !ok {
		return nil, fmt.Errorf("parsing %s: data:extend argument is %T, not a table", name, ret.Exprs[0])
	}
	return table, nil
}
