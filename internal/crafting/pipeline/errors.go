// Package pipeline turns parsed game prototypes into the enriched item
// catalog: patches are applied, weights resolved, fluids replaced by
// tradable equivalents and every item annotated with its rocket capacity.
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	// ErrUnresolvableReference is returned when a name refers to a recipe or
	// item that does not exist.
	ErrUnresolvableReference = errors.New("unresolvable reference")

	// ErrCyclicDependency is returned when a worklist stops making progress.
	ErrCyclicDependency = errors.New("cyclic dependency")
)

// UnresolvableReferenceError names the missing entity and where it was
// referenced from.
type UnresolvableReferenceError struct {
	Kind       string
	Name       string
	Context    string
	Suggestion string
}

func (e *UnresolvableReferenceError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

func (e *UnresolvableReferenceError) Unwrap() error {
	return ErrUnresolvableReference
}

// CycleError lists the entities a stage could not resolve. The pipeline
// stages list them in lexical order.
type CycleError struct {
	Stage string
	Names []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s among %d entities: %s",
		e.Stage, ErrCyclicDependency, len(e.Names), strings.Join(e.Names, ", "))
}

func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}

// suggest returns the candidate closest to name, or "" when nothing is close.
func suggest(name string, candidates []string) string {
	best, bestDist := "", len(name)/3+2
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(name, c)
		if d < bestDist || (d == bestDist && best != "" && c < best) {
			best, bestDist = c, d
		}
	}
	return best
}

// sortedNames returns a sorted copy of names.
func sortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
