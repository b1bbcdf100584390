package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rsned/rocket-capacity-server/internal/crafting/parser"
	"github.com/rsned/rocket-capacity-server/internal/crafting/source"
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// Options configures a collection.
type Options struct {
	// WithIconPaths copies item icon paths into the catalog.
	WithIconPaths bool
	// AllowPartial keeps the catalog when some entities fail to resolve.
	AllowPartial bool
	// Concurrency bounds the number of source files read at once.
	Concurrency int
}

// GameData is the parsed content of the data files.
type GameData struct {
	Items   []crafting.Item
	Recipes []crafting.Recipe
	Fluids  []crafting.Fluid
	Patches []crafting.DataPatch
}

// Stats counts what a collection produced.
type Stats struct {
	Items              int `json:"items"`
	Recipes            int `json:"recipes"`
	Fluids             int `json:"fluids"`
	Patches            int `json:"patches"`
	Barrels            int `json:"barrels"`
	BarrelSubstituted  int `json:"barrelSubstituted"`
	FluidsExpanded     int `json:"fluidsExpanded"`
	Diagnostics        int `json:"diagnostics"`
	UnresolvedEntities int `json:"unresolvedEntities"`
}

// Catalog is the result of a collection.
type Catalog struct {
	Items []crafting.EnrichedItem `json:"items"`
	Stats Stats                   `json:"stats"`

	// Recipes is the recipe set after substitution.
	Recipes []crafting.Recipe `json:"-"`
}

// Parse parses every file of the bundle. Prototypes redefined by a later
// file replace the earlier definition in place. Field-level problems are
// returned as diagnostics; a file that cannot be parsed at all is an error.
func Parse(b *source.Bundle) (*GameData, []*parser.ParseError, error) {
	var (
		data  GameData
		diags []*parser.ParseError
	)

	for _, f := range b.Items {
		items, errs, err := parser.ParseItems(f.Path, f.Content)
		if err != nil {
			return nil, nil, err
		}
		data.Items = mergeByName(data.Items, items, func(i crafting.Item) string { return i.Name })
		diags = append(diags, errs...)
	}
	for _, f := range b.Recipes {
		recipes, errs, err := parser.ParseRecipes(f.Path, f.Content)
		if err != nil {
			return nil, nil, err
		}
		data.Recipes = mergeByName(data.Recipes, recipes, func(r crafting.Recipe) string { return r.Name })
		diags = append(diags, errs...)
	}
	for _, f := range b.Fluids {
		fluids, errs, err := parser.ParseFluids(f.Path, f.Content)
		if err != nil {
			return nil, nil, err
		}
		data.Fluids = mergeByName(data.Fluids, fluids, func(fl crafting.Fluid) string { return fl.Name })
		diags = append(diags, errs...)
	}
	for _, f := range b.Patches {
		patches, errs, err := parser.ParsePatches(f.Path, f.Content)
		if err != nil {
			return nil, nil, err
		}
		data.Patches = append(data.Patches, patches...)
		diags = append(diags, errs...)
	}
	return &data, diags, nil
}

// mergeByName appends next to list; an element whose name is already in
// list replaces the existing one at its position.
func mergeByName[T any](list, next []T, name func(T) string) []T {
	pos := make(map[string]int, len(list))
	for i, v := range list {
		pos[name(v)] = i
	}
	for _, v := range next {
		if i, ok := pos[name(v)]; ok {
			list[i] = v
			continue
		}
		pos[name(v)] = len(list)
		list = append(list, v)
	}
	return list
}

// Build runs every stage on data and returns the catalog. The stages run in
// this order: patches, hidden item removal, weight resolution, item
// filtering, barrel synthesis,
// fluid-to-barrel and fluid-to-item substitution, enrichment. Weights are
// resolved before barrels exist, so fluid ingredients count
// FluidIngredientWeight per unit.
//
// Entity failures do not stop the pipeline: the returned catalog holds every
// item that could be enriched and the error joins the failures.
func Build(data *GameData, opts Options) (*Catalog, error) {
	stats := Stats{
		Recipes: len(data.Recipes),
		Fluids:  len(data.Fluids),
		Patches: len(data.Patches),
	}
	var errs []error

	if err := ApplyPatches(data.Recipes, data.Patches); err != nil {
		errs = append(errs, fmt.Errorf("applying patches: %w", err))
	}
	items := VisibleItems(data.Items)
	if err := ResolveWeights(items, data.Recipes); err != nil {
		errs = append(errs, fmt.Errorf("resolving weights: %w", err))
	}

	items = FilterItems(items)
	barrels := SynthesizeBarrels(data.Fluids)
	items = append(items, barrels.Items...)
	recipes := append(data.Recipes, barrels.Recipes...)
	stats.Barrels = len(barrels.Items)

	stats.BarrelSubstituted = SubstituteFluidBarrels(recipes, barrels.Items)
	expanded, err := SubstituteFluidItems(recipes)
	stats.FluidsExpanded = expanded
	if err != nil {
		errs = append(errs, fmt.Errorf("substituting fluids: %w", err))
	}

	enriched, err := Enrich(items, recipes, opts.WithIconPaths)
	if err != nil {
		errs = append(errs, fmt.Errorf("enriching items: %w", err))
	}
	stats.Items = len(enriched)
	stats.UnresolvedEntities = countLeaves(errs)

	return &Catalog{Items: enriched, Stats: stats, Recipes: recipes}, errors.Join(errs...)
}

// countLeaves counts the individual failures inside joined errors.
func countLeaves(errs []error) int {
	n := 0
	for _, err := range errs {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			n += countLeaves(joined.Unwrap())
			continue
		}
		if inner := errors.Unwrap(err); inner != nil {
			if joined, ok := inner.(interface{ Unwrap() []error }); ok {
				n += countLeaves(joined.Unwrap())
				continue
			}
		}
		n++
	}
	return n
}

// Collector fetches, parses and builds the catalog.
type Collector struct {
	reader   source.Reader
	manifest source.Manifest
	opts     Options
	logger   *slog.Logger
}

// NewCollector creates a Collector.
func NewCollector(reader source.Reader, manifest source.Manifest, opts Options, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{reader: reader, manifest: manifest, opts: opts, logger: logger}
}

// Collect runs a full collection. Unless AllowPartial is set, any entity
// failure fails the collection.
func (c *Collector) Collect(ctx context.Context) (*Catalog, error) {
	bundle, err := source.Fetch(ctx, c.reader, c.manifest, c.opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("fetching sources: %w", err)
	}

	data, diags, err := Parse(bundle)
	if err != nil {
		return nil, fmt.Errorf("parsing sources: %w", err)
	}
	for _, d := range diags {
		c.logger.Warn("skipped field", "source", d.Source, "entity", d.Entity, "field", d.Field, "line", d.Line, "error", d.Err)
	}
	c.logger.Debug("parsed sources",
		"items", len(data.Items),
		"recipes", len(data.Recipes),
		"fluids", len(data.Fluids),
		"patches", len(data.Patches))

	catalog, err := Build(data, c.opts)
	catalog.Stats.Diagnostics = len(diags)
	if err != nil {
		if !c.opts.AllowPartial {
			return nil, err
		}
		c.logger.Warn("catalog is incomplete", "unresolved", catalog.Stats.UnresolvedEntities, "error", err)
	}

	c.logger.Info("catalog collected",
		"items", catalog.Stats.Items,
		"barrels", catalog.Stats.Barrels,
		"diagnostics", catalog.Stats.Diagnostics)
	return catalog, nil
}
