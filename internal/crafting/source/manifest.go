package source

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of files read at once.
const DefaultConcurrency = 4

// Manifest lists the data files of each kind. Within a kind, files are
// listed in ingestion order: base game, expansion, quality, elevated rails.
// Later files override same-named prototypes of earlier ones.
type Manifest struct {
	Items   []string `mapstructure:"items"`
	Recipes []string `mapstructure:"recipes"`
	Fluids  []string `mapstructure:"fluids"`
	Patches []string `mapstructure:"patches"`
}

// DefaultManifest returns the files of the base game and its official mods.
func DefaultManifest() Manifest {
	return Manifest{
		Items: []string{
			"base/prototypes/item.lua",
			"space-age/prototypes/item.lua",
			"quality/prototypes/item.lua",
			"elevated-rails/prototypes/item/elevated-rails.lua",
		},
		Recipes: []string{
			"base/prototypes/recipe.lua",
			"space-age/prototypes/recipe.lua",
			"quality/prototypes/recipe.lua",
			"elevated-rails/prototypes/recipe/elevated-rails.lua",
		},
		Fluids: []string{
			"base/prototypes/fluid.lua",
			"space-age/prototypes/fluid.lua",
		},
		Patches: []string{
			"space-age/base-data-updates.lua",
		},
	}
}

// File is the content of one data file.
type File struct {
	Path    string
	Content string
}

// Bundle holds the files of a manifest, in manifest order.
type Bundle struct {
	Items   []File
	Recipes []File
	Fluids  []File
	Patches []File
}

// Fetch reads every file of m with at most concurrency reads in flight. The
// bundle preserves manifest order whatever order the reads complete in. The
// first failing read cancels the others.
func Fetch(ctx context.Context, r Reader, m Manifest, concurrency int) (*Bundle, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	b := &Bundle{
		Items:   make([]File, len(m.Items)),
		Recipes: make([]File, len(m.Recipes)),
		Fluids:  make([]File, len(m.Fluids)),
		Patches: make([]File, len(m.Patches)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, group := range []struct {
		paths []string
		files []File
	}{
		{m.Items, b.Items},
		{m.Recipes, b.Recipes},
		{m.Fluids, b.Fluids},
		{m.Patches, b.Patches},
	} {
		for i, path := range group.paths {
			files := group.files
			g.Go(func() error {
				content, err := r.Read(ctx, path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				files[i] = File{Path: path, Content: content}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}
