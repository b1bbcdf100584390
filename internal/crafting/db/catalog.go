package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// CatalogStore handles catalog data access.
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a new CatalogStore.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// BulkInsertCatalog replaces the stored catalog with items, keeping their
// order.
func (s *CatalogStore) BulkInsertCatalog(ctx context.Context, items []crafting.EnrichedItem) error {
	return s.ReplaceCatalog(ctx, items, nil)
}

// ReplaceCatalog replaces the stored catalog with items and records meta in
// the sync metadata. Both are written in one transaction: on failure the
// previous catalog and metadata are kept.
func (s *CatalogStore) ReplaceCatalog(ctx context.Context, items []crafting.EnrichedItem, meta map[string]string) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		if err := clearCatalog(ctx, tx); err != nil {
			return err
		}
		if err := insertCatalog(ctx, tx, items); err != nil {
			return err
		}
		return writeSyncMetadata(ctx, tx, meta)
	})
}

func insertCatalog(ctx context.Context, tx *sql.Tx, items []crafting.EnrichedItem) error {
	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (name, type, subgroup, stack_size, rocket_capacity, icon, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing item statement: %w", err)
	}
	defer func() { _ = itemStmt.Close() }()

	altStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alternatives (item_name, position, recipe_name, yield, crafted_only_on)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing alternative statement: %w", err)
	}
	defer func() { _ = altStmt.Close() }()

	ingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alternative_ingredients
		(item_name, alternative_position, position, ingredient_name, amount, weight_ratio)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing ingredient statement: %w", err)
	}
	defer func() { _ = ingStmt.Close() }()

	for i, it := range items {
		_, err := itemStmt.ExecContext(ctx,
			it.Name, it.Type, it.Subgroup, it.StackSize, it.RocketCapacity, it.Icon, i,
		)
		if err != nil {
			return fmt.Errorf("inserting item %s: %w", it.Name, err)
		}

		for j, alt := range it.Alternatives {
			_, err := altStmt.ExecContext(ctx, it.Name, j, alt.Name, alt.Yield, string(alt.CraftedOnlyOn))
			if err != nil {
				return fmt.Errorf("inserting alternative %s for %s: %w", alt.Name, it.Name, err)
			}

			for k, ing := range alt.Ingredients {
				_, err := ingStmt.ExecContext(ctx, it.Name, j, k, ing.Name, ing.Amount, ing.WeightRatio)
				if err != nil {
					return fmt.Errorf("inserting ingredient %s for %s: %w", ing.Name, it.Name, err)
				}
			}
		}
	}

	return nil
}

// GetItem retrieves a single item with its alternatives.
// Returns nil if the item does not exist.
func (s *CatalogStore) GetItem(ctx context.Context, name string) (*crafting.EnrichedItem, error) {
	it := &crafting.EnrichedItem{Name: name}
	err := s.db.QueryRowContext(ctx, `
		SELECT type, subgroup, stack_size, rocket_capacity, icon
		FROM items WHERE name = ?
	`, name).Scan(&it.Type, &it.Subgroup, &it.StackSize, &it.RocketCapacity, &it.Icon)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}

	alts, err := s.loadAlternatives(ctx, name)
	if err != nil {
		return nil, err
	}
	it.Alternatives = alts[name]
	if it.Alternatives == nil {
		it.Alternatives = []crafting.Alternative{}
	}

	return it, nil
}

// GetAllItems retrieves every item in catalog order.
func (s *CatalogStore) GetAllItems(ctx context.Context) ([]crafting.EnrichedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, type, subgroup, stack_size, rocket_capacity, icon
		FROM items
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []crafting.EnrichedItem
	for rows.Next() {
		var it crafting.EnrichedItem
		if err := rows.Scan(&it.Name, &it.Type, &it.Subgroup, &it.StackSize, &it.RocketCapacity, &it.Icon); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	alts, err := s.loadAlternatives(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Alternatives = alts[items[i].Name]
		if items[i].Alternatives == nil {
			items[i].Alternatives = []crafting.Alternative{}
		}
	}

	return items, nil
}

// loadAlternatives returns the alternatives of one item, or of every item
// when name is empty, keyed by item name.
func (s *CatalogStore) loadAlternatives(ctx context.Context, name string) (map[string][]crafting.Alternative, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_name, recipe_name, yield, crafted_only_on
		FROM alternatives
		WHERE ? = '' OR item_name = ?
		ORDER BY item_name, position
	`, name, name)
	if err != nil {
		return nil, fmt.Errorf("querying alternatives: %w", err)
	}
	defer func() { _ = rows.Close() }()

	alts := make(map[string][]crafting.Alternative)
	for rows.Next() {
		var item, surface string
		var alt crafting.Alternative
		if err := rows.Scan(&item, &alt.Name, &alt.Yield, &surface); err != nil {
			return nil, fmt.Errorf("scanning alternative: %w", err)
		}
		alt.CraftedOnlyOn = crafting.Surface(surface)
		alt.Ingredients = []crafting.EnrichedIngredient{}
		alts[item] = append(alts[item], alt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	ingRows, err := s.db.QueryContext(ctx, `
		SELECT item_name, alternative_position, ingredient_name, amount, weight_ratio
		FROM alternative_ingredients
		WHERE ? = '' OR item_name = ?
		ORDER BY item_name, alternative_position, position
	`, name, name)
	if err != nil {
		return nil, fmt.Errorf("querying alternative ingredients: %w", err)
	}
	defer func() { _ = ingRows.Close() }()

	for ingRows.Next() {
		var item string
		var pos int
		var ing crafting.EnrichedIngredient
		if err := ingRows.Scan(&item, &pos, &ing.Name, &ing.Amount, &ing.WeightRatio); err != nil {
			return nil, fmt.Errorf("scanning alternative ingredient: %w", err)
		}
		list := alts[item]
		if pos < 0 || pos >= len(list) {
			return nil, fmt.Errorf("ingredient %s of %s refers to missing alternative %d", ing.Name, item, pos)
		}
		list[pos].Ingredients = append(list[pos].Ingredients, ing)
	}

	return alts, ingRows.Err()
}

// SearchItems searches items by name (case-insensitive partial match).
func (s *CatalogStore) SearchItems(ctx context.Context, term string, limit int) ([]crafting.ItemSearchHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, subgroup, rocket_capacity
		FROM items
		WHERE name LIKE ?
		ORDER BY position
		LIMIT ?
	`, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []crafting.ItemSearchHit
	for rows.Next() {
		var hit crafting.ItemSearchHit
		if err := rows.Scan(&hit.Name, &hit.Subgroup, &hit.RocketCapacity); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		results = append(results, hit)
	}

	return results, rows.Err()
}

// ListItemsBySurface lists the items with at least one alternative that can
// only be crafted on surface.
func (s *CatalogStore) ListItemsBySurface(ctx context.Context, surface crafting.Surface) ([]string, error) {
	return s.queryNames(ctx, `
		SELECT i.name
		FROM items i
		WHERE EXISTS (
			SELECT 1 FROM alternatives a
			WHERE a.item_name = i.name AND a.crafted_only_on = ?
		)
		ORDER BY i.position
	`, string(surface))
}

// FindItemsUsingIngredient finds the items with an alternative consuming
// the given ingredient.
func (s *CatalogStore) FindItemsUsingIngredient(ctx context.Context, ingredient string) ([]string, error) {
	return s.queryNames(ctx, `
		SELECT i.name
		FROM items i
		WHERE EXISTS (
			SELECT 1 FROM alternative_ingredients ai
			WHERE ai.item_name = i.name AND ai.ingredient_name = ?
		)
		ORDER BY i.position
	`, ingredient)
}

// ItemNames returns every item name in catalog order.
func (s *CatalogStore) ItemNames(ctx context.Context) ([]string, error) {
	return s.queryNames(ctx, `SELECT name FROM items ORDER BY position`)
}

func (s *CatalogStore) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning item name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// CountItems returns the total number of items.
func (s *CatalogStore) CountItems(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// ClearCatalog removes the catalog and its sync metadata.
func (s *CatalogStore) ClearCatalog(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		if err := clearCatalog(ctx, tx); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sync_metadata"); err != nil {
			return fmt.Errorf("clearing sync_metadata: %w", err)
		}
		return nil
	})
}

func clearCatalog(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"alternative_ingredients", "alternatives", "items"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
