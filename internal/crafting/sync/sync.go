// Package sync loads the catalog into the database, either from the game
// data sources or from a previously exported JSON file.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/rsned/rocket-capacity-server/internal/crafting/db"
	"github.com/rsned/rocket-capacity-server/internal/crafting/pipeline"
	"github.com/rsned/rocket-capacity-server/pkg/crafting"
)

// Sync metadata keys.
const (
	MetaLastSync   = "catalog_last_sync"
	MetaItemsCount = "catalog_items_count"
	MetaRunID      = "catalog_run_id"
	MetaOrigin     = "catalog_origin"
)

// CatalogSource produces a catalog. *pipeline.Collector is the production
// implementation.
type CatalogSource interface {
	Collect(ctx context.Context) (*pipeline.Catalog, error)
}

// Syncer handles catalog synchronization.
type Syncer struct {
	db     *db.DB
	logger *slog.Logger
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{db: database, logger: logger}
}

// Status describes the last sync.
type Status struct {
	LastSync time.Time `json:"last_sync"`
	Items    int       `json:"items"`
	RunID    string    `json:"run_id"`
	Origin   string    `json:"origin"`
}

// SyncFromSources collects the catalog and stores it. It returns the run ID
// recorded in the sync metadata.
func (s *Syncer) SyncFromSources(ctx context.Context, src CatalogSource) (string, *pipeline.Catalog, error) {
	catalog, err := src.Collect(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("collecting catalog: %w", err)
	}

	runID, err := s.store(ctx, catalog.Items, "sources")
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("catalog synced", "run_id", runID, "items", len(catalog.Items))
	return runID, catalog, nil
}

// ImportCatalogFromFile imports a catalog from a JSON file. Both an exported
// catalog object and a bare list of items are accepted.
func (s *Syncer) ImportCatalogFromFile(ctx context.Context, path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("reading file: %w", err)
	}

	items, err := decodeCatalog(data)
	if err != nil {
		return "", 0, fmt.Errorf("parsing JSON: %w", err)
	}
	for i := range items {
		if items[i].Name == "" {
			return "", 0, fmt.Errorf("item %d has no name", i)
		}
		if items[i].Alternatives == nil {
			items[i].Alternatives = []crafting.Alternative{}
		}
	}

	runID, err := s.store(ctx, items, "file:"+path)
	if err != nil {
		return "", 0, err
	}
	s.logger.Info("catalog imported", "run_id", runID, "items", len(items), "path", path)
	return runID, len(items), nil
}

// decodeCatalog extracts the item list of an exported catalog object or a
// bare item list.
func decodeCatalog(data []byte) ([]crafting.EnrichedItem, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}

	list := gjson.ParseBytes(data)
	if list.IsObject() {
		list = list.Get("items")
	}
	if !list.IsArray() {
		return nil, errors.New("no item list found")
	}

	var items []crafting.EnrichedItem
	if err := json.Unmarshal([]byte(list.Raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ExportCatalogToFile writes the stored catalog as an indented JSON list of
// items. It returns the number of items written.
func (s *Syncer) ExportCatalogToFile(ctx context.Context, path string) (int, error) {
	items, err := db.NewCatalogStore(s.db).GetAllItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading catalog: %w", err)
	}
	if items == nil {
		items = []crafting.EnrichedItem{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encoding JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}
	return len(items), nil
}

// Status reads the metadata of the last sync.
func (s *Syncer) Status(ctx context.Context) (*Status, error) {
	var st Status
	last, err := s.db.GetSyncMetadata(ctx, MetaLastSync)
	if err != nil {
		return nil, err
	}
	if last != "" {
		if st.LastSync, err = time.Parse(time.RFC3339, last); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", MetaLastSync, err)
		}
	}

	count, err := s.db.GetSyncMetadata(ctx, MetaItemsCount)
	if err != nil {
		return nil, err
	}
	if count != "" {
		if _, err := fmt.Sscanf(count, "%d", &st.Items); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", MetaItemsCount, err)
		}
	}

	if st.RunID, err = s.db.GetSyncMetadata(ctx, MetaRunID); err != nil {
		return nil, err
	}
	if st.Origin, err = s.db.GetSyncMetadata(ctx, MetaOrigin); err != nil {
		return nil, err
	}
	return &st, nil
}

// ClearAll removes the catalog and its sync metadata.
func (s *Syncer) ClearAll(ctx context.Context) error {
	if err := db.NewCatalogStore(s.db).ClearCatalog(ctx); err != nil {
		return fmt.Errorf("clearing catalog: %w", err)
	}
	s.logger.Info("catalog cleared")
	return nil
}

// store replaces the catalog and its sync metadata in one transaction.
func (s *Syncer) store(ctx context.Context, items []crafting.EnrichedItem, origin string) (string, error) {
	runID := uuid.NewString()
	meta := map[string]string{
		MetaLastSync:   time.Now().UTC().Format(time.RFC3339),
		MetaItemsCount: fmt.Sprintf("%d", len(items)),
		MetaRunID:      runID,
		MetaOrigin:     origin,
	}
	if err := db.NewCatalogStore(s.db).ReplaceCatalog(ctx, items, meta); err != nil {
		return "", fmt.Errorf("storing catalog: %w", err)
	}
	return runID, nil
}
