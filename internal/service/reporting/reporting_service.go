package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/repository"
	"github.com/mamadbah2/stockroom/internal/repository/sheets"
)

const timestampLayout = "2006-01-02 15:04:05"

// ErrExportDisabled indicates no spreadsheet is configured.
var ErrExportDisabled = errors.New("inventory export is not configured")

var snapshotHeader = []interface{}{"id", "name", "category", "quantity", "owner_id", "updated_at", "exported_at"}

// Service summarises inventories and exports snapshots.
type Service struct {
	store       repository.InventoryStore
	sheets      sheets.Repository
	exportRange string
	logger      *zap.Logger
	now         func() time.Time
}

// NewService wires a new reporting service instance. sheetsRepo may be nil
// when the export is disabled.
func NewService(store repository.InventoryStore, sheetsRepo sheets.Repository, exportRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		sheets:      sheetsRepo,
		exportRange: exportRange,
		logger:      logger,
		now:         time.Now,
	}
}

// Summarize totals the principal's inventory per category, in the closed
// category order followed by uncategorised items.
func (s *Service) Summarize(ctx context.Context, principal *models.Principal) (*models.InventorySummary, error) {
	summary := &models.InventorySummary{GeneratedAt: s.now().UTC(), Categories: []models.CategoryTotal{}}
	if principal == nil {
		return summary, nil
	}
	summary.OwnerID = principal.ID

	items, err := s.store.List(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	totals := make(map[models.Category]*models.CategoryTotal)
	for _, item := range items {
		total, ok := totals[item.Category]
		if !ok {
			total = &models.CategoryTotal{Category: item.Category}
			totals[item.Category] = total
		}
		total.Items++
		total.Quantity += item.Quantity
		summary.TotalItems++
		summary.TotalQuantity += item.Quantity
	}

	for _, category := range append(append([]models.Category{}, models.Categories...), models.CategoryNone) {
		if total, ok := totals[category]; ok {
			summary.Categories = append(summary.Categories, *total)
		}
	}

	return summary, nil
}

// ExportSnapshot replaces the configured sheet range with every stored item.
func (s *Service) ExportSnapshot(ctx context.Context) (int, error) {
	if s.sheets == nil {
		return 0, ErrExportDisabled
	}

	items, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load inventory: %w", err)
	}

	exportedAt := s.now().UTC().Format(timestampLayout)
	rows := make([][]interface{}, 0, len(items)+1)
	rows = append(rows, snapshotHeader)
	for _, item := range items {
		rows = append(rows, []interface{}{
			item.ID,
			item.Name,
			string(item.Category),
			item.Quantity,
			item.OwnerID,
			item.UpdatedAt.UTC().Format(timestampLayout),
			exportedAt,
		})
	}

	if err := s.sheets.ReplaceRange(ctx, s.exportRange, rows); err != nil {
		return 0, fmt.Errorf("export snapshot: %w", err)
	}

	s.logger.Info("inventory snapshot exported", zap.Int("items", len(items)), zap.String("range", s.exportRange))
	return len(items), nil
}
