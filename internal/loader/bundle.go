package loader

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "marketpulse/internal/errors"
	"marketpulse/internal/files"
	"marketpulse/pkg/contracts/domain"
)

// Bundle holds the normalized tables of one data directory, one per
// category. A category with no file in the directory is nil.
type Bundle struct {
	State      *domain.Table
	County     *domain.Table
	PlanDesign *domain.Table
}

// Table returns the bundle's table for a category, nil if absent.
func (b *Bundle) Table(category domain.Category) *domain.Table {
	switch category {
	case domain.CategoryStateLevel:
		return b.State
	case domain.CategoryCountyLevel:
		return b.County
	case domain.CategoryPlanDesign:
		return b.PlanDesign
	}
	return nil
}

// Categories returns the categories present in the bundle.
func (b *Bundle) Categories() []domain.Category {
	var present []domain.Category
	for _, category := range domain.AllCategories() {
		if b.Table(category) != nil {
			present = append(present, category)
		}
	}
	return present
}

// LoadBundle discovers the PUFs under dataDir and loads one file per
// category concurrently. A missing category is logged, not an error; an
// empty directory is.
func (l *Loader) LoadBundle(ctx context.Context, dataDir string) (*Bundle, error) {
	discovery := files.NewDiscovery(dataDir)
	selected, err := discovery.SelectBundleFiles()
	if err != nil {
		return nil, apperrors.NewLoadError(dataDir, "discover public use files", err)
	}
	if len(selected) == 0 {
		return nil, apperrors.NewLoadError(dataDir, "no public use files found", nil)
	}

	for _, category := range domain.AllCategories() {
		if _, ok := selected[category]; !ok {
			l.logger.InfoContext(ctx, "no file for category",
				slog.String("category", category.String()),
				slog.String("data_dir", dataDir))
		}
	}

	bundle := &Bundle{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for category, puf := range selected {
		category, puf := category, puf
		g.Go(func() error {
			table, err := l.LoadCategory(gctx, puf.Path, category)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch category {
			case domain.CategoryStateLevel:
				bundle.State = table
			case domain.CategoryCountyLevel:
				bundle.County = table
			case domain.CategoryPlanDesign:
				bundle.PlanDesign = table
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundle, nil
}
