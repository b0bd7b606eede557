package seed

import (
	"context"
	"fmt"

	"carelink/internal/extract"
	"carelink/pkg/types"

	"github.com/sirupsen/logrus"
)

type CategoryStore interface {
	AllCategories(ctx context.Context) ([]*types.DonationCategory, error)
	UpsertCategory(ctx context.Context, category *types.DonationCategory) error
}

// descriptions are keyed by the classifier's category names. Every name the
// classifier can suggest must exist in the store so bulk publishing resolves
// it without creating ad-hoc rows.
var descriptions = map[string]string{
	"Grains & Cereals":     "Rice, flour, lentils and other staples",
	"Dairy Products":       "Milk, ghee, paneer and other dairy",
	"Fruits & Vegetables":  "Fresh produce",
	"Beverages":            "Tea, coffee, juices and health drinks",
	"Snacks & Sweets":      "Biscuits, sugar, jaggery and treats",
	"Hygiene & Toiletries": "Soap, toothpaste, sanitary and cleaning supplies",
	"Clothing":             "Clothes, footwear, blankets and linen",
	"Stationery & Books":   "School supplies, notebooks and books",
	"Medicine & Health":    "Medicines, first aid and health supplies",

	types.DefaultCategoryName: "Anything that does not fit another category",
}

type SyncResult struct {
	Created int
	Updated int
}

// SeedCategories upserts the classifier taxonomy. Categories added by admins
// are left alone.
func SeedCategories(ctx context.Context, repo CategoryStore) (*SyncResult, error) {
	existing, err := repo.AllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing categories: %w", err)
	}

	known := make(map[string]bool, len(existing))
	for _, category := range existing {
		known[category.Name] = true
	}

	names := extract.Categories()
	logrus.WithFields(logrus.Fields{
		"taxonomy": len(names),
		"stored":   len(existing),
	}).Info("starting category sync")

	result := new(SyncResult)
	for _, name := range names {
		category := &types.DonationCategory{
			Name:        name,
			Description: descriptions[name],
		}
		if err := repo.UpsertCategory(ctx, category); err != nil {
			return nil, fmt.Errorf("failed to upsert category %s: %w", name, err)
		}

		if known[name] {
			result.Updated++
		} else {
			result.Created++
			logrus.WithField("category", name).Info("category created")
		}
	}

	logrus.WithFields(logrus.Fields{
		"created": result.Created,
		"updated": result.Updated,
	}).Info("category sync complete")

	return result, nil
}
