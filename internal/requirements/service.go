package requirements

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"carelink/internal/extract"
	"carelink/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReportCache is an optional read-through cache for the inventory report.
type ReportCache interface {
	Report(ctx context.Context) (*types.Report, bool)
	StoreReport(ctx context.Context, report *types.Report)
	InvalidateReport(ctx context.Context)
}

// Service owns the requirement ledger (donation items and their categories
// and batches) and the inventory ledger.
type Service struct {
	repo   Repository
	tx     Transactor
	cache  ReportCache
	logger logrus.FieldLogger
}

func NewService(repo Repository, tx Transactor, logger logrus.FieldLogger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requirements repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transactor required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, tx: tx, logger: logger}, nil
}

// WithCache enables report caching.
func (s *Service) WithCache(cache ReportCache) *Service {
	s.cache = cache
	return s
}

type CreateItemInput struct {
	CategoryID  string
	Name        string
	Unit        string
	RequiredQty decimal.Decimal
	IsActive    *bool
}

// CreateItem adds a single requirement line together with its empty
// inventory record.
func (s *Service) CreateItem(ctx context.Context, input CreateItemInput, actorID string) (*types.DonationItem, error) {
	name := strings.TrimSpace(input.Name)
	unit := extract.NormalizeUnit(input.Unit)
	switch {
	case name == "":
		return nil, types.NewValidation("name is required")
	case unit == "":
		return nil, types.NewValidation("unit is required")
	}
	if err := types.ValidateQuantity("required_qty", input.RequiredQty, false); err != nil {
		return nil, err
	}

	item := &types.DonationItem{
		CategoryID:   input.CategoryID,
		Name:         name,
		Unit:         unit,
		RequiredQty:  input.RequiredQty,
		FulfilledQty: decimal.Zero,
		IsActive:     input.IsActive == nil || *input.IsActive,
	}

	err := s.tx.InTx(ctx, func(repo Repository) error {
		if _, err := repo.CategoryByID(ctx, input.CategoryID); err != nil {
			return unresolvedCategory(err, input.CategoryID)
		}
		if err := repo.CreateItems(ctx, []*types.DonationItem{item}); err != nil {
			return err
		}
		return repo.CreateInventories(ctx, []string{item.ID}, actorID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.WithField("item_id", item.ID).Info("donation item created")

	return item, nil
}

type BulkCreateInput struct {
	BatchTitle string
	UploaderID string
	SourceKey  string
	Items      []types.BulkItem
}

type BulkCreateResult struct {
	Batch *types.DonationBatch  `json:"batch"`
	Items []*types.DonationItem `json:"items"`
}

// BulkCreate publishes a reviewed batch of candidates. Categories are matched
// by exact name and created when missing. Nothing is kept if any step fails.
func (s *Service) BulkCreate(ctx context.Context, input BulkCreateInput) (*BulkCreateResult, error) {
	title := strings.TrimSpace(input.BatchTitle)
	if title == "" {
		return nil, types.NewValidation("batch_title is required")
	}
	if len(input.Items) == 0 {
		return nil, types.NewValidation("at least one item is required")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, types.NewValidation("item %d: name is required", i).WithDetails(map[string]int{"index": i})
		}
		if err := types.ValidateQuantity(fmt.Sprintf("item %d: quantity", i), item.Quantity, false); err != nil {
			return nil, types.AsError(err).WithDetails(map[string]int{"index": i})
		}
	}

	result := new(BulkCreateResult)
	err := s.tx.InTx(ctx, func(repo Repository) error {
		batch := &types.DonationBatch{
			Title:      title,
			UploadedBy: input.UploaderID,
			Status:     types.BatchStatusPublished,
		}
		if input.SourceKey != "" {
			batch.SourceKey = &input.SourceKey
		}
		if err := repo.CreateBatch(ctx, batch); err != nil {
			return err
		}

		categoryIDs := make(map[string]string)
		items := make([]*types.DonationItem, 0, len(input.Items))
		for _, in := range input.Items {
			categoryName := strings.TrimSpace(in.Category)
			if categoryName == "" {
				categoryName = types.DefaultCategoryName
			}

			categoryID, ok := categoryIDs[categoryName]
			if !ok {
				category, err := resolveCategory(ctx, repo, categoryName)
				if err != nil {
					return err
				}
				categoryID = category.ID
				categoryIDs[categoryName] = categoryID
			}

			items = append(items, &types.DonationItem{
				CategoryID:   categoryID,
				BatchID:      &batch.ID,
				Name:         strings.TrimSpace(in.Name),
				Unit:         extract.NormalizeUnit(in.Unit),
				RequiredQty:  in.Quantity,
				FulfilledQty: decimal.Zero,
				IsActive:     true,
			})
		}

		if err := repo.CreateItems(ctx, items); err != nil {
			return err
		}

		itemIDs := make([]string, 0, len(items))
		for _, item := range items {
			itemIDs = append(itemIDs, item.ID)
		}
		if err := repo.CreateInventories(ctx, itemIDs, input.UploaderID); err != nil {
			return err
		}

		result.Batch = batch
		result.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{
		"batch_id": result.Batch.ID,
		"items":    len(result.Items),
	}).Info("donation batch published")

	return result, nil
}

func resolveCategory(ctx context.Context, repo Repository, name string) (*types.DonationCategory, error) {
	category, err := repo.CategoryByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, types.ErrCategoryNotFound) {
		return nil, err
	}

	category = &types.DonationCategory{Name: name}
	if err := repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) UpdateItem(ctx context.Context, itemID string, patch types.ItemPatch) (*types.DonationItem, error) {
	if patch.Empty() {
		return nil, types.NewValidation("nothing to update")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, types.NewValidation("name must not be empty")
		}
		patch.Name = &name
	}
	if patch.Unit != nil {
		unit := extract.NormalizeUnit(*patch.Unit)
		if unit == "" {
			return nil, types.NewValidation("unit must not be empty")
		}
		patch.Unit = &unit
	}
	if patch.RequiredQty != nil {
		if err := types.ValidateQuantity("required_qty", *patch.RequiredQty, false); err != nil {
			return nil, err
		}
	}

	var item *types.DonationItem
	err := s.tx.InTx(ctx, func(repo Repository) error {
		if patch.CategoryID != nil {
			if _, err := repo.CategoryByID(ctx, *patch.CategoryID); err != nil {
				return unresolvedCategory(err, *patch.CategoryID)
			}
		}

		var err error
		item, err = repo.UpdateItem(ctx, itemID, patch)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return item, nil
}

// DeleteItem removes an item that has never received a pledge. Items with
// donations must be deactivated instead so the ledger history survives.
func (s *Service) DeleteItem(ctx context.Context, itemID string) error {
	err := s.tx.InTx(ctx, func(repo Repository) error {
		if _, err := repo.Item(ctx, itemID); err != nil {
			return err
		}

		referenced, err := repo.ItemHasDonations(ctx, itemID)
		if err != nil {
			return err
		}
		if referenced {
			return types.NewConflict("item has donations, deactivate it instead")
		}

		return repo.DeleteItem(ctx, itemID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.logger.WithField("item_id", itemID).Info("donation item deleted")
	return nil
}

func (s *Service) Item(ctx context.Context, itemID string) (*types.DonationItem, error) {
	return s.repo.Item(ctx, itemID)
}

func (s *Service) Items(ctx context.Context, filter types.ItemFilter) ([]*types.DonationItem, error) {
	return s.repo.Items(ctx, filter)
}

func (s *Service) Batches(ctx context.Context) ([]*types.DonationBatch, error) {
	return s.repo.Batches(ctx)
}

// Report returns every active item with its derived fields and the status
// counts.
func (s *Service) Report(ctx context.Context) (*types.Report, error) {
	if s.cache != nil {
		if report, ok := s.cache.Report(ctx); ok {
			return report, nil
		}
	}

	sources, err := s.repo.ReportSources(ctx)
	if err != nil {
		return nil, err
	}

	report := BuildReport(sources)
	if s.cache != nil {
		s.cache.StoreReport(ctx, report)
	}

	return report, nil
}

func (s *Service) Inventory(ctx context.Context) ([]*types.InventoryRow, error) {
	return s.repo.InventoryRows(ctx)
}

// CorrectInventory overwrites the on-hand quantity after a physical count.
func (s *Service) CorrectInventory(ctx context.Context, itemID string, qty decimal.Decimal, actorID string) (*types.Inventory, error) {
	if err := types.ValidateQuantity("quantity_on_hand", qty, false); err != nil {
		return nil, err
	}

	inv, err := s.repo.SetOnHand(ctx, itemID, qty, actorID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{
		"item_id":  itemID,
		"quantity": qty.String(),
		"user_id":  actorID,
	}).Info("inventory corrected")

	return inv, nil
}

func (s *Service) Categories(ctx context.Context) ([]*types.DonationCategory, error) {
	return s.repo.AllCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name, description string) (*types.DonationCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.NewValidation("name is required")
	}

	category := &types.DonationCategory{Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id, name, description string) (*types.DonationCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.NewValidation("name is required")
	}

	category := &types.DonationCategory{ID: id, Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return s.repo.CategoryByID(ctx, id)
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateReport(ctx)
	}
}

func unresolvedCategory(err error, categoryID string) error {
	if errors.Is(err, types.ErrCategoryNotFound) {
		return types.NewValidation("category %q could not be resolved", categoryID)
	}
	return err
}
