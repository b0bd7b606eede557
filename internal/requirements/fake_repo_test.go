package requirements

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"carelink/internal/utils"
	"carelink/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeState struct {
	categories map[string]types.DonationCategory
	items      map[string]types.DonationItem
	batches    map[string]types.DonationBatch
	inventory  map[string]types.Inventory
	donated    map[string]bool
}

func (s *fakeState) clone() *fakeState {
	out := &fakeState{
		categories: make(map[string]types.DonationCategory, len(s.categories)),
		items:      make(map[string]types.DonationItem, len(s.items)),
		batches:    make(map[string]types.DonationBatch, len(s.batches)),
		inventory:  make(map[string]types.Inventory, len(s.inventory)),
		donated:    make(map[string]bool, len(s.donated)),
	}
	for k, v := range s.categories {
		out.categories[k] = v
	}
	for k, v := range s.items {
		out.items[k] = v
	}
	for k, v := range s.batches {
		out.batches[k] = v
	}
	for k, v := range s.inventory {
		out.inventory[k] = v
	}
	for k, v := range s.donated {
		out.donated[k] = v
	}
	return out
}

// fakeRepo is an in-memory Repository. Transactions are serialised by mu and
// roll back to a snapshot when fn fails; calls made outside InTx are not
// locked.
type fakeRepo struct {
	mu    sync.Mutex
	state *fakeState

	failCreateInventories error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: &fakeState{
		categories: make(map[string]types.DonationCategory),
		items:      make(map[string]types.DonationItem),
		batches:    make(map[string]types.DonationBatch),
		inventory:  make(map[string]types.Inventory),
		donated:    make(map[string]bool),
	}}
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(repo Repository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := f.state.clone()
	if err := fn(f); err != nil {
		f.state = snapshot
		return err
	}
	return nil
}

func (f *fakeRepo) AllCategories(ctx context.Context) ([]*types.DonationCategory, error) {
	out := make([]*types.DonationCategory, 0, len(f.state.categories))
	for _, c := range f.state.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRepo) CategoryByID(ctx context.Context, id string) (*types.DonationCategory, error) {
	c, ok := f.state.categories[id]
	if !ok {
		return nil, types.ErrCategoryNotFound
	}
	return &c, nil
}

func (f *fakeRepo) CategoryByName(ctx context.Context, name string) (*types.DonationCategory, error) {
	for _, c := range f.state.categories {
		if c.Name == name {
			c := c
			return &c, nil
		}
	}
	return nil, types.ErrCategoryNotFound
}

func (f *fakeRepo) CreateCategory(ctx context.Context, category *types.DonationCategory) error {
	for _, c := range f.state.categories {
		if c.Name == category.Name {
			return types.NewConflict("category %q already exists", category.Name)
		}
	}
	if category.ID == "" {
		category.ID = utils.NanoID()
	}
	category.CreatedAt = time.Now()
	f.state.categories[category.ID] = *category
	return nil
}

func (f *fakeRepo) UpdateCategory(ctx context.Context, category *types.DonationCategory) error {
	if _, ok := f.state.categories[category.ID]; !ok {
		return types.ErrCategoryNotFound
	}
	f.state.categories[category.ID] = *category
	return nil
}

func (f *fakeRepo) DeleteCategory(ctx context.Context, id string) error {
	if _, ok := f.state.categories[id]; !ok {
		return types.ErrCategoryNotFound
	}
	for _, item := range f.state.items {
		if item.CategoryID == id {
			return types.NewConflict("category is still assigned to donation items")
		}
	}
	delete(f.state.categories, id)
	return nil
}

func (f *fakeRepo) Item(ctx context.Context, itemID string) (*types.DonationItem, error) {
	item, ok := f.state.items[itemID]
	if !ok {
		return nil, types.ErrItemNotFound
	}
	return &item, nil
}

func (f *fakeRepo) Items(ctx context.Context, filter types.ItemFilter) ([]*types.DonationItem, error) {
	out := make([]*types.DonationItem, 0)
	for _, item := range f.state.items {
		if filter.CategoryID != "" && item.CategoryID != filter.CategoryID {
			continue
		}
		if filter.ActiveOnly && !item.IsActive {
			continue
		}
		item := item
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRepo) CreateItems(ctx context.Context, items []*types.DonationItem) error {
	for _, item := range items {
		if _, ok := f.state.categories[item.CategoryID]; !ok {
			return types.ErrCategoryNotFound
		}
		if item.ID == "" {
			item.ID = utils.NanoID()
		}
		f.state.items[item.ID] = *item
	}
	return nil
}

func (f *fakeRepo) UpdateItem(ctx context.Context, itemID string, patch types.ItemPatch) (*types.DonationItem, error) {
	item, ok := f.state.items[itemID]
	if !ok {
		return nil, types.ErrItemNotFound
	}
	if patch.CategoryID != nil {
		item.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.RequiredQty != nil {
		item.RequiredQty = *patch.RequiredQty
	}
	if patch.IsActive != nil {
		item.IsActive = *patch.IsActive
	}
	f.state.items[itemID] = item
	return &item, nil
}

func (f *fakeRepo) DeleteItem(ctx context.Context, itemID string) error {
	if _, ok := f.state.items[itemID]; !ok {
		return types.ErrItemNotFound
	}
	delete(f.state.items, itemID)
	delete(f.state.inventory, itemID)
	return nil
}

func (f *fakeRepo) ItemHasDonations(ctx context.Context, itemID string) (bool, error) {
	return f.state.donated[itemID], nil
}

func (f *fakeRepo) ReportSources(ctx context.Context) ([]*types.ReportSource, error) {
	out := make([]*types.ReportSource, 0)
	for _, item := range f.state.items {
		if !item.IsActive {
			continue
		}
		src := &types.ReportSource{
			ID:           item.ID,
			Name:         item.Name,
			CategoryName: f.state.categories[item.CategoryID].Name,
			Unit:         item.Unit,
			RequiredQty:  item.RequiredQty,
			FulfilledQty: item.FulfilledQty,
		}
		if inv, ok := f.state.inventory[item.ID]; ok {
			src.QuantityOnHand = inv.QuantityOnHand
		}
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRepo) CreateBatch(ctx context.Context, batch *types.DonationBatch) error {
	if batch.ID == "" {
		batch.ID = utils.NanoID()
	}
	batch.CreatedAt = time.Now()
	f.state.batches[batch.ID] = *batch
	return nil
}

func (f *fakeRepo) Batches(ctx context.Context) ([]*types.DonationBatch, error) {
	out := make([]*types.DonationBatch, 0, len(f.state.batches))
	for _, b := range f.state.batches {
		b := b
		out = append(out, &b)
	}
	return out, nil
}

func (f *fakeRepo) InventoryRows(ctx context.Context) ([]*types.InventoryRow, error) {
	out := make([]*types.InventoryRow, 0, len(f.state.inventory))
	for _, inv := range f.state.inventory {
		item := f.state.items[inv.ItemID]
		out = append(out, &types.InventoryRow{
			Inventory:    inv,
			ItemName:     item.Name,
			Unit:         item.Unit,
			RequiredQty:  item.RequiredQty,
			FulfilledQty: item.FulfilledQty,
			IsActive:     item.IsActive,
		})
	}
	return out, nil
}

func (f *fakeRepo) CreateInventories(ctx context.Context, itemIDs []string, updatedBy string) error {
	if f.failCreateInventories != nil {
		return f.failCreateInventories
	}
	for _, id := range itemIDs {
		f.state.inventory[id] = types.Inventory{
			ItemID:         id,
			QuantityOnHand: decimal.Zero,
			UpdatedBy:      utils.StringPtr(updatedBy),
			UpdatedAt:      time.Now(),
		}
	}
	return nil
}

func (f *fakeRepo) SetOnHand(ctx context.Context, itemID string, qty decimal.Decimal, updatedBy string) (*types.Inventory, error) {
	inv, ok := f.state.inventory[itemID]
	if !ok {
		return nil, types.ErrInventoryNotFound
	}
	inv.QuantityOnHand = qty
	inv.UpdatedBy = utils.StringPtr(updatedBy)
	inv.UpdatedAt = time.Now()
	f.state.inventory[itemID] = inv
	return &inv, nil
}

type fakeCache struct {
	report      *types.Report
	stores      int
	invalidated int
}

func (c *fakeCache) Report(ctx context.Context) (*types.Report, bool) {
	return c.report, c.report != nil
}

func (c *fakeCache) StoreReport(ctx context.Context, report *types.Report) {
	c.stores++
	c.report = report
}

func (c *fakeCache) InvalidateReport(ctx context.Context) {
	c.invalidated++
	c.report = nil
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
