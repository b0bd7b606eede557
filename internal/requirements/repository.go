package requirements

import (
	"context"

	"carelink/internal/db"
	"carelink/internal/store"
	"carelink/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository is the storage surface the requirement and inventory ledgers
// need. Inside a transaction every call runs on the same unit of work.
type Repository interface {
	AllCategories(ctx context.Context) ([]*types.DonationCategory, error)
	CategoryByID(ctx context.Context, id string) (*types.DonationCategory, error)
	CategoryByName(ctx context.Context, name string) (*types.DonationCategory, error)
	CreateCategory(ctx context.Context, category *types.DonationCategory) error
	UpdateCategory(ctx context.Context, category *types.DonationCategory) error
	DeleteCategory(ctx context.Context, id string) error

	Item(ctx context.Context, itemID string) (*types.DonationItem, error)
	Items(ctx context.Context, filter types.ItemFilter) ([]*types.DonationItem, error)
	CreateItems(ctx context.Context, items []*types.DonationItem) error
	UpdateItem(ctx context.Context, itemID string, patch types.ItemPatch) (*types.DonationItem, error)
	DeleteItem(ctx context.Context, itemID string) error
	ItemHasDonations(ctx context.Context, itemID string) (bool, error)
	ReportSources(ctx context.Context) ([]*types.ReportSource, error)

	CreateBatch(ctx context.Context, batch *types.DonationBatch) error
	Batches(ctx context.Context) ([]*types.DonationBatch, error)

	InventoryRows(ctx context.Context) ([]*types.InventoryRow, error)
	CreateInventories(ctx context.Context, itemIDs []string, updatedBy string) error
	SetOnHand(ctx context.Context, itemID string, qty decimal.Decimal, updatedBy string) (*types.Inventory, error)
}

type Transactor interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

type pgRepository struct {
	*store.CategoryRepository
	*store.ItemRepository
	*store.BatchRepository
	*store.InventoryRepository
}

// NewRepository binds the store repositories to q, which may be the pool or
// an open transaction.
func NewRepository(q store.Querier) Repository {
	return &pgRepository{
		CategoryRepository:  store.NewCategoryRepository(q),
		ItemRepository:      store.NewItemRepository(q),
		BatchRepository:     store.NewBatchRepository(q),
		InventoryRepository: store.NewInventoryRepository(q),
	}
}

type pgTransactor struct {
	runner *db.TxRunner
}

func NewTransactor(runner *db.TxRunner) Transactor {
	return &pgTransactor{runner: runner}
}

func (t *pgTransactor) InTx(ctx context.Context, fn func(repo Repository) error) error {
	return t.runner.InTx(ctx, func(tx pgx.Tx) error {
		return fn(NewRepository(tx))
	})
}
