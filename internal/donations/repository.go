package donations

import (
	"context"

	"carelink/internal/db"
	"carelink/internal/store"
	"carelink/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Item(ctx context.Context, itemID string) (*types.DonationItem, error)
	AddFulfilled(ctx context.Context, itemID string, qty decimal.Decimal) (bool, error)
	Restock(ctx context.Context, itemID string, qty decimal.Decimal, updatedBy string) error

	Donation(ctx context.Context, donationID string) (*types.Donation, error)
	Donations(ctx context.Context, filter types.DonationFilter) ([]*types.Donation, error)
	CreateDonation(ctx context.Context, donation *types.Donation) error
	MarkVerified(ctx context.Context, donationID, verifiedBy string) (*types.Donation, error)
}

type Transactor interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

type pgRepository struct {
	*store.ItemRepository
	*store.InventoryRepository
	*store.DonationRepository
}

func NewRepository(q store.Querier) Repository {
	return &pgRepository{
		ItemRepository:      store.NewItemRepository(q),
		InventoryRepository: store.NewInventoryRepository(q),
		DonationRepository:  store.NewDonationRepository(q),
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
