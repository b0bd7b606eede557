package store

import (
	"carelink/internal/db"
	"carelink/internal/utils"
	"carelink/pkg/types"
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"
)

const itemTableName = "donation_items"

var itemColumns = utils.StructTagValues(types.DonationItem{})

type ItemRepository struct {
	db Querier
}

func NewItemRepository(db Querier) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Item(ctx context.Context, itemID string) (*types.DonationItem, error) {
	query, args, err := psql().
		Select(itemColumns...).
		From(itemTableName).
		Where(sq.Eq{"id": itemID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate item query: %w", err)
	}

	var item = new(types.DonationItem)
	err = pgxscan.Get(ctx, r.db, item, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}

	return item, nil
}

func (r *ItemRepository) Items(ctx context.Context, filter types.ItemFilter) ([]*types.DonationItem, error) {
	builder := psql().
		Select(itemColumns...).
		From(itemTableName).
		OrderBy("name ASC")

	if filter.CategoryID != "" {
		builder = builder.Where(sq.Eq{"category_id": filter.CategoryID})
	}
	if filter.ActiveOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate items query: %w", err)
	}

	var items = make([]*types.DonationItem, 0)
	err = pgxscan.Select(ctx, r.db, &items, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	return items, nil
}

func (r *ItemRepository) CreateItem(ctx context.Context, item *types.DonationItem) error {
	return r.CreateItems(ctx, []*types.DonationItem{item})
}

// CreateItems inserts all items in a single statement.
func (r *ItemRepository) CreateItems(ctx context.Context, items []*types.DonationItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	builder := psql().Insert(itemTableName).Columns(itemColumns...)

	for _, item := range items {
		if item.ID == "" {
			item.ID = utils.NanoID()
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		builder = builder.Values(
			item.ID,
			item.CategoryID,
			item.BatchID,
			item.Name,
			item.Unit,
			item.RequiredQty,
			item.FulfilledQty,
			item.IsActive,
			item.CreatedAt,
			item.UpdatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert items query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return types.ErrCategoryNotFound
		}
		return writeError(err, "failed to create items")
	}

	return nil
}

func (r *ItemRepository) UpdateItem(ctx context.Context, itemID string, patch types.ItemPatch) (*types.DonationItem, error) {
	builder := psql().
		Update(itemTableName).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": itemID}).
		Suffix("RETURNING " + joinColumns(itemColumns))

	if patch.CategoryID != nil {
		builder = builder.Set("category_id", *patch.CategoryID)
	}
	if patch.Name != nil {
		builder = builder.Set("name", *patch.Name)
	}
	if patch.Unit != nil {
		builder = builder.Set("unit", *patch.Unit)
	}
	if patch.RequiredQty != nil {
		builder = builder.Set("required_qty", *patch.RequiredQty)
	}
	if patch.IsActive != nil {
		builder = builder.Set("is_active", *patch.IsActive)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update item query for item %s: %w", itemID, err)
	}

	var item = new(types.DonationItem)
	err = pgxscan.Get(ctx, r.db, item, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrItemNotFound
		}
		if db.IsForeignKeyViolation(err) {
			return nil, types.ErrCategoryNotFound
		}
		return nil, writeError(err, fmt.Sprintf("failed to update item %s", itemID))
	}

	return item, nil
}

func (r *ItemRepository) DeleteItem(ctx context.Context, itemID string) error {
	query, args, err := psql().Delete(itemTableName).Where(sq.Eq{"id": itemID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete item query for item %s: %w", itemID, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return types.NewConflict("item is referenced by donations, deactivate it instead")
		}
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrItemNotFound
	}

	return nil
}

// AddFulfilled increments fulfilled_qty in place. It reports false when the
// item no longer exists.
func (r *ItemRepository) AddFulfilled(ctx context.Context, itemID string, qty decimal.Decimal) (bool, error) {
	query, args, err := psql().
		Update(itemTableName).
		Set("fulfilled_qty", sq.Expr("fulfilled_qty + ?", qty)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate fulfilled increment query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to increment fulfilled quantity for item %s: %w", itemID, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *ItemRepository) ItemHasDonations(ctx context.Context, itemID string) (bool, error) {
	query, args, err := psql().
		Select("1").
		From(donationTableName).
		Where(sq.Eq{"item_id": itemID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate donation lookup query: %w", err)
	}

	var found int
	err = pgxscan.Get(ctx, r.db, &found, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up donations for item %s: %w", itemID, err)
	}

	return true, nil
}

// ReportSources returns the active items joined with their category name and
// on-hand inventory.
func (r *ItemRepository) ReportSources(ctx context.Context) ([]*types.ReportSource, error) {
	query, args, err := psql().
		Select(
			"i.id",
			"i.name",
			"COALESCE(c.name, '') AS category_name",
			"i.unit",
			"i.required_qty",
			"i.fulfilled_qty",
			"COALESCE(inv.quantity_on_hand, 0) AS quantity_on_hand",
		).
		From(itemTableName + " i").
		LeftJoin(categoryTableName + " c ON c.id = i.category_id").
		LeftJoin(inventoryTableName + " inv ON inv.item_id = i.id").
		Where(sq.Eq{"i.is_active": true}).
		OrderBy("i.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate report query: %w", err)
	}

	var rows = make([]*types.ReportSource, 0)
	err = pgxscan.Select(ctx, r.db, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report rows: %w", err)
	}

	return rows, nil
}
