package store

import (
	"carelink/internal/utils"
	"carelink/pkg/types"
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"
)

const inventoryTableName = "inventory"

var inventoryColumns = utils.StructTagValues(types.Inventory{})

type InventoryRepository struct {
	db Querier
}

func NewInventoryRepository(db Querier) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Inventory(ctx context.Context, itemID string) (*types.Inventory, error) {
	query, args, err := psql().
		Select(inventoryColumns...).
		From(inventoryTableName).
		Where(sq.Eq{"item_id": itemID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate inventory query: %w", err)
	}

	var inv = new(types.Inventory)
	err = pgxscan.Get(ctx, r.db, inv, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrInventoryNotFound
		}
		return nil, fmt.Errorf("failed to fetch inventory: %w", err)
	}

	return inv, nil
}

func (r *InventoryRepository) InventoryRows(ctx context.Context) ([]*types.InventoryRow, error) {
	columns := append(
		utils.PrefixSliceOfStrings("inv", inventoryColumns),
		"i.name AS item_name",
		"i.unit",
		"COALESCE(c.name, '') AS category_name",
		"i.required_qty",
		"i.fulfilled_qty",
		"i.is_active",
	)

	query, args, err := psql().
		Select(columns...).
		From(inventoryTableName + " inv").
		Join(itemTableName + " i ON i.id = inv.item_id").
		LeftJoin(categoryTableName + " c ON c.id = i.category_id").
		OrderBy("inv.updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate inventory listing query: %w", err)
	}

	var rows = make([]*types.InventoryRow, 0)
	err = pgxscan.Select(ctx, r.db, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inventory: %w", err)
	}

	return rows, nil
}

// CreateInventories inserts one zero-quantity record per item id.
func (r *InventoryRepository) CreateInventories(ctx context.Context, itemIDs []string, updatedBy string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	now := time.Now()
	builder := psql().
		Insert(inventoryTableName).
		Columns("item_id", "quantity_on_hand", "updated_by", "updated_at")

	for _, itemID := range itemIDs {
		builder = builder.Values(itemID, decimal.Zero, nullable(updatedBy), now)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert inventory query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return writeError(err, "failed to create inventory records")
	}

	return nil
}

// Restock adds qty to the on-hand quantity and stamps restock metadata,
// creating the record when the item has none yet.
func (r *InventoryRepository) Restock(ctx context.Context, itemID string, qty decimal.Decimal, updatedBy string) error {
	now := time.Now()

	query, args, err := psql().
		Insert(inventoryTableName).
		Columns("item_id", "quantity_on_hand", "last_restocked_at", "updated_by", "updated_at").
		Values(itemID, qty, now, nullable(updatedBy), now).
		Suffix("ON CONFLICT (item_id) DO UPDATE SET " +
			"quantity_on_hand = inventory.quantity_on_hand + EXCLUDED.quantity_on_hand, " +
			"last_restocked_at = EXCLUDED.last_restocked_at, " +
			"updated_by = EXCLUDED.updated_by, " +
			"updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate restock query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to restock inventory")
}

// SetOnHand overwrites the on-hand quantity (administrative correction).
func (r *InventoryRepository) SetOnHand(ctx context.Context, itemID string, qty decimal.Decimal, updatedBy string) (*types.Inventory, error) {
	query, args, err := psql().
		Update(inventoryTableName).
		Set("quantity_on_hand", qty).
		Set("updated_by", nullable(updatedBy)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"item_id": itemID}).
		Suffix("RETURNING " + joinColumns(inventoryColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate inventory update query: %w", err)
	}

	var inv = new(types.Inventory)
	err = pgxscan.Get(ctx, r.db, inv, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrInventoryNotFound
		}
		return nil, writeError(err, fmt.Sprintf("failed to update inventory for item %s", itemID))
	}

	return inv, nil
}
