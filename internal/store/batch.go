package store

import (
	"carelink/internal/utils"
	"carelink/pkg/types"
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
)

const batchTableName = "donation_batches"

var batchColumns = utils.StructTagValues(types.DonationBatch{})

type BatchRepository struct {
	db Querier
}

func NewBatchRepository(db Querier) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Batches(ctx context.Context) ([]*types.DonationBatch, error) {
	query, args, err := psql().
		Select(batchColumns...).
		From(batchTableName).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate batches query: %w", err)
	}

	var batches = make([]*types.DonationBatch, 0)
	err = pgxscan.Select(ctx, r.db, &batches, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batches: %w", err)
	}

	return batches, nil
}

func (r *BatchRepository) CreateBatch(ctx context.Context, batch *types.DonationBatch) error {
	if batch.ID == "" {
		batch.ID = utils.NanoID()
	}
	if batch.Status == "" {
		batch.Status = types.BatchStatusDraft
	}
	batch.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(batchTableName).
		SetMap(utils.StructToMap(batch)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert batch query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return writeError(err, "failed to create batch")
}
