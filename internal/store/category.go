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
)

const categoryTableName = "donation_categories"

var categoryColumns = utils.StructTagValues(types.DonationCategory{})

type CategoryRepository struct {
	db Querier
}

func NewCategoryRepository(db Querier) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) AllCategories(ctx context.Context) ([]*types.DonationCategory, error) {
	query, args, err := psql().
		Select(categoryColumns...).
		From(categoryTableName).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate categories query: %w", err)
	}

	var categories = make([]*types.DonationCategory, 0)
	err = pgxscan.Select(ctx, r.db, &categories, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepository) CategoryByID(ctx context.Context, id string) (*types.DonationCategory, error) {
	return r.categoryWhere(ctx, sq.Eq{"id": id})
}

// CategoryByName matches the name exactly (case-sensitive).
func (r *CategoryRepository) CategoryByName(ctx context.Context, name string) (*types.DonationCategory, error) {
	return r.categoryWhere(ctx, sq.Eq{"name": name})
}

func (r *CategoryRepository) categoryWhere(ctx context.Context, pred sq.Eq) (*types.DonationCategory, error) {
	query, args, err := psql().
		Select(categoryColumns...).
		From(categoryTableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate category query: %w", err)
	}

	var category types.DonationCategory
	err = pgxscan.Get(ctx, r.db, &category, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to fetch category: %w", err)
	}

	return &category, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *types.DonationCategory) error {
	if category.ID == "" {
		category.ID = utils.NanoID()
	}
	category.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(categoryTableName).
		SetMap(utils.StructToMap(category)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return types.NewConflict("category %q already exists", category.Name)
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}

	return nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, category *types.DonationCategory) error {
	query, args, err := psql().
		Update(categoryTableName).
		Set("name", category.Name).
		Set("description", category.Description).
		Where(sq.Eq{"id": category.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return types.NewConflict("category %q already exists", category.Name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrCategoryNotFound
	}

	return nil
}

// UpsertCategory inserts the category or refreshes the description of the
// stored row with the same name. Used by the seed sync.
func (r *CategoryRepository) UpsertCategory(ctx context.Context, category *types.DonationCategory) error {
	if category.ID == "" {
		category.ID = utils.NanoID()
	}
	category.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(categoryTableName).
		SetMap(utils.StructToMap(category)).
		Suffix("ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}

	return nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	query, args, err := psql().
		Delete(categoryTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return types.NewConflict("category is still assigned to donation items")
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrCategoryNotFound
	}

	return nil
}
