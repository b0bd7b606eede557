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

const donationTableName = "donations"

var donationColumns = utils.StructTagValues(types.Donation{})

type DonationRepository struct {
	db Querier
}

func NewDonationRepository(db Querier) *DonationRepository {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Donation(ctx context.Context, donationID string) (*types.Donation, error) {
	query, args, err := psql().
		Select(donationColumns...).
		From(donationTableName).
		Where(sq.Eq{"id": donationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation query: %w", err)
	}

	var donation = new(types.Donation)
	err = pgxscan.Get(ctx, r.db, donation, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to fetch donation: %w", err)
	}

	return donation, nil
}

func (r *DonationRepository) Donations(ctx context.Context, filter types.DonationFilter) ([]*types.Donation, error) {
	builder := psql().
		Select(donationColumns...).
		From(donationTableName).
		OrderBy("donated_at DESC")

	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.ItemID != "" {
		builder = builder.Where(sq.Eq{"item_id": filter.ItemID})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations query: %w", err)
	}

	var donations = make([]*types.Donation, 0)
	err = pgxscan.Select(ctx, r.db, &donations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}

	return donations, nil
}

func (r *DonationRepository) CreateDonation(ctx context.Context, donation *types.Donation) error {
	if donation.ID == "" {
		donation.ID = utils.NanoID()
	}
	donation.Status = types.DonationStatusPledged
	donation.DonatedAt = time.Now()

	query, args, err := psql().
		Insert(donationTableName).
		SetMap(utils.StructToMap(donation)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donation query: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return types.ErrItemNotFound
		}
		return writeError(err, "failed to create donation")
	}

	return nil
}

// MarkVerified flips a pledged donation to verified. It returns nil with no
// error when the donation is missing or was already verified; only one caller
// can ever win the transition.
func (r *DonationRepository) MarkVerified(ctx context.Context, donationID, verifiedBy string) (*types.Donation, error) {
	query, args, err := psql().
		Update(donationTableName).
		Set("status", types.DonationStatusVerified).
		Set("verified_at", time.Now()).
		Set("verified_by", verifiedBy).
		Where(sq.Eq{"id": donationID, "status": types.DonationStatusPledged}).
		Suffix("RETURNING " + joinColumns(donationColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verify donation query: %w", err)
	}

	var donation = new(types.Donation)
	err = pgxscan.Get(ctx, r.db, donation, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to verify donation %s: %w", donationID, err)
	}

	return donation, nil
}
