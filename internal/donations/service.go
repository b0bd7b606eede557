package donations

import (
	"context"
	"fmt"
	"strings"

	"carelink/internal/metrics"
	"carelink/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReportInvalidator drops any cached inventory report after the ledgers move.
type ReportInvalidator interface {
	InvalidateReport(ctx context.Context)
}

// Service runs the pledge workflow: pledged -> verified, nothing else.
type Service struct {
	repo    Repository
	tx      Transactor
	logger  logrus.FieldLogger
	metrics *metrics.Collector
	cache   ReportInvalidator
}

func NewService(repo Repository, tx Transactor, logger logrus.FieldLogger, collector *metrics.Collector) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("donations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transactor required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, tx: tx, logger: logger, metrics: collector}, nil
}

func (s *Service) WithCache(cache ReportInvalidator) *Service {
	s.cache = cache
	return s
}

type CreateInput struct {
	ItemID   string
	Quantity decimal.Decimal
	Notes    string
}

// Create records a pledge against an active item.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*types.Donation, error) {
	if err := types.ValidateQuantity("quantity", input.Quantity, true); err != nil {
		return nil, err
	}

	item, err := s.repo.Item(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, types.NewConflict("This item is no longer accepting donations")
	}

	donation := &types.Donation{
		UserID:   userID,
		ItemID:   item.ID,
		Quantity: input.Quantity,
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		donation.Notes = &notes
	}

	if err := s.repo.CreateDonation(ctx, donation); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"donation_id": donation.ID,
		"item_id":     donation.ItemID,
		"user_id":     userID,
	}).Info("donation pledged")

	return donation, nil
}

// Verify confirms receipt of a pledged donation. The status flip and both
// ledger increments commit together; a second call for the same donation
// fails with a conflict and changes nothing.
func (s *Service) Verify(ctx context.Context, donationID, verifierID string) (*types.Donation, error) {
	var verified *types.Donation
	err := s.tx.InTx(ctx, func(repo Repository) error {
		donation, err := repo.MarkVerified(ctx, donationID, verifierID)
		if err != nil {
			return err
		}
		if donation == nil {
			if _, err := repo.Donation(ctx, donationID); err != nil {
				return err
			}
			return types.NewConflict("donation has already been verified")
		}

		entry := s.logger.WithFields(logrus.Fields{
			"donation_id": donation.ID,
			"item_id":     donation.ItemID,
		})

		applied, err := repo.AddFulfilled(ctx, donation.ItemID, donation.Quantity)
		if err != nil {
			return err
		}
		if !applied {
			entry.Warn("verified donation references a missing item, ledgers left unchanged")
			verified = donation
			return nil
		}

		if err := repo.Restock(ctx, donation.ItemID, donation.Quantity, verifierID); err != nil {
			return err
		}

		verified = donation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncVerification()
	if s.cache != nil {
		s.cache.InvalidateReport(ctx)
	}
	s.logger.WithFields(logrus.Fields{
		"donation_id": verified.ID,
		"user_id":     verifierID,
	}).Info("donation verified")

	return verified, nil
}

// List returns donations visible to identity. Non-admins only ever see their
// own pledges.
func (s *Service) List(ctx context.Context, identity types.Identity, filter types.DonationFilter) ([]*types.Donation, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, types.NewValidation("unknown donation status %q", filter.Status)
	}
	if !identity.IsAdmin() {
		filter.UserID = identity.UserID
	}
	return s.repo.Donations(ctx, filter)
}
