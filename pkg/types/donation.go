package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type DonationStatus string

const (
	DonationStatusPledged  DonationStatus = "pledged"
	DonationStatusVerified DonationStatus = "verified"
)

func (s DonationStatus) IsValid() bool {
	return s == DonationStatusPledged || s == DonationStatusVerified
}

type Donation struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	ItemID     string          `db:"item_id" json:"item_id"`
	Quantity   decimal.Decimal `db:"quantity" json:"quantity"`
	Status     DonationStatus  `db:"status" json:"status"`
	Notes      *string         `db:"notes" json:"notes"`
	DonatedAt  time.Time       `db:"donated_at" json:"donated_at"`
	VerifiedAt *time.Time      `db:"verified_at" json:"verified_at"`
	VerifiedBy *string         `db:"verified_by" json:"verified_by"`
}

type DonationFilter struct {
	UserID string
	ItemID string
	Status DonationStatus
}
