package types

import "time"

// DefaultCategoryName is assigned when no keyword in the taxonomy matches.
const DefaultCategoryName = "Other"

type DonationCategory struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
