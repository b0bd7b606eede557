package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type DonationItem struct {
	ID           string          `db:"id" json:"id"`
	CategoryID   string          `db:"category_id" json:"category_id"`
	BatchID      *string         `db:"batch_id" json:"batch_id"`
	Name         string          `db:"name" json:"name"`
	Unit         string          `db:"unit" json:"unit"`
	RequiredQty  decimal.Decimal `db:"required_qty" json:"required_qty"`
	FulfilledQty decimal.Decimal `db:"fulfilled_qty" json:"fulfilled_qty"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

type ItemFilter struct {
	CategoryID string
	ActiveOnly bool
}

// ItemPatch carries a partial update; nil fields are left untouched.
type ItemPatch struct {
	CategoryID  *string
	Name        *string
	Unit        *string
	RequiredQty *decimal.Decimal
	IsActive    *bool
}

func (p ItemPatch) Empty() bool {
	return p.CategoryID == nil && p.Name == nil && p.Unit == nil && p.RequiredQty == nil && p.IsActive == nil
}

type BatchStatus string

const (
	BatchStatusDraft     BatchStatus = "draft"
	BatchStatusPublished BatchStatus = "published"
)

type DonationBatch struct {
	ID         string      `db:"id" json:"id"`
	Title      string      `db:"title" json:"title"`
	UploadedBy string      `db:"uploaded_by" json:"uploaded_by"`
	Status     BatchStatus `db:"status" json:"status"`
	SourceKey  *string     `db:"source_key" json:"source_key,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}

// BulkItem is one reviewed extraction candidate submitted for publishing.
type BulkItem struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit" validate:"max=50"`
	Category string          `json:"category" validate:"max=100"`
}
