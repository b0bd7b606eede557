package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Inventory struct {
	ItemID          string          `db:"item_id" json:"item_id"`
	QuantityOnHand  decimal.Decimal `db:"quantity_on_hand" json:"quantity_on_hand"`
	LastRestockedAt *time.Time      `db:"last_restocked_at" json:"last_restocked_at"`
	UpdatedBy       *string         `db:"updated_by" json:"updated_by"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// InventoryRow is an inventory record joined with its item for listings.
type InventoryRow struct {
	Inventory
	ItemName     string          `db:"item_name" json:"item_name"`
	Unit         string          `db:"unit" json:"unit"`
	CategoryName string          `db:"category_name" json:"category_name"`
	RequiredQty  decimal.Decimal `db:"required_qty" json:"required_qty"`
	FulfilledQty decimal.Decimal `db:"fulfilled_qty" json:"fulfilled_qty"`
	IsActive     bool            `db:"is_active" json:"is_active"`
}

type ItemStatus string

const (
	ItemStatusSurplus   ItemStatus = "surplus"
	ItemStatusNeeded    ItemStatus = "needed"
	ItemStatusFulfilled ItemStatus = "fulfilled"
)

// ReportSource is the stored state a report line is derived from.
type ReportSource struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	CategoryName   string          `db:"category_name"`
	Unit           string          `db:"unit"`
	RequiredQty    decimal.Decimal `db:"required_qty"`
	FulfilledQty   decimal.Decimal `db:"fulfilled_qty"`
	QuantityOnHand decimal.Decimal `db:"quantity_on_hand"`
}

// ReportLine field names are a stable contract for the UI and notifications.
type ReportLine struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit"`
	RequiredQty    decimal.Decimal `json:"required_qty"`
	FulfilledQty   decimal.Decimal `json:"fulfilled_qty"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	Deficit        decimal.Decimal `json:"deficit"`
	Surplus        decimal.Decimal `json:"surplus"`
	FulfillmentPct int64           `json:"fulfillment_pct"`
	Status         ItemStatus      `json:"status"`
}

type ReportSummary struct {
	TotalItems int `json:"total_items"`
	Fulfilled  int `json:"fulfilled"`
	Needed     int `json:"needed"`
	Surplus    int `json:"surplus"`
}

type Report struct {
	Report  []ReportLine  `json:"report"`
	Summary ReportSummary `json:"summary"`
}
