package requirements

import (
	"carelink/pkg/types"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DeriveLine computes the deficit, surplus, fulfillment percentage and status
// of one item from its stored quantities.
func DeriveLine(src *types.ReportSource) types.ReportLine {
	required := src.RequiredQty
	fulfilled := src.FulfilledQty

	line := types.ReportLine{
		ID:             src.ID,
		Name:           src.Name,
		Category:       src.CategoryName,
		Unit:           src.Unit,
		RequiredQty:    required,
		FulfilledQty:   fulfilled,
		QuantityOnHand: src.QuantityOnHand,
		Deficit:        decimal.Max(decimal.Zero, required.Sub(fulfilled)),
		Surplus:        decimal.Max(decimal.Zero, fulfilled.Sub(required)),
	}

	if required.IsPositive() {
		line.FulfillmentPct = fulfilled.Mul(hundred).Div(required).Round(0).IntPart()
	}

	switch {
	case line.Surplus.IsPositive():
		line.Status = types.ItemStatusSurplus
	case line.Deficit.IsPositive():
		line.Status = types.ItemStatusNeeded
	default:
		line.Status = types.ItemStatusFulfilled
	}

	return line
}

// BuildReport derives every line and the per-status counts.
func BuildReport(sources []*types.ReportSource) *types.Report {
	report := &types.Report{Report: make([]types.ReportLine, 0, len(sources))}

	for _, src := range sources {
		line := DeriveLine(src)
		report.Report = append(report.Report, line)

		switch line.Status {
		case types.ItemStatusFulfilled:
			report.Summary.Fulfilled++
		case types.ItemStatusNeeded:
			report.Summary.Needed++
		case types.ItemStatusSurplus:
			report.Summary.Surplus++
		}
	}
	report.Summary.TotalItems = len(report.Report)

	return report
}
