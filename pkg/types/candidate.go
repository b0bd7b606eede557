package types

import "github.com/shopspring/decimal"

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Candidate is one requirement line recovered from an uploaded document,
// pending admin review before it is published.
type Candidate struct {
	Name              string          `json:"name"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	SuggestedCategory string          `json:"suggested_category"`
	Confidence        Confidence      `json:"confidence"`
}
