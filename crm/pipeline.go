/*
pipeline.go - Pure aggregation over the deal collection

PURPOSE:
  Derives everything the pipeline board displays from (stages, deals):
  per-stage subsets, per-stage totals, and the global headline figures
  (total pipeline value, won value, active count, conversion rate).

DETERMINISM:
  Every function here is pure. Given the same stages and deals, the output
  is identical; there are no running counters that could drift from the
  collection. Totals use decimal arithmetic.

EDGE CASES:
  An empty deal collection yields zero totals and a conversion rate of 0,
  never NaN and never an error.

SEE ALSO:
  - drag.go: issues the stage transitions that these aggregates react to
*/
package crm

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STAGES
// =============================================================================

// Stage is a named column on the pipeline board. Stage membership is derived
// by matching deal.Stage against the stage name; stages have no storage of
// their own. Color is presentational metadata passed through to the frontend.
type Stage struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// StageList is the ordered set of configured stages. Order defines column
// order on the board; the last stage is the terminal "won" stage.
type StageList []Stage

// DefaultStages matches the board configuration of the CRM frontend.
func DefaultStages() StageList {
	return StageList{
		{Name: "Lead", Color: "bg-yellow-100 text-yellow-800"},
		{Name: "Qualified", Color: "bg-blue-100 text-blue-800"},
		{Name: "Proposal", Color: "bg-purple-100 text-purple-800"},
		{Name: "Won", Color: "bg-green-100 text-green-800"},
	}
}

// Contains reports whether name is a configured stage name.
func (s StageList) Contains(name string) bool {
	for _, st := range s {
		if st.Name == name {
			return true
		}
	}
	return false
}

// Won returns the terminal stage name (the last stage), or "" for an empty
// list.
func (s StageList) Won() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1].Name
}

// =============================================================================
// PER-STAGE DERIVATION
// =============================================================================

// DealsForStage filters deals belonging to the stage, preserving the relative
// order of the input collection.
func DealsForStage(deals []Deal, stage Stage) []Deal {
	var out []Deal
	for _, d := range deals {
		if d.Stage == stage.Name {
			out = append(out, d)
		}
	}
	return out
}

// StageTotal sums deal values over the stage. Zero for an empty stage.
func StageTotal(deals []Deal, stage Stage) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deals {
		if d.Stage == stage.Name {
			total = total.Add(d.Value)
		}
	}
	return total
}

// =============================================================================
// GLOBAL TOTALS
// =============================================================================

// PipelineTotals are the headline figures above the board.
type PipelineTotals struct {
	TotalValue     decimal.Decimal
	WonValue       decimal.Decimal
	ActiveCount    int
	ConversionRate int // won / total, rounded to the nearest integer percent
}

// GlobalTotals computes the headline figures from the full deal collection.
// wonStage designates the terminal stage (StageList.Won for the default
// configuration).
func GlobalTotals(deals []Deal, wonStage string) PipelineTotals {
	totals := PipelineTotals{TotalValue: decimal.Zero, WonValue: decimal.Zero}

	wonCount := 0
	for _, d := range deals {
		totals.TotalValue = totals.TotalValue.Add(d.Value)
		if d.Stage == wonStage {
			totals.WonValue = totals.WonValue.Add(d.Value)
			wonCount++
		} else {
			totals.ActiveCount++
		}
	}

	if len(deals) > 0 {
		totals.ConversionRate = int(math.Round(float64(wonCount) / float64(len(deals)) * 100))
	}
	return totals
}

// MergeDeal replaces the deal with the same id in a snapshot, returning the
// updated snapshot. Used by callers to reconcile a store result into their
// local view state after a commit. If the id is absent the snapshot is
// returned unchanged.
func MergeDeal(deals []Deal, updated Deal) []Deal {
	for i, d := range deals {
		if d.ID == updated.ID {
			out := append([]Deal(nil), deals...)
			out[i] = updated
			return out
		}
	}
	return deals
}
