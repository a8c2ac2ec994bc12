package pipeline

import (
	"strings"
	"time"
)

// FilterAll is the identity value for a filter dimension.
const FilterAll = "All"

// FilterSpec holds the board filter state. Each dimension is multi-select;
// an empty selection or one containing FilterAll matches everything.
// Dimensions combine with logical AND.
type FilterSpec struct {
	AccountTypes []string
	Services     []string
	Interests    []string

	// DaysOpenCeiling keeps opportunities open for at most this many days.
	// Zero means no ceiling.
	DaysOpenCeiling int

	// MaxClosingDate keeps opportunities expected to close on or before
	// this date. The zero time means no bound. Opportunities without an
	// expected close date always pass.
	MaxClosingDate time.Time
}

func (s FilterSpec) acceptsAccountType(o Opportunity) bool {
	return matchesDimension(s.AccountTypes, o.AccountType)
}

func (s FilterSpec) acceptsService(o Opportunity) bool {
	return matchesDimension(s.Services, o.Service)
}

func (s FilterSpec) acceptsInterest(o Opportunity) bool {
	return matchesDimension(s.Interests, string(o.Temperature))
}

func (s FilterSpec) acceptsDaysOpen(o Opportunity, now time.Time) bool {
	if s.DaysOpenCeiling <= 0 {
		return true
	}
	return o.DaysOpen(now) <= s.DaysOpenCeiling
}

func (s FilterSpec) acceptsClosingDate(o Opportunity) bool {
	if s.MaxClosingDate.IsZero() || o.ExpectedCloseDate == nil {
		return true
	}
	return !o.ExpectedCloseDate.After(s.MaxClosingDate)
}

// Matches reports whether the opportunity passes every dimension.
func (s FilterSpec) Matches(o Opportunity, now time.Time) bool {
	return s.acceptsAccountType(o) &&
		s.acceptsService(o) &&
		s.acceptsInterest(o) &&
		s.acceptsDaysOpen(o, now) &&
		s.acceptsClosingDate(o)
}

func matchesDimension(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, sel := range selected {
		if sel == FilterAll {
			return true
		}
		if strings.EqualFold(sel, value) {
			return true
		}
	}
	return false
}

// ApplyFilters derives a filtered copy of the list. The input is never
// mutated; applying the same spec twice yields identical output.
func ApplyFilters(spec FilterSpec, opportunities []Opportunity, now time.Time) []Opportunity {
	filtered := make([]Opportunity, 0, len(opportunities))
	for _, o := range opportunities {
		if spec.Matches(o, now) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// Column is one board column: a stage and the opportunities in it, in
// fetch order.
type Column struct {
	Stage         Stage
	Opportunities []Opportunity
}

// GroupByStage partitions the list into the fixed ordered stage set. Empty
// columns are kept so the board shape is stable.
func GroupByStage(opportunities []Opportunity) []Column {
	columns := make([]Column, 0, len(Stages()))
	for _, stage := range Stages() {
		col := Column{Stage: stage}
		for _, o := range opportunities {
			if o.PipelineStage == stage {
				col.Opportunities = append(col.Opportunities, o)
			}
		}
		columns = append(columns, col)
	}
	return columns
}
