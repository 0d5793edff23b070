// Package forecast aggregates monthly financial entries into the yearly
// dashboard numbers the UI renders: per-month totals, per-product-line
// totals and forecast attainment.
package forecast

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealgrid/dealgrid/internal/backend"
	"github.com/dealgrid/dealgrid/internal/model"
)

// MonthTotals is the forecast/actual pair every aggregate reduces to.
type MonthTotals struct {
	Forecast float64 `json:"forecast"`
	Actual   float64 `json:"actual"`
}

// YearSummary is one financial year folded across all clients and
// product lines. Months is indexed by month-1.
type YearSummary struct {
	Year          int                    `json:"year"`
	Months        [12]MonthTotals        `json:"months"`
	Forecast      float64                `json:"forecast"`
	Actual        float64                `json:"actual"`
	Variance      float64                `json:"variance"`
	Attainment    float64                `json:"attainment"` // percent, 0 when nothing was forecast
	ByProductLine map[string]MonthTotals `json:"byProductLine,omitempty"`
	// Degraded marks a summary substituted after a fetch failure in
	// lenient mode.
	Degraded bool `json:"degraded,omitempty"`
}

// Summarize folds entries into a year summary. Entries for other years
// or with months outside 1..12 are ignored.
func Summarize(year int, entries []model.FinancialEntry) YearSummary {
	s := YearSummary{Year: year}
	for _, e := range entries {
		if e.Year != year || e.Month < 1 || e.Month > 12 {
			continue
		}
		m := &s.Months[e.Month-1]
		m.Forecast += e.Forecast
		m.Actual += e.Actual
		s.Forecast += e.Forecast
		s.Actual += e.Actual
		if e.ProductLineID != "" {
			if s.ByProductLine == nil {
				s.ByProductLine = make(map[string]MonthTotals)
			}
			pl := s.ByProductLine[e.ProductLineID]
			pl.Forecast += e.Forecast
			pl.Actual += e.Actual
			s.ByProductLine[e.ProductLineID] = pl
		}
	}
	s.Variance = s.Actual - s.Forecast
	if s.Forecast != 0 {
		s.Attainment = s.Actual / s.Forecast * 100
	}
	return s
}

// Rollup sums year summaries into one multi-year total.
func Rollup(sums []YearSummary) MonthTotals {
	var t MonthTotals
	for _, s := range sums {
		t.Forecast += s.Forecast
		t.Actual += s.Actual
	}
	return t
}

// Collector fetches entries and summarizes them. In lenient mode a
// per-year fetch failure is replaced by a zero-valued summary marked
// Degraded and logged; the default strict mode fails the call.
type Collector struct {
	fin     backend.Financials
	lenient bool
	log     *zap.Logger
}

// NewCollector builds a collector over a financials service.
func NewCollector(fin backend.Financials, lenient bool, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{fin: fin, lenient: lenient, log: log}
}

// Year fetches and summarizes one financial year.
func (c *Collector) Year(ctx context.Context, year int) (YearSummary, error) {
	entries, err := c.fin.ByYear(ctx, year)
	if err != nil {
		if !c.lenient {
			return YearSummary{}, err
		}
		c.log.Warn("substituting empty summary after fetch failure",
			zap.Int("year", year), zap.Error(err))
		s := Summarize(year, nil)
		s.Degraded = true
		return s, nil
	}
	return Summarize(year, entries), nil
}

// Range collects summaries for every year in [from, to].
func (c *Collector) Range(ctx context.Context, from, to int) ([]YearSummary, error) {
	if from > to {
		return nil, fmt.Errorf("invalid year range %d..%d", from, to)
	}
	out := make([]YearSummary, 0, to-from+1)
	for y := from; y <= to; y++ {
		s, err := c.Year(ctx, y)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// All collects a summary for every year the backend knows about. Year
// discovery failing is terminal even in lenient mode.
func (c *Collector) All(ctx context.Context) ([]YearSummary, error) {
	years, err := c.fin.Years(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]YearSummary, 0, len(years))
	for _, y := range years {
		s, err := c.Year(ctx, y)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
