package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuarterlyReport carries externally asserted valuation figures for a fund
// quarter. NAV, multiples and IRR are authoritative as reported by the fund;
// the cumulative called/distributed totals are cross-checked against the
// ledger, never overwritten.
type QuarterlyReport struct {
	ID                string
	FundID            string
	Year              int
	Quarter           int
	NAV               decimal.Decimal
	TVPI              float64
	DPI               float64
	RVPI              float64
	IRR               float64
	CalledToDate      decimal.Decimal
	DistributedToDate decimal.Decimal
	CreatedAt         time.Time
}

// QuarterEnd returns the last day of the report's quarter (UTC).
func (r QuarterlyReport) QuarterEnd() time.Time {
	return QuarterEnd(r.Year, r.Quarter)
}

// QuarterEnd returns the last day of quarter q in year (UTC midnight).
func QuarterEnd(year, q int) time.Time {
	firstOfNext := time.Date(year, time.Month(3*q)+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}

// ValidQuarter reports whether q is in 1..4.
func ValidQuarter(q int) bool { return q >= 1 && q <= 4 }
