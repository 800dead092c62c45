package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FundStatusActive     = "active"
	FundStatusRealized   = "realized"
	FundStatusWrittenOff = "written_off"
)

// Fund represents a committed private-capital fund position.
type Fund struct {
	ID          string
	Name        string
	Manager     string
	VintageYear int
	Strategy    string
	Currency    string
	Commitment  decimal.Decimal
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidFundStatus reports whether s is a known lifecycle status.
func ValidFundStatus(s string) bool {
	switch s {
	case FundStatusActive, FundStatusRealized, FundStatusWrittenOff:
		return true
	}
	return false
}

// Uncalled returns the commitment remaining after called capital.
func (f Fund) Uncalled(called decimal.Decimal) decimal.Decimal {
	return f.Commitment.Sub(called)
}

// CalledPct returns called capital as a fraction of commitment, 0 when
// commitment is zero.
func (f Fund) CalledPct(called decimal.Decimal) float64 {
	if f.Commitment.IsZero() {
		return 0
	}
	pct, _ := called.Div(f.Commitment).Float64()
	return pct
}
