package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapitalCall is a single drawdown request recorded against a fund.
// Call numbers are assigned by the caller and unique per fund; records are
// immutable after creation except for corrective full-record overwrites.
type CapitalCall struct {
	ID             string
	FundID         string
	CallNumber     int
	CallDate       time.Time
	PaymentDate    time.Time
	Amount         decimal.Decimal
	Investments    decimal.Decimal
	FundExpenses   decimal.Decimal
	MgmtFee        decimal.Decimal
	GPContribution decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ComponentSum returns investments + fund expenses + management fee.
// GP contribution is recorded but deliberately excluded: the expectation
// checked downstream is amount == investments + expenses + mgmt fee, and any
// gap is surfaced as-is rather than netted against other components.
func (c CapitalCall) ComponentSum() decimal.Decimal {
	return c.Investments.Add(c.FundExpenses).Add(c.MgmtFee)
}

// ComponentGap returns amount minus the component sum. Zero means the
// decomposition reconciles exactly.
func (c CapitalCall) ComponentGap() decimal.Decimal {
	return c.Amount.Sub(c.ComponentSum())
}
