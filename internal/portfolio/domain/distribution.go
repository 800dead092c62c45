package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DistributionTypeIncome  = "income"
	DistributionTypeCapital = "capital"
	DistributionTypeRecycle = "recycle"
)

// Distribution is a payout from a fund to its investors.
type Distribution struct {
	ID         string
	FundID     string
	DistNumber int
	DistDate   time.Time
	Amount     decimal.Decimal
	Type       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidDistributionType reports whether s is a known distribution type.
func ValidDistributionType(s string) bool {
	switch s {
	case DistributionTypeIncome, DistributionTypeCapital, DistributionTypeRecycle:
		return true
	}
	return false
}
