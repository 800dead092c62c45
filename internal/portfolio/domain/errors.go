package portfolio

import "errors"

var (
	// ErrFundNotFound is returned when the referenced fund does not exist.
	ErrFundNotFound = errors.New("portfolio: fund not found")
	// ErrCallNotFound is returned when a capital call lookup misses.
	ErrCallNotFound = errors.New("portfolio: capital call not found")
	// ErrDistributionNotFound is returned when a distribution lookup misses.
	ErrDistributionNotFound = errors.New("portfolio: distribution not found")
	// ErrAmountRequired is returned when a ledger write omits the amount.
	ErrAmountRequired = errors.New("portfolio: amount required")
	// ErrNegativeAmount is returned when a ledger amount is negative.
	ErrNegativeAmount = errors.New("portfolio: negative amount")
	// ErrSequenceRequired is returned when a ledger write omits its sequence number.
	ErrSequenceRequired = errors.New("portfolio: sequence number required")
	// ErrDuplicateSequence is returned when a sequence number is already taken for the fund.
	ErrDuplicateSequence = errors.New("portfolio: sequence number already recorded")
	// ErrInvalidFundStatus is returned for an unknown lifecycle status.
	ErrInvalidFundStatus = errors.New("portfolio: invalid fund status")
	// ErrInvalidDistributionType is returned for an unknown distribution type.
	ErrInvalidDistributionType = errors.New("portfolio: invalid distribution type")
	// ErrInvalidQuarter is returned when a report quarter is outside 1..4.
	ErrInvalidQuarter = errors.New("portfolio: quarter must be 1..4")
	// ErrDuplicateReport is returned when a (fund, year, quarter) report already exists.
	ErrDuplicateReport = errors.New("portfolio: report already exists for quarter")
)
