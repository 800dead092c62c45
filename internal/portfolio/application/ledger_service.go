package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"octo-backend/internal/observability/metrics"
	portfolio "octo-backend/internal/portfolio/domain"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// CallInput carries the fields of a capital call write. Amount is a pointer
// so that a missing amount is distinguishable from an explicit zero.
type CallInput struct {
	CallNumber     int
	CallDate       time.Time
	PaymentDate    time.Time
	Amount         *decimal.Decimal
	Investments    decimal.Decimal
	FundExpenses   decimal.Decimal
	MgmtFee        decimal.Decimal
	GPContribution decimal.Decimal
}

// DistributionInput carries the fields of a distribution write.
type DistributionInput struct {
	DistNumber int
	DistDate   time.Time
	Amount     *decimal.Decimal
	Type       string
}

// LedgerService records capital calls and distributions. It validates fund
// existence and amount presence/sign only; component decompositions are
// stored verbatim and reconciled later by the summary service.
type LedgerService struct {
	funds  portfolio.FundRepository
	ledger portfolio.LedgerRepository
	clock  Clock
}

// NewLedgerService constructs a ledger service.
func NewLedgerService(funds portfolio.FundRepository, ledger portfolio.LedgerRepository, clock Clock) (*LedgerService, error) {
	if funds == nil {
		return nil, errors.New("ledger service: nil fund repo")
	}
	if ledger == nil {
		return nil, errors.New("ledger service: nil ledger repo")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &LedgerService{funds: funds, ledger: ledger, clock: clock}, nil
}

// RecordCall appends a capital call to the fund's ledger.
func (s *LedgerService) RecordCall(ctx context.Context, fundID string, in CallInput) (*portfolio.CapitalCall, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveLedgerWrite("call", result, time.Since(start))
	}()

	call, err := s.buildCall(ctx, fundID, in)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := s.ledger.CreateCall(ctx, call); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return call, nil
}

// CorrectCall overwrites every field of an existing call identified by its
// sequence number. Prior values are replaced wholesale.
func (s *LedgerService) CorrectCall(ctx context.Context, fundID string, in CallInput) (*portfolio.CapitalCall, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveLedgerWrite("call_correction", result, time.Since(start))
	}()

	call, err := s.buildCall(ctx, fundID, in)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := s.ledger.OverwriteCall(ctx, call); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return call, nil
}

func (s *LedgerService) buildCall(ctx context.Context, fundID string, in CallInput) (*portfolio.CapitalCall, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	if in.Amount == nil {
		return nil, portfolio.ErrAmountRequired
	}
	if in.Amount.IsNegative() {
		return nil, portfolio.ErrNegativeAmount
	}
	if in.CallNumber <= 0 {
		return nil, portfolio.ErrSequenceRequired
	}
	now := s.clock.Now()
	return &portfolio.CapitalCall{
		ID:             uuid.NewString(),
		FundID:         fundID,
		CallNumber:     in.CallNumber,
		CallDate:       in.CallDate,
		PaymentDate:    in.PaymentDate,
		Amount:         *in.Amount,
		Investments:    in.Investments,
		FundExpenses:   in.FundExpenses,
		MgmtFee:        in.MgmtFee,
		GPContribution: in.GPContribution,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// RecordDistribution appends a distribution to the fund's ledger.
func (s *LedgerService) RecordDistribution(ctx context.Context, fundID string, in DistributionInput) (*portfolio.Distribution, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveLedgerWrite("distribution", result, time.Since(start))
	}()

	dist, err := s.buildDistribution(ctx, fundID, in)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := s.ledger.CreateDistribution(ctx, dist); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return dist, nil
}

// CorrectDistribution overwrites every field of an existing distribution.
func (s *LedgerService) CorrectDistribution(ctx context.Context, fundID string, in DistributionInput) (*portfolio.Distribution, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveLedgerWrite("distribution_correction", result, time.Since(start))
	}()

	dist, err := s.buildDistribution(ctx, fundID, in)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := s.ledger.OverwriteDistribution(ctx, dist); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return dist, nil
}

func (s *LedgerService) buildDistribution(ctx context.Context, fundID string, in DistributionInput) (*portfolio.Distribution, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	if in.Amount == nil {
		return nil, portfolio.ErrAmountRequired
	}
	if in.Amount.IsNegative() {
		return nil, portfolio.ErrNegativeAmount
	}
	if in.DistNumber <= 0 {
		return nil, portfolio.ErrSequenceRequired
	}
	if !portfolio.ValidDistributionType(in.Type) {
		return nil, portfolio.ErrInvalidDistributionType
	}
	now := s.clock.Now()
	return &portfolio.Distribution{
		ID:         uuid.NewString(),
		FundID:     fundID,
		DistNumber: in.DistNumber,
		DistDate:   in.DistDate,
		Amount:     *in.Amount,
		Type:       in.Type,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ListCalls returns all calls for the fund ordered by call number.
func (s *LedgerService) ListCalls(ctx context.Context, fundID string) ([]portfolio.CapitalCall, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	return s.ledger.ListCalls(ctx, fundID)
}

// ListDistributions returns all distributions for the fund ordered by number.
func (s *LedgerService) ListDistributions(ctx context.Context, fundID string) ([]portfolio.Distribution, error) {
	if err := s.requireFund(ctx, fundID); err != nil {
		return nil, err
	}
	return s.ledger.ListDistributions(ctx, fundID)
}

func (s *LedgerService) requireFund(ctx context.Context, fundID string) error {
	fund, err := s.funds.Get(ctx, fundID)
	if err != nil {
		return err
	}
	if fund == nil {
		return portfolio.ErrFundNotFound
	}
	return nil
}
