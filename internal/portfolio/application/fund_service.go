package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	portfolio "octo-backend/internal/portfolio/domain"
)

// FundInput carries the fields of a fund creation.
type FundInput struct {
	Name        string
	Manager     string
	VintageYear int
	Strategy    string
	Currency    string
	Commitment  decimal.Decimal
}

// FundDetail is a fund together with its ledger-derived position.
type FundDetail struct {
	Fund         portfolio.Fund  `json:"fund"`
	CalledToDate decimal.Decimal `json:"called_to_date"`
	Uncalled     decimal.Decimal `json:"uncalled"`
	CalledPct    float64         `json:"called_pct"`
}

// FundService owns fund lifecycle and read views.
type FundService struct {
	funds  portfolio.FundRepository
	ledger portfolio.LedgerRepository
	clock  Clock
}

// NewFundService constructs a fund service.
func NewFundService(funds portfolio.FundRepository, ledger portfolio.LedgerRepository, clock Clock) (*FundService, error) {
	if funds == nil {
		return nil, errors.New("fund service: nil fund repo")
	}
	if ledger == nil {
		return nil, errors.New("fund service: nil ledger repo")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &FundService{funds: funds, ledger: ledger, clock: clock}, nil
}

// Create registers a new fund in active status.
func (s *FundService) Create(ctx context.Context, in FundInput) (*portfolio.Fund, error) {
	if in.Name == "" {
		return nil, errors.New("fund service: name required")
	}
	if in.Commitment.IsNegative() {
		return nil, portfolio.ErrNegativeAmount
	}
	now := s.clock.Now()
	fund := &portfolio.Fund{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Manager:     in.Manager,
		VintageYear: in.VintageYear,
		Strategy:    in.Strategy,
		Currency:    in.Currency,
		Commitment:  in.Commitment,
		Status:      portfolio.FundStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.funds.Create(ctx, fund); err != nil {
		return nil, err
	}
	return fund, nil
}

// List returns all funds.
func (s *FundService) List(ctx context.Context) ([]portfolio.Fund, error) {
	return s.funds.List(ctx)
}

// Detail returns the fund with its called/uncalled position as of now.
func (s *FundService) Detail(ctx context.Context, id string) (*FundDetail, error) {
	fund, err := s.funds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, portfolio.ErrFundNotFound
	}
	calls, err := s.ledger.ListCalls(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	called := decimal.Zero
	for _, call := range calls {
		if !call.CallDate.After(now) {
			called = called.Add(call.Amount)
		}
	}
	return &FundDetail{
		Fund:         *fund,
		CalledToDate: called,
		Uncalled:     fund.Uncalled(called),
		CalledPct:    fund.CalledPct(called),
	}, nil
}

// UpdateStatus moves the fund to a new lifecycle status.
func (s *FundService) UpdateStatus(ctx context.Context, id, status string) error {
	if !portfolio.ValidFundStatus(status) {
		return portfolio.ErrInvalidFundStatus
	}
	fund, err := s.funds.Get(ctx, id)
	if err != nil {
		return err
	}
	if fund == nil {
		return portfolio.ErrFundNotFound
	}
	return s.funds.UpdateStatus(ctx, id, status)
}

// Delete removes the fund and cascades to its calls, distributions and
// reports. This is the one explicitly destructive operation on a fund.
func (s *FundService) Delete(ctx context.Context, id string) error {
	fund, err := s.funds.Get(ctx, id)
	if err != nil {
		return err
	}
	if fund == nil {
		return portfolio.ErrFundNotFound
	}
	return s.funds.Delete(ctx, id)
}

// UpcomingPayment is a future capital-call payment date.
type UpcomingPayment struct {
	FundID      string          `json:"fund_id"`
	FundName    string          `json:"fund_name"`
	CallNumber  int             `json:"call_number"`
	PaymentDate time.Time       `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
}
