package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	portfolio "octo-backend/internal/portfolio/domain"
)

// ReportInput carries an externally reported quarterly snapshot.
type ReportInput struct {
	Year              int
	Quarter           int
	NAV               decimal.Decimal
	TVPI              float64
	DPI               float64
	RVPI              float64
	IRR               float64
	CalledToDate      decimal.Decimal
	DistributedToDate decimal.Decimal
}

// ReportService records quarterly report snapshots. Reported values are
// stored exactly as asserted; consistency against the ledger is checked at
// summary time, not here.
type ReportService struct {
	funds   portfolio.FundRepository
	reports portfolio.ReportRepository
	clock   Clock
}

// NewReportService constructs a report service.
func NewReportService(funds portfolio.FundRepository, reports portfolio.ReportRepository, clock Clock) (*ReportService, error) {
	if funds == nil {
		return nil, errors.New("report service: nil fund repo")
	}
	if reports == nil {
		return nil, errors.New("report service: nil report repo")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReportService{funds: funds, reports: reports, clock: clock}, nil
}

// Add records a quarterly report for the fund. The (fund, year, quarter) key
// is unique; a second report for the same quarter is rejected.
func (s *ReportService) Add(ctx context.Context, fundID string, in ReportInput) (*portfolio.QuarterlyReport, error) {
	fund, err := s.funds.Get(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, portfolio.ErrFundNotFound
	}
	if !portfolio.ValidQuarter(in.Quarter) {
		return nil, portfolio.ErrInvalidQuarter
	}
	if in.NAV.IsNegative() {
		return nil, portfolio.ErrNegativeAmount
	}
	report := &portfolio.QuarterlyReport{
		ID:                uuid.NewString(),
		FundID:            fundID,
		Year:              in.Year,
		Quarter:           in.Quarter,
		NAV:               in.NAV,
		TVPI:              in.TVPI,
		DPI:               in.DPI,
		RVPI:              in.RVPI,
		IRR:               in.IRR,
		CalledToDate:      in.CalledToDate,
		DistributedToDate: in.DistributedToDate,
		CreatedAt:         s.clock.Now(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListByFund returns all reports for the fund ordered by (year, quarter).
func (s *ReportService) ListByFund(ctx context.Context, fundID string) ([]portfolio.QuarterlyReport, error) {
	fund, err := s.funds.Get(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, portfolio.ErrFundNotFound
	}
	return s.reports.ListByFund(ctx, fundID)
}
