package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"octo-backend/internal/observability/metrics"
	portfolio "octo-backend/internal/portfolio/domain"
)

// Warning codes attached to an otherwise successful summary.
const (
	WarningCalledDivergence      = "called_divergence"
	WarningDistributedDivergence = "distributed_divergence"
	WarningCallComponents        = "call_components"
)

// Warning is a non-fatal consistency finding. Warnings report divergence
// between the ledger and externally asserted figures; nothing is ever
// rebalanced to make them go away.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Multiples holds the valuation figures taken from a quarterly report.
type Multiples struct {
	Year    int             `json:"year"`
	Quarter int             `json:"quarter"`
	NAV     decimal.Decimal `json:"nav"`
	TVPI    float64         `json:"tvpi"`
	DPI     float64         `json:"dpi"`
	RVPI    float64         `json:"rvpi"`
	IRR     float64         `json:"irr"`
}

// Summary is the derived performance view of a fund as of a date. The ledger
// is ground truth for cash movements; the latest quarterly report is
// authoritative for valuation. Multiples is nil when no report exists at or
// before AsOf.
type Summary struct {
	FundID            string          `json:"fund_id"`
	AsOf              time.Time       `json:"as_of"`
	CalledToDate      decimal.Decimal `json:"called_to_date"`
	DistributedToDate decimal.Decimal `json:"distributed_to_date"`
	Multiples         *Multiples      `json:"multiples,omitempty"`
	Warnings          []Warning       `json:"warnings,omitempty"`
}

// SummaryService derives fund performance figures from the ledger and
// reconciles them against reported quarterly snapshots.
type SummaryService struct {
	funds     portfolio.FundRepository
	ledger    portfolio.LedgerRepository
	reports   portfolio.ReportRepository
	tolerance decimal.Decimal
	clock     Clock
}

// NewSummaryService constructs a summary service. Tolerance is the absolute
// divergence, in fund currency units, above which a warning is raised.
func NewSummaryService(funds portfolio.FundRepository, ledger portfolio.LedgerRepository, reports portfolio.ReportRepository, tolerance decimal.Decimal, clock Clock) (*SummaryService, error) {
	if funds == nil {
		return nil, errors.New("summary service: nil fund repo")
	}
	if ledger == nil {
		return nil, errors.New("summary service: nil ledger repo")
	}
	if reports == nil {
		return nil, errors.New("summary service: nil report repo")
	}
	if tolerance.IsNegative() {
		return nil, errors.New("summary service: negative tolerance")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &SummaryService{funds: funds, ledger: ledger, reports: reports, tolerance: tolerance, clock: clock}, nil
}

// ComputeSummary derives called/distributed totals from the ledger as of the
// given date and attaches valuation multiples from the latest eligible
// quarterly report. A missing report is not an error: totals are still
// returned with Multiples unset.
func (s *SummaryService) ComputeSummary(ctx context.Context, fundID string, asOf time.Time) (*Summary, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	warningCount := 0
	defer func() {
		metrics.ObserveSummary(result, warningCount, time.Since(start))
	}()

	fund, err := s.funds.Get(ctx, fundID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if fund == nil {
		result = metrics.ResultError
		return nil, portfolio.ErrFundNotFound
	}
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	calls, err := s.ledger.ListCalls(ctx, fundID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	dists, err := s.ledger.ListDistributions(ctx, fundID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	summary := &Summary{
		FundID:            fundID,
		AsOf:              asOf,
		CalledToDate:      decimal.Zero,
		DistributedToDate: decimal.Zero,
	}

	for _, call := range calls {
		if call.CallDate.After(asOf) {
			continue
		}
		summary.CalledToDate = summary.CalledToDate.Add(call.Amount)
		if gap := call.ComponentGap(); gap.Abs().GreaterThan(s.tolerance) {
			summary.Warnings = append(summary.Warnings, Warning{
				Code: WarningCallComponents,
				Message: fmt.Sprintf("call #%d: components sum to %s, amount is %s (gap %s, recorded gp_contribution %s)",
					call.CallNumber, call.ComponentSum(), call.Amount, gap, call.GPContribution),
			})
		}
	}
	for _, dist := range dists {
		if dist.DistDate.After(asOf) {
			continue
		}
		summary.DistributedToDate = summary.DistributedToDate.Add(dist.Amount)
	}

	report, err := s.reports.FindLatestNotAfter(ctx, fundID, asOf)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if report != nil {
		summary.Multiples = &Multiples{
			Year:    report.Year,
			Quarter: report.Quarter,
			NAV:     report.NAV,
			TVPI:    report.TVPI,
			DPI:     report.DPI,
			RVPI:    report.RVPI,
			IRR:     report.IRR,
		}
		summary.Warnings = append(summary.Warnings, s.reconcile(report, calls, dists)...)
	}

	warningCount = len(summary.Warnings)
	return summary, nil
}

// reconcile compares the report's cumulative totals against ledger sums taken
// at the report's quarter end. The ledger stays authoritative for cash, the
// report for valuation; a divergence beyond tolerance is reported, never
// corrected.
func (s *SummaryService) reconcile(report *portfolio.QuarterlyReport, calls []portfolio.CapitalCall, dists []portfolio.Distribution) []Warning {
	cutoff := report.QuarterEnd()

	ledgerCalled := decimal.Zero
	for _, call := range calls {
		if !call.CallDate.After(cutoff) {
			ledgerCalled = ledgerCalled.Add(call.Amount)
		}
	}
	ledgerDistributed := decimal.Zero
	for _, dist := range dists {
		if !dist.DistDate.After(cutoff) {
			ledgerDistributed = ledgerDistributed.Add(dist.Amount)
		}
	}

	var warnings []Warning
	if diff := report.CalledToDate.Sub(ledgerCalled); diff.Abs().GreaterThan(s.tolerance) {
		warnings = append(warnings, Warning{
			Code: WarningCalledDivergence,
			Message: fmt.Sprintf("report %dQ%d: reported called_to_date %s diverges from ledger %s by %s",
				report.Year, report.Quarter, report.CalledToDate, ledgerCalled, diff),
		})
	}
	if diff := report.DistributedToDate.Sub(ledgerDistributed); diff.Abs().GreaterThan(s.tolerance) {
		warnings = append(warnings, Warning{
			Code: WarningDistributedDivergence,
			Message: fmt.Sprintf("report %dQ%d: reported distributed_to_date %s diverges from ledger %s by %s",
				report.Year, report.Quarter, report.DistributedToDate, ledgerDistributed, diff),
		})
	}
	return warnings
}
