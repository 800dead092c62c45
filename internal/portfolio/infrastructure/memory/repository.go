package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	portfolio "octo-backend/internal/portfolio/domain"
)

// FundRepository is an in-memory fund store.
type FundRepository struct {
	mu    sync.RWMutex
	funds map[string]portfolio.Fund
}

// NewFundRepository constructs a repository.
func NewFundRepository() *FundRepository {
	return &FundRepository{funds: make(map[string]portfolio.Fund)}
}

// Create inserts a fund.
func (r *FundRepository) Create(ctx context.Context, fund *portfolio.Fund) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funds[fund.ID] = *fund
	return nil
}

// Get fetches a fund, nil when absent.
func (r *FundRepository) Get(ctx context.Context, id string) (*portfolio.Fund, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	fund, ok := r.funds[id]
	if !ok {
		return nil, nil
	}
	return &fund, nil
}

// List returns all funds ordered by name.
func (r *FundRepository) List(ctx context.Context) ([]portfolio.Fund, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]portfolio.Fund, 0, len(r.funds))
	for _, fund := range r.funds {
		result = append(result, fund)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// UpdateStatus moves a fund to a new status.
func (r *FundRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	fund, ok := r.funds[id]
	if !ok {
		return portfolio.ErrFundNotFound
	}
	fund.Status = status
	r.funds[id] = fund
	return nil
}

// Delete removes a fund.
func (r *FundRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funds[id]; !ok {
		return portfolio.ErrFundNotFound
	}
	delete(r.funds, id)
	return nil
}

// LedgerRepository is an in-memory ledger store.
type LedgerRepository struct {
	mu    sync.RWMutex
	calls map[string][]portfolio.CapitalCall
	dists map[string][]portfolio.Distribution
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		calls: make(map[string][]portfolio.CapitalCall),
		dists: make(map[string][]portfolio.Distribution),
	}
}

// CreateCall appends a call, enforcing the per-fund sequence uniqueness the
// database index would.
func (r *LedgerRepository) CreateCall(ctx context.Context, call *portfolio.CapitalCall) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.calls[call.FundID] {
		if existing.CallNumber == call.CallNumber {
			return portfolio.ErrDuplicateSequence
		}
	}
	r.calls[call.FundID] = append(r.calls[call.FundID], *call)
	return nil
}

// OverwriteCall replaces the call keyed by (fund, call_number).
func (r *LedgerRepository) OverwriteCall(ctx context.Context, call *portfolio.CapitalCall) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := r.calls[call.FundID]
	for i, existing := range calls {
		if existing.CallNumber == call.CallNumber {
			replacement := *call
			replacement.ID = existing.ID
			replacement.CreatedAt = existing.CreatedAt
			calls[i] = replacement
			return nil
		}
	}
	return portfolio.ErrCallNotFound
}

// ListCalls returns the fund's calls ordered by call number.
func (r *LedgerRepository) ListCalls(ctx context.Context, fundID string) ([]portfolio.CapitalCall, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	calls := make([]portfolio.CapitalCall, len(r.calls[fundID]))
	copy(calls, r.calls[fundID])
	sort.Slice(calls, func(i, j int) bool { return calls[i].CallNumber < calls[j].CallNumber })
	return calls, nil
}

// CreateDistribution appends a distribution.
func (r *LedgerRepository) CreateDistribution(ctx context.Context, dist *portfolio.Distribution) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.dists[dist.FundID] {
		if existing.DistNumber == dist.DistNumber {
			return portfolio.ErrDuplicateSequence
		}
	}
	r.dists[dist.FundID] = append(r.dists[dist.FundID], *dist)
	return nil
}

// OverwriteDistribution replaces the distribution keyed by (fund, dist_number).
func (r *LedgerRepository) OverwriteDistribution(ctx context.Context, dist *portfolio.Distribution) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	dists := r.dists[dist.FundID]
	for i, existing := range dists {
		if existing.DistNumber == dist.DistNumber {
			replacement := *dist
			replacement.ID = existing.ID
			replacement.CreatedAt = existing.CreatedAt
			dists[i] = replacement
			return nil
		}
	}
	return portfolio.ErrDistributionNotFound
}

// ListDistributions returns the fund's distributions ordered by number.
func (r *LedgerRepository) ListDistributions(ctx context.Context, fundID string) ([]portfolio.Distribution, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	dists := make([]portfolio.Distribution, len(r.dists[fundID]))
	copy(dists, r.dists[fundID])
	sort.Slice(dists, func(i, j int) bool { return dists[i].DistNumber < dists[j].DistNumber })
	return dists, nil
}

// ReportRepository is an in-memory quarterly report store.
type ReportRepository struct {
	mu      sync.RWMutex
	reports map[string][]portfolio.QuarterlyReport
}

// NewReportRepository constructs a repository.
func NewReportRepository() *ReportRepository {
	return &ReportRepository{reports: make(map[string][]portfolio.QuarterlyReport)}
}

// Create inserts a report, enforcing the (fund, year, quarter) key.
func (r *ReportRepository) Create(ctx context.Context, report *portfolio.QuarterlyReport) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reports[report.FundID] {
		if existing.Year == report.Year && existing.Quarter == report.Quarter {
			return portfolio.ErrDuplicateReport
		}
	}
	r.reports[report.FundID] = append(r.reports[report.FundID], *report)
	return nil
}

// ListByFund returns the fund's reports ordered by (year, quarter).
func (r *ReportRepository) ListByFund(ctx context.Context, fundID string) ([]portfolio.QuarterlyReport, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	reports := make([]portfolio.QuarterlyReport, len(r.reports[fundID]))
	copy(reports, r.reports[fundID])
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Year != reports[j].Year {
			return reports[i].Year < reports[j].Year
		}
		return reports[i].Quarter < reports[j].Quarter
	})
	return reports, nil
}

// FindLatestNotAfter returns the highest (year, quarter) report whose quarter
// end is at or before asOf.
func (r *ReportRepository) FindLatestNotAfter(ctx context.Context, fundID string, asOf time.Time) (*portfolio.QuarterlyReport, error) {
	reports, err := r.ListByFund(ctx, fundID)
	if err != nil {
		return nil, err
	}
	var latest *portfolio.QuarterlyReport
	for i := range reports {
		if reports[i].QuarterEnd().After(asOf) {
			continue
		}
		latest = &reports[i]
	}
	if latest == nil {
		return nil, nil
	}
	report := *latest
	return &report, nil
}
