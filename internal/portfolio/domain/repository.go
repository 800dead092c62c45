package portfolio

import (
	"context"
	"time"
)

// FundRepository persists funds.
type FundRepository interface {
	Create(ctx context.Context, fund *Fund) error
	Get(ctx context.Context, id string) (*Fund, error)
	List(ctx context.Context) ([]Fund, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// Delete removes the fund and, by cascade, its ledger entries and reports.
	Delete(ctx context.Context, id string) error
}

// LedgerRepository persists capital calls and distributions.
type LedgerRepository interface {
	CreateCall(ctx context.Context, call *CapitalCall) error
	// OverwriteCall replaces every field of the call identified by
	// (fund, call number). Corrections are full-record writes, never merges.
	OverwriteCall(ctx context.Context, call *CapitalCall) error
	ListCalls(ctx context.Context, fundID string) ([]CapitalCall, error)
	CreateDistribution(ctx context.Context, dist *Distribution) error
	OverwriteDistribution(ctx context.Context, dist *Distribution) error
	ListDistributions(ctx context.Context, fundID string) ([]Distribution, error)
}

// ReportRepository persists quarterly reports.
type ReportRepository interface {
	Create(ctx context.Context, report *QuarterlyReport) error
	ListByFund(ctx context.Context, fundID string) ([]QuarterlyReport, error)
	// FindLatestNotAfter returns the report with the highest (year, quarter)
	// whose quarter end is at or before asOf, or nil when none exists.
	FindLatestNotAfter(ctx context.Context, fundID string, asOf time.Time) (*QuarterlyReport, error)
}
