package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	portfolio "octo-backend/internal/portfolio/domain"
	"octo-backend/internal/portfolio/infrastructure/memory"
)

func newSummaryFixture(t *testing.T, tolerance string) (*SummaryService, *LedgerService, *ReportService, fixedClock) {
	t.Helper()
	clock := fixedClock{now: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)}
	funds := memory.NewFundRepository()
	ledger := memory.NewLedgerRepository()
	reports := memory.NewReportRepository()
	seedFund(t, funds, "fund-1")

	summaries, err := NewSummaryService(funds, ledger, reports, decimal.RequireFromString(tolerance), clock)
	if err != nil {
		t.Fatalf("summary service: %v", err)
	}
	ledgerService, err := NewLedgerService(funds, ledger, clock)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	reportService, err := NewReportService(funds, reports, clock)
	if err != nil {
		t.Fatalf("report service: %v", err)
	}
	return summaries, ledgerService, reportService, clock
}

func hasWarning(warnings []Warning, code string) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestComputeSummary_AsOfCutoff(t *testing.T) {
	summaries, ledger, _, _ := newSummaryFixture(t, "1")
	ctx := context.Background()

	callDate := time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC)
	if _, err := ledger.RecordCall(ctx, "fund-1", CallInput{
		CallNumber:   1,
		CallDate:     callDate,
		Amount:       amount("292670"),
		Investments:  decimal.RequireFromString("275139"),
		FundExpenses: decimal.RequireFromString("5503"),
		MgmtFee:      decimal.RequireFromString("12028"),
	}); err != nil {
		t.Fatalf("record call: %v", err)
	}

	after, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary after call: %v", err)
	}
	if !after.CalledToDate.Equal(decimal.RequireFromString("292670")) {
		t.Fatalf("called to date %s, want 292670", after.CalledToDate)
	}

	before, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary before call: %v", err)
	}
	if !before.CalledToDate.IsZero() {
		t.Fatalf("call before its date must not count: %s", before.CalledToDate)
	}
}

func TestComputeSummary_ComponentGapWarnsNotFails(t *testing.T) {
	summaries, ledger, _, _ := newSummaryFixture(t, "1")
	ctx := context.Background()

	// Components sum to 287118 against an amount of 292670. The 5552 gap is
	// surfaced as a warning and the stated amount stays authoritative.
	if _, err := ledger.RecordCall(ctx, "fund-1", CallInput{
		CallNumber:     1,
		CallDate:       time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC),
		Amount:         amount("292670"),
		Investments:    decimal.RequireFromString("275139"),
		FundExpenses:   decimal.RequireFromString("5503"),
		MgmtFee:        decimal.RequireFromString("6476"),
		GPContribution: decimal.RequireFromString("5552"),
	}); err != nil {
		t.Fatalf("record call: %v", err)
	}

	summary, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.CalledToDate.Equal(decimal.RequireFromString("292670")) {
		t.Fatalf("stated amount must stay authoritative: %s", summary.CalledToDate)
	}
	if !hasWarning(summary.Warnings, WarningCallComponents) {
		t.Fatalf("expected component warning, got %+v", summary.Warnings)
	}
	for _, w := range summary.Warnings {
		if w.Code == WarningCallComponents && !strings.Contains(w.Message, "5552") {
			t.Fatalf("warning should carry the gap: %s", w.Message)
		}
	}
}

func TestComputeSummary_ExactComponentsNoWarning(t *testing.T) {
	summaries, ledger, _, _ := newSummaryFixture(t, "1")
	ctx := context.Background()

	if _, err := ledger.RecordCall(ctx, "fund-1", CallInput{
		CallNumber:   1,
		CallDate:     time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC),
		Amount:       amount("100000"),
		Investments:  decimal.RequireFromString("90000"),
		FundExpenses: decimal.RequireFromString("4000"),
		MgmtFee:      decimal.RequireFromString("6000"),
	}); err != nil {
		t.Fatalf("record call: %v", err)
	}

	summary, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", summary.Warnings)
	}
}

func TestComputeSummary_NoReportMeansNilMultiples(t *testing.T) {
	summaries, ledger, _, _ := newSummaryFixture(t, "1")
	ctx := context.Background()

	if _, err := ledger.RecordCall(ctx, "fund-1", CallInput{
		CallNumber: 1,
		CallDate:   time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
		Amount:     amount("100000"),
	}); err != nil {
		t.Fatalf("record call: %v", err)
	}
	if _, err := ledger.RecordDistribution(ctx, "fund-1", DistributionInput{
		DistNumber: 1,
		DistDate:   time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		Amount:     amount("20000"),
		Type:       portfolio.DistributionTypeCapital,
	}); err != nil {
		t.Fatalf("record distribution: %v", err)
	}

	summary, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary must not fail without a report: %v", err)
	}
	if summary.Multiples != nil {
		t.Fatalf("multiples must be nil without a report")
	}
	if !summary.CalledToDate.Equal(decimal.RequireFromString("100000")) {
		t.Fatalf("called %s", summary.CalledToDate)
	}
	if !summary.DistributedToDate.Equal(decimal.RequireFromString("20000")) {
		t.Fatalf("distributed %s", summary.DistributedToDate)
	}
}

func TestComputeSummary_ReportEligibilityByQuarterEnd(t *testing.T) {
	summaries, _, reports, _ := newSummaryFixture(t, "1")
	ctx := context.Background()

	if _, err := reports.Add(ctx, "fund-1", ReportInput{Year: 2025, Quarter: 4, NAV: decimal.RequireFromString("900000"), TVPI: 1.1}); err != nil {
		t.Fatalf("add 2025Q4: %v", err)
	}
	if _, err := reports.Add(ctx, "fund-1", ReportInput{Year: 2026, Quarter: 1, NAV: decimal.RequireFromString("1000000"), TVPI: 1.2}); err != nil {
		t.Fatalf("add 2026Q1: %v", err)
	}

	// 2026Q1 ends 2026-03-31; an as_of in mid-March still belongs to 2025Q4.
	march, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary mid-quarter: %v", err)
	}
	if march.Multiples == nil || march.Multiples.Year != 2025 || march.Multiples.Quarter != 4 {
		t.Fatalf("expected 2025Q4, got %+v", march.Multiples)
	}

	april, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary after quarter end: %v", err)
	}
	if april.Multiples == nil || april.Multiples.Year != 2026 || april.Multiples.Quarter != 1 {
		t.Fatalf("expected 2026Q1, got %+v", april.Multiples)
	}
	if april.Multiples.TVPI != 1.2 {
		t.Fatalf("tvpi %v", april.Multiples.TVPI)
	}

	early, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary before any quarter end: %v", err)
	}
	if early.Multiples != nil {
		t.Fatalf("no report is eligible before its quarter end")
	}
}

func TestComputeSummary_ReportDivergenceWarning(t *testing.T) {
	summaries, ledger, reports, _ := newSummaryFixture(t, "1")
	ctx := context.Background()

	if _, err := ledger.RecordCall(ctx, "fund-1", CallInput{
		CallNumber: 1,
		CallDate:   time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC),
		Amount:     amount("292670"),
	}); err != nil {
		t.Fatalf("record call: %v", err)
	}
	if _, err := reports.Add(ctx, "fund-1", ReportInput{
		Year:              2026,
		Quarter:           1,
		NAV:               decimal.RequireFromString("300000"),
		CalledToDate:      decimal.RequireFromString("300000"),
		DistributedToDate: decimal.Zero,
	}); err != nil {
		t.Fatalf("add report: %v", err)
	}

	summary, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !summary.CalledToDate.Equal(decimal.RequireFromString("292670")) {
		t.Fatalf("ledger stays authoritative for cash: %s", summary.CalledToDate)
	}
	if !hasWarning(summary.Warnings, WarningCalledDivergence) {
		t.Fatalf("expected called divergence warning, got %+v", summary.Warnings)
	}
}

func TestComputeSummary_DivergenceWithinTolerance(t *testing.T) {
	summaries, ledger, reports, _ := newSummaryFixture(t, "100")
	ctx := context.Background()

	if _, err := ledger.RecordCall(ctx, "fund-1", CallInput{
		CallNumber: 1,
		CallDate:   time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC),
		Amount:     amount("292670"),
	}); err != nil {
		t.Fatalf("record call: %v", err)
	}
	if _, err := reports.Add(ctx, "fund-1", ReportInput{
		Year:         2026,
		Quarter:      1,
		NAV:          decimal.RequireFromString("300000"),
		CalledToDate: decimal.RequireFromString("292700"),
	}); err != nil {
		t.Fatalf("add report: %v", err)
	}

	summary, err := summaries.ComputeSummary(ctx, "fund-1", time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if hasWarning(summary.Warnings, WarningCalledDivergence) {
		t.Fatalf("30 unit gap within 100 tolerance must not warn: %+v", summary.Warnings)
	}
}

func TestComputeSummary_UnknownFund(t *testing.T) {
	summaries, _, _, _ := newSummaryFixture(t, "1")
	if _, err := summaries.ComputeSummary(context.Background(), "missing", time.Time{}); !errors.Is(err, portfolio.ErrFundNotFound) {
		t.Fatalf("unknown fund: %v", err)
	}
}
