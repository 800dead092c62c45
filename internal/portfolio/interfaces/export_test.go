package interfaces

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"octo-backend/internal/portfolio/application"
	portfolio "octo-backend/internal/portfolio/domain"
)

func exportFixture() (*application.FundDetail, []portfolio.CapitalCall, []portfolio.Distribution, *application.Summary) {
	detail := &application.FundDetail{
		Fund: portfolio.Fund{
			ID:          "fund-1",
			Name:        "Octo Capital Partners I",
			Manager:     "ALT Group",
			VintageYear: 2024,
			Currency:    "EUR",
			Commitment:  decimal.RequireFromString("5000000"),
			Status:      portfolio.FundStatusActive,
		},
		CalledToDate: decimal.RequireFromString("292670"),
		Uncalled:     decimal.RequireFromString("4707330"),
		CalledPct:    0.059,
	}
	calls := []portfolio.CapitalCall{{
		FundID:      "fund-1",
		CallNumber:  1,
		CallDate:    time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC),
		PaymentDate: time.Date(2026, time.February, 23, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString("292670"),
		Investments: decimal.RequireFromString("275139"),
	}}
	dists := []portfolio.Distribution{{
		FundID:     "fund-1",
		DistNumber: 1,
		DistDate:   time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.RequireFromString("15000"),
		Type:       portfolio.DistributionTypeIncome,
	}}
	summary := &application.Summary{
		FundID:            "fund-1",
		AsOf:              time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		CalledToDate:      decimal.RequireFromString("292670"),
		DistributedToDate: decimal.RequireFromString("15000"),
		Multiples: &application.Multiples{
			Year: 2026, Quarter: 1,
			NAV: decimal.RequireFromString("310000"), TVPI: 1.11, DPI: 0.05, IRR: 0.12,
		},
		Warnings: []application.Warning{{Code: "called_divergence", Message: "example divergence"}},
	}
	return detail, calls, dists, summary
}

func TestBuildFundStatementPDF(t *testing.T) {
	detail, calls, dists, summary := exportFixture()

	data, err := BuildFundStatementPDF(detail, calls, dists, summary)
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("pdf empty")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("not a pdf")
	}
}

func TestBuildPortfolioXLSX(t *testing.T) {
	detail, _, _, summary := exportFixture()

	data, err := BuildPortfolioXLSX([]application.FundDetail{*detail}, map[string]*application.Summary{"fund-1": summary}, time.Now().UTC())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("xlsx empty")
	}
	// xlsx is a zip container
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("not a zip container")
	}
}

func TestBuildLedgerCSV(t *testing.T) {
	detail, calls, dists, _ := exportFixture()

	data, err := BuildLedgerCSV(&detail.Fund, calls, dists)
	if err != nil {
		t.Fatalf("build csv: %v", err)
	}
	content := string(data)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "fund,kind,number,date,amount") {
		t.Fatalf("header mismatch: %s", lines[0])
	}
	if !strings.Contains(lines[1], "call,1,2026-02-09,292670.00") {
		t.Fatalf("call row mismatch: %s", lines[1])
	}
	if !strings.Contains(lines[2], "distribution,1,2026-03-02,15000.00,income") {
		t.Fatalf("distribution row mismatch: %s", lines[2])
	}
}
