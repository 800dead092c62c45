package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestQuarterEnd(t *testing.T) {
	cases := []struct {
		year, quarter int
		want          time.Time
	}{
		{2026, 1, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)},
		{2026, 2, time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)},
		{2026, 3, time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)},
		{2026, 4, time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)},
		{2024, 1, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := QuarterEnd(tc.year, tc.quarter); !got.Equal(tc.want) {
			t.Errorf("QuarterEnd(%d, %d) = %v, want %v", tc.year, tc.quarter, got, tc.want)
		}
	}
}

func TestComponentSumExcludesGPContribution(t *testing.T) {
	call := CapitalCall{
		Amount:         decimal.RequireFromString("292670"),
		Investments:    decimal.RequireFromString("275139"),
		FundExpenses:   decimal.RequireFromString("5503"),
		MgmtFee:        decimal.RequireFromString("6476"),
		GPContribution: decimal.RequireFromString("5552"),
	}
	if !call.ComponentSum().Equal(decimal.RequireFromString("287118")) {
		t.Fatalf("component sum %s", call.ComponentSum())
	}
	if !call.ComponentGap().Equal(decimal.RequireFromString("5552")) {
		t.Fatalf("component gap %s", call.ComponentGap())
	}
}

func TestFundPosition(t *testing.T) {
	fund := Fund{Commitment: decimal.RequireFromString("1000000")}
	called := decimal.RequireFromString("250000")

	if !fund.Uncalled(called).Equal(decimal.RequireFromString("750000")) {
		t.Fatalf("uncalled %s", fund.Uncalled(called))
	}
	if got := fund.CalledPct(called); got != 0.25 {
		t.Fatalf("called pct %v", got)
	}

	zero := Fund{}
	if got := zero.CalledPct(called); got != 0 {
		t.Fatalf("zero commitment pct %v", got)
	}
}

func TestEnumValidators(t *testing.T) {
	if !ValidFundStatus(FundStatusWrittenOff) || ValidFundStatus("paused") {
		t.Fatalf("fund status validation broken")
	}
	if !ValidDistributionType(DistributionTypeRecycle) || ValidDistributionType("dividend") {
		t.Fatalf("distribution type validation broken")
	}
	if !ValidQuarter(4) || ValidQuarter(0) || ValidQuarter(5) {
		t.Fatalf("quarter validation broken")
	}
}
