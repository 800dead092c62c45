package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"octo-backend/internal/portfolio/application"
	portfolio "octo-backend/internal/portfolio/domain"
)

// BuildFundStatementPDF renders a capital account statement for one fund.
func BuildFundStatementPDF(detail *application.FundDetail, calls []portfolio.CapitalCall, dists []portfolio.Distribution, summary *application.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Capital Account Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Fund: %s", detail.Fund.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Manager: %s", detail.Fund.Manager))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Vintage: %d", detail.Fund.VintageYear))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Commitment (%s): %s", detail.Fund.Currency, detail.Fund.Commitment))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Called to date: %s (%.1f%%)", detail.CalledToDate, detail.CalledPct*100))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Uncalled: %s", detail.Uncalled))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Distributed to date: %s", summary.DistributedToDate))
	pdf.Ln(5)
	if summary.Multiples != nil {
		m := summary.Multiples
		pdf.Cell(0, 6, fmt.Sprintf("Latest report: %dQ%d  NAV %s  TVPI %.2fx  DPI %.2fx  IRR %.1f%%",
			m.Year, m.Quarter, m.NAV, m.TVPI, m.DPI, m.IRR*100))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("As of: %s", summary.AsOf.Format("2006-01-02")))
	pdf.Ln(8)

	// Calls table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Call Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Payment Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, call := range calls {
		payment := ""
		if !call.PaymentDate.IsZero() {
			payment = call.PaymentDate.Format("2006-01-02")
		}
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", call.CallNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, call.CallDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, payment, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, call.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Dist Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, dist := range dists {
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", dist.DistNumber), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, dist.DistDate.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, dist.Type, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, dist.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(summary.Warnings) > 0 {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Reconciliation warnings")
		pdf.Ln(5)
		pdf.SetFont("Arial", "", 9)
		for _, warning := range summary.Warnings {
			pdf.MultiCell(0, 5, fmt.Sprintf("[%s] %s", warning.Code, warning.Message), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPortfolioXLSX renders a portfolio overview workbook with one summary
// sheet and one per-fund position sheet.
func BuildPortfolioXLSX(details []application.FundDetail, summaries map[string]*application.Summary, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	overviewSheet := "overview"
	fundsSheet := "funds"
	f.SetSheetName("Sheet1", overviewSheet)
	if _, err := f.NewSheet(fundsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(overviewSheet, "A1", "Portfolio Overview")
	_ = f.SetCellValue(overviewSheet, "A2", "Generated")
	_ = f.SetCellValue(overviewSheet, "B2", generatedAt.Format(time.RFC3339))
	_ = f.SetCellValue(overviewSheet, "A4", "Funds")
	_ = f.SetCellValue(overviewSheet, "B4", len(details))

	headers := []string{"Fund", "Manager", "Vintage", "Currency", "Commitment", "Called", "Uncalled", "Called %", "Distributed", "NAV", "TVPI", "DPI", "IRR"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(fundsSheet, cell, header)
	}
	for i, detail := range details {
		row := i + 2
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("A%d", row), detail.Fund.Name)
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("B%d", row), detail.Fund.Manager)
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("C%d", row), detail.Fund.VintageYear)
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("D%d", row), detail.Fund.Currency)
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("E%d", row), detail.Fund.Commitment.InexactFloat64())
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("F%d", row), detail.CalledToDate.InexactFloat64())
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("G%d", row), detail.Uncalled.InexactFloat64())
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("H%d", row), detail.CalledPct)
		summary := summaries[detail.Fund.ID]
		if summary == nil {
			continue
		}
		_ = f.SetCellValue(fundsSheet, fmt.Sprintf("I%d", row), summary.DistributedToDate.InexactFloat64())
		if summary.Multiples != nil {
			_ = f.SetCellValue(fundsSheet, fmt.Sprintf("J%d", row), summary.Multiples.NAV.InexactFloat64())
			_ = f.SetCellValue(fundsSheet, fmt.Sprintf("K%d", row), summary.Multiples.TVPI)
			_ = f.SetCellValue(fundsSheet, fmt.Sprintf("L%d", row), summary.Multiples.DPI)
			_ = f.SetCellValue(fundsSheet, fmt.Sprintf("M%d", row), summary.Multiples.IRR)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildLedgerCSV renders the full cashflow ledger of a fund as CSV with calls
// and distributions interleaved by sequence within their kind.
func BuildLedgerCSV(fund *portfolio.Fund, calls []portfolio.CapitalCall, dists []portfolio.Distribution) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"fund", "kind", "number", "date", "amount", "detail"}); err != nil {
		return nil, err
	}
	for _, call := range calls {
		record := []string{
			fund.Name,
			"call",
			fmt.Sprintf("%d", call.CallNumber),
			call.CallDate.Format("2006-01-02"),
			call.Amount.StringFixed(2),
			fmt.Sprintf("investments=%s expenses=%s mgmt_fee=%s gp=%s",
				call.Investments.StringFixed(2), call.FundExpenses.StringFixed(2), call.MgmtFee.StringFixed(2), call.GPContribution.StringFixed(2)),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	for _, dist := range dists {
		record := []string{
			fund.Name,
			"distribution",
			fmt.Sprintf("%d", dist.DistNumber),
			dist.DistDate.Format("2006-01-02"),
			dist.Amount.StringFixed(2),
			dist.Type,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
