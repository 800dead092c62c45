package apihttp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"octo-backend/internal/observability/metrics"
	"octo-backend/internal/portfolio/application"
	portfolio "octo-backend/internal/portfolio/domain"
	"octo-backend/internal/portfolio/interfaces"
)

const dateLayout = "2006-01-02"

// OverviewHandler serves portfolio-wide KPI aggregates.
type OverviewHandler struct {
	db *sql.DB
}

// NewOverviewHandler constructs an OverviewHandler.
func NewOverviewHandler(db *sql.DB) *OverviewHandler {
	return &OverviewHandler{db: db}
}

type overviewRow struct {
	TotalFunds       int       `json:"total_funds"`
	ActiveFunds      int       `json:"active_funds"`
	TotalCommitment  float64   `json:"total_commitment"`
	TotalCalled      float64   `json:"total_called"`
	TotalDistributed float64   `json:"total_distributed"`
	TotalNAV         float64   `json:"total_nav"`
	PipelineFunds    int       `json:"pipeline_funds"`
	OpenTasks        int       `json:"open_tasks"`
	OverdueTasks     int       `json:"overdue_tasks"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// ServeHTTP handles GET /api/v1/overview.
func (h *OverviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	row, err := queryOverview(r.Context(), h.db)
	if err != nil {
		http.Error(w, "query overview error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(row)
}

func queryOverview(ctx context.Context, db *sql.DB) (*overviewRow, error) {
	row := overviewRow{GeneratedAt: time.Now().UTC()}

	err := db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'active'),
	COALESCE(SUM(commitment), 0)
FROM funds`).Scan(&row.TotalFunds, &row.ActiveFunds, &row.TotalCommitment)
	if err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount), 0) FROM capital_calls WHERE call_date <= NOW()`).Scan(&row.TotalCalled)
	if err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount), 0) FROM distributions WHERE dist_date <= NOW()`).Scan(&row.TotalDistributed)
	if err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(nav), 0) FROM (
	SELECT DISTINCT ON (fund_id) nav
	FROM quarterly_reports
	ORDER BY fund_id, year DESC, quarter DESC
) latest`).Scan(&row.TotalNAV)
	if err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pipeline_funds`).Scan(&row.PipelineFunds)
	if err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx, `
SELECT
	COUNT(*) FILTER (WHERE status <> 'done'),
	COUNT(*) FILTER (WHERE status <> 'done' AND due_date < NOW())
FROM gantt_tasks`).Scan(&row.OpenTasks, &row.OverdueTasks)
	if err != nil {
		return nil, err
	}

	return &row, nil
}

// UpcomingEventsHandler serves the cross-portfolio calendar of future
// capital-call payments and open task due dates.
type UpcomingEventsHandler struct {
	db *sql.DB
}

// NewUpcomingEventsHandler constructs an UpcomingEventsHandler.
func NewUpcomingEventsHandler(db *sql.DB) *UpcomingEventsHandler {
	return &UpcomingEventsHandler{db: db}
}

type eventRow struct {
	Kind     string    `json:"kind"`
	Date     time.Time `json:"date"`
	FundName string    `json:"fund_name"`
	Label    string    `json:"label"`
	Amount   *float64  `json:"amount,omitempty"`
}

// ServeHTTP handles GET /api/v1/events/upcoming.
func (h *UpcomingEventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			http.Error(w, "days must be between 1 and 365", http.StatusBadRequest)
			return
		}
		days = parsed
	}
	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, days)

	events, err := queryUpcomingEvents(r.Context(), h.db, from, to)
	if err != nil {
		http.Error(w, "query events error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func queryUpcomingEvents(ctx context.Context, db *sql.DB, from, to time.Time) ([]eventRow, error) {
	result := []eventRow{}

	rows, err := db.QueryContext(ctx, `
SELECT f.name, c.call_number, c.payment_date, c.amount
FROM capital_calls c
JOIN funds f ON f.id = c.fund_id
WHERE c.payment_date IS NOT NULL
	AND c.payment_date >= $1
	AND c.payment_date < $2
ORDER BY c.payment_date ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			fundName   string
			callNumber int
			date       time.Time
			amount     float64
		)
		if err := rows.Scan(&fundName, &callNumber, &date, &amount); err != nil {
			return nil, err
		}
		result = append(result, eventRow{
			Kind:     "call_payment",
			Date:     date.UTC(),
			FundName: fundName,
			Label:    fmt.Sprintf("call #%d payment", callNumber),
			Amount:   &amount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	taskRows, err := db.QueryContext(ctx, `
SELECT p.name, t.name, t.due_date
FROM gantt_tasks t
JOIN pipeline_funds p ON p.id = t.pipeline_fund_id
WHERE t.status <> 'done'
	AND t.due_date >= $1
	AND t.due_date < $2
ORDER BY t.due_date ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer taskRows.Close()
	for taskRows.Next() {
		var (
			fundName string
			taskName string
			date     time.Time
		)
		if err := taskRows.Scan(&fundName, &taskName, &date); err != nil {
			return nil, err
		}
		result = append(result, eventRow{
			Kind:     "task_due",
			Date:     date.UTC(),
			FundName: fundName,
			Label:    taskName,
		})
	}
	if err := taskRows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ExportLedgerCSVHandler serves the cashflow ledger of one fund as CSV.
type ExportLedgerCSVHandler struct {
	funds  *application.FundService
	ledger *application.LedgerService
}

// NewExportLedgerCSVHandler constructs an ExportLedgerCSVHandler.
func NewExportLedgerCSVHandler(funds *application.FundService, ledger *application.LedgerService) *ExportLedgerCSVHandler {
	return &ExportLedgerCSVHandler{funds: funds, ledger: ledger}
}

// ServeHTTP handles GET /api/v1/exports/ledger.csv.
func (h *ExportLedgerCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.funds == nil || h.ledger == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	fundID := r.URL.Query().Get("fund_id")
	if fundID == "" {
		http.Error(w, "fund_id is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("csv", result, time.Since(start))
	}()

	detail, err := h.funds.Detail(r.Context(), fundID)
	if err != nil {
		result = metrics.ResultError
		respondExportError(w, err)
		return
	}
	calls, err := h.ledger.ListCalls(r.Context(), fundID)
	if err != nil {
		result = metrics.ResultError
		respondExportError(w, err)
		return
	}
	dists, err := h.ledger.ListDistributions(r.Context(), fundID)
	if err != nil {
		result = metrics.ResultError
		respondExportError(w, err)
		return
	}

	data, err := interfaces.BuildLedgerCSV(&detail.Fund, calls, dists)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "build csv error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", detail.Fund.Name+"-ledger.csv"))
	_, _ = w.Write(data)
}

// ExportPortfolioXLSXHandler serves the whole-portfolio workbook.
type ExportPortfolioXLSXHandler struct {
	funds     *application.FundService
	summaries *application.SummaryService
}

// NewExportPortfolioXLSXHandler constructs an ExportPortfolioXLSXHandler.
func NewExportPortfolioXLSXHandler(funds *application.FundService, summaries *application.SummaryService) *ExportPortfolioXLSXHandler {
	return &ExportPortfolioXLSXHandler{funds: funds, summaries: summaries}
}

// ServeHTTP handles GET /api/v1/exports/portfolio.xlsx.
func (h *ExportPortfolioXLSXHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.funds == nil || h.summaries == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("xlsx", result, time.Since(start))
	}()

	funds, err := h.funds.List(r.Context())
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "list funds error", http.StatusInternalServerError)
		return
	}

	details := make([]application.FundDetail, 0, len(funds))
	summaries := make(map[string]*application.Summary, len(funds))
	for _, fund := range funds {
		detail, err := h.funds.Detail(r.Context(), fund.ID)
		if err != nil {
			result = metrics.ResultError
			respondExportError(w, err)
			return
		}
		summary, err := h.summaries.ComputeSummary(r.Context(), fund.ID, time.Time{})
		if err != nil {
			result = metrics.ResultError
			respondExportError(w, err)
			return
		}
		details = append(details, *detail)
		summaries[fund.ID] = summary
	}

	data, err := interfaces.BuildPortfolioXLSX(details, summaries, time.Now().UTC())
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "build xlsx error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "portfolio-"+time.Now().UTC().Format(dateLayout)+".xlsx"))
	_, _ = w.Write(data)
}

func respondExportError(w http.ResponseWriter, err error) {
	if errors.Is(err, portfolio.ErrFundNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
