package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	portfolio "octo-backend/internal/portfolio/domain"
)

// ReportRepository persists quarterly reports.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository constructs a repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report; the (fund, year, quarter) key is unique.
func (r *ReportRepository) Create(ctx context.Context, report *portfolio.QuarterlyReport) error {
	if r == nil || r.db == nil {
		return errors.New("report repo: nil db")
	}
	if report == nil {
		return errors.New("report repo: nil report")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO quarterly_reports (
	id, fund_id, year, quarter, nav, tvpi, dpi, rvpi, irr,
	called_to_date, distributed_to_date, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`,
		report.ID, report.FundID, report.Year, report.Quarter, report.NAV,
		report.TVPI, report.DPI, report.RVPI, report.IRR,
		report.CalledToDate, report.DistributedToDate, report.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgCodeForeignKeyViolation:
				return portfolio.ErrFundNotFound
			case pgCodeUniqueViolation:
				return portfolio.ErrDuplicateReport
			}
		}
	}
	return err
}

// ListByFund returns the fund's reports ordered by (year, quarter).
func (r *ReportRepository) ListByFund(ctx context.Context, fundID string) ([]portfolio.QuarterlyReport, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, fund_id, year, quarter, nav, tvpi, dpi, rvpi, irr,
	called_to_date, distributed_to_date, created_at
FROM quarterly_reports
WHERE fund_id = $1
ORDER BY year ASC, quarter ASC`, fundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portfolio.QuarterlyReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		if report != nil {
			result = append(result, *report)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FindLatestNotAfter returns the highest (year, quarter) report whose quarter
// end is at or before asOf, nil when none exists.
func (r *ReportRepository) FindLatestNotAfter(ctx context.Context, fundID string, asOf time.Time) (*portfolio.QuarterlyReport, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, fund_id, year, quarter, nav, tvpi, dpi, rvpi, irr,
	called_to_date, distributed_to_date, created_at
FROM quarterly_reports
WHERE fund_id = $1
	AND make_date(year, quarter * 3, 1) + INTERVAL '1 month' - INTERVAL '1 day' <= $2
ORDER BY year DESC, quarter DESC
LIMIT 1`, fundID, asOf)
	return scanReport(row)
}

func scanReport(row rowScanner) (*portfolio.QuarterlyReport, error) {
	var report portfolio.QuarterlyReport
	err := row.Scan(
		&report.ID, &report.FundID, &report.Year, &report.Quarter, &report.NAV,
		&report.TVPI, &report.DPI, &report.RVPI, &report.IRR,
		&report.CalledToDate, &report.DistributedToDate, &report.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}
