package postgres

import (
	"context"
	"database/sql"
	"errors"

	portfolio "octo-backend/internal/portfolio/domain"
)

// FundRepository persists funds.
type FundRepository struct {
	db *sql.DB
}

// NewFundRepository constructs a repository.
func NewFundRepository(db *sql.DB) *FundRepository {
	return &FundRepository{db: db}
}

// Create inserts a fund.
func (r *FundRepository) Create(ctx context.Context, fund *portfolio.Fund) error {
	if r == nil || r.db == nil {
		return errors.New("fund repo: nil db")
	}
	if fund == nil {
		return errors.New("fund repo: nil fund")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO funds (
	id, name, manager, vintage_year, strategy, currency, commitment, status, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`,
		fund.ID, fund.Name, fund.Manager, fund.VintageYear, fund.Strategy, fund.Currency,
		fund.Commitment, fund.Status, fund.CreatedAt, fund.UpdatedAt,
	)
	return err
}

// Get fetches a fund, nil when absent.
func (r *FundRepository) Get(ctx context.Context, id string) (*portfolio.Fund, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("fund repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, manager, vintage_year, strategy, currency, commitment, status, created_at, updated_at
FROM funds
WHERE id = $1
LIMIT 1`, id)
	return scanFund(row)
}

// List returns all funds ordered by name.
func (r *FundRepository) List(ctx context.Context) ([]portfolio.Fund, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("fund repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, manager, vintage_year, strategy, currency, commitment, status, created_at, updated_at
FROM funds
ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portfolio.Fund
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, err
		}
		if fund != nil {
			result = append(result, *fund)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus moves a fund to a new lifecycle status.
func (r *FundRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if r == nil || r.db == nil {
		return errors.New("fund repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE funds SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return portfolio.ErrFundNotFound
	}
	return nil
}

// Delete removes a fund; calls, distributions and reports cascade.
func (r *FundRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("fund repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM funds WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return portfolio.ErrFundNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFund(row rowScanner) (*portfolio.Fund, error) {
	var fund portfolio.Fund
	err := row.Scan(
		&fund.ID, &fund.Name, &fund.Manager, &fund.VintageYear, &fund.Strategy,
		&fund.Currency, &fund.Commitment, &fund.Status, &fund.CreatedAt, &fund.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fund, nil
}
