package postgres

import (
	"context"
	"database/sql"
	"errors"

	pipeline "octo-backend/internal/pipeline/domain"
)

// PipelineFundRepository persists prospective funds.
type PipelineFundRepository struct {
	db *sql.DB
}

// NewPipelineFundRepository constructs a repository.
func NewPipelineFundRepository(db *sql.DB) *PipelineFundRepository {
	return &PipelineFundRepository{db: db}
}

// Create inserts a pipeline fund.
func (r *PipelineFundRepository) Create(ctx context.Context, fund *pipeline.PipelineFund) error {
	if r == nil || r.db == nil {
		return errors.New("pipeline repo: nil db")
	}
	if fund == nil {
		return errors.New("pipeline repo: nil fund")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO pipeline_funds (
	id, name, manager, strategy, currency, target_commitment, target_close,
	review_status, priority, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`,
		fund.ID, fund.Name, fund.Manager, fund.Strategy, fund.Currency,
		fund.TargetCommitment, nullTime(fund.TargetClose), fund.ReviewStatus, fund.Priority,
		fund.CreatedAt, fund.UpdatedAt,
	)
	return err
}

// Get fetches a pipeline fund, nil when absent.
func (r *PipelineFundRepository) Get(ctx context.Context, id string) (*pipeline.PipelineFund, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("pipeline repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, manager, strategy, currency, target_commitment, target_close,
	review_status, priority, created_at, updated_at
FROM pipeline_funds
WHERE id = $1
LIMIT 1`, id)
	return scanPipelineFund(row)
}

// List returns all pipeline funds ordered by creation.
func (r *PipelineFundRepository) List(ctx context.Context) ([]pipeline.PipelineFund, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("pipeline repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, manager, strategy, currency, target_commitment, target_close,
	review_status, priority, created_at, updated_at
FROM pipeline_funds
ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pipeline.PipelineFund
	for rows.Next() {
		fund, err := scanPipelineFund(rows)
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

// Update rewrites the mutable pipeline fund fields.
func (r *PipelineFundRepository) Update(ctx context.Context, fund *pipeline.PipelineFund) error {
	if r == nil || r.db == nil {
		return errors.New("pipeline repo: nil db")
	}
	if fund == nil {
		return errors.New("pipeline repo: nil fund")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE pipeline_funds SET
	review_status = $1, target_close = $2, priority = $3, updated_at = $4
WHERE id = $5`,
		fund.ReviewStatus, nullTime(fund.TargetClose), fund.Priority, fund.UpdatedAt, fund.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pipeline.ErrPipelineFundNotFound
	}
	return nil
}

// Delete removes the pipeline fund; its tasks cascade.
func (r *PipelineFundRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("pipeline repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM pipeline_funds WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pipeline.ErrPipelineFundNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPipelineFund(row rowScanner) (*pipeline.PipelineFund, error) {
	var fund pipeline.PipelineFund
	var targetClose sql.NullTime
	err := row.Scan(
		&fund.ID, &fund.Name, &fund.Manager, &fund.Strategy, &fund.Currency,
		&fund.TargetCommitment, &targetClose, &fund.ReviewStatus, &fund.Priority,
		&fund.CreatedAt, &fund.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if targetClose.Valid {
		fund.TargetClose = targetClose.Time
	}
	return &fund, nil
}
