package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	portfolio "octo-backend/internal/portfolio/domain"
)

const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
)

// LedgerRepository persists capital calls and distributions. Writes are
// append-oriented; the only mutation is the corrective full-record overwrite.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateCall inserts a capital call.
func (r *LedgerRepository) CreateCall(ctx context.Context, call *portfolio.CapitalCall) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if call == nil {
		return errors.New("ledger repo: nil call")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO capital_calls (
	id, fund_id, call_number, call_date, payment_date, amount,
	investments, fund_expenses, mgmt_fee, gp_contribution, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`,
		call.ID, call.FundID, call.CallNumber, call.CallDate, nullTime(call.PaymentDate),
		call.Amount, call.Investments, call.FundExpenses, call.MgmtFee, call.GPContribution,
		call.CreatedAt, call.UpdatedAt,
	)
	return mapLedgerError(err)
}

// OverwriteCall replaces every field of the call keyed by (fund, call_number).
func (r *LedgerRepository) OverwriteCall(ctx context.Context, call *portfolio.CapitalCall) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if call == nil {
		return errors.New("ledger repo: nil call")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE capital_calls SET
	call_date = $1, payment_date = $2, amount = $3,
	investments = $4, fund_expenses = $5, mgmt_fee = $6, gp_contribution = $7,
	updated_at = $8
WHERE fund_id = $9 AND call_number = $10`,
		call.CallDate, nullTime(call.PaymentDate), call.Amount,
		call.Investments, call.FundExpenses, call.MgmtFee, call.GPContribution,
		call.UpdatedAt, call.FundID, call.CallNumber,
	)
	if err != nil {
		return mapLedgerError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return portfolio.ErrCallNotFound
	}
	return nil
}

// ListCalls returns the fund's calls ordered by call number.
func (r *LedgerRepository) ListCalls(ctx context.Context, fundID string) ([]portfolio.CapitalCall, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, fund_id, call_number, call_date, payment_date, amount,
	investments, fund_expenses, mgmt_fee, gp_contribution, created_at, updated_at
FROM capital_calls
WHERE fund_id = $1
ORDER BY call_number ASC`, fundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portfolio.CapitalCall
	for rows.Next() {
		var call portfolio.CapitalCall
		var paymentDate sql.NullTime
		err := rows.Scan(
			&call.ID, &call.FundID, &call.CallNumber, &call.CallDate, &paymentDate,
			&call.Amount, &call.Investments, &call.FundExpenses, &call.MgmtFee,
			&call.GPContribution, &call.CreatedAt, &call.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if paymentDate.Valid {
			call.PaymentDate = paymentDate.Time
		}
		result = append(result, call)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateDistribution inserts a distribution.
func (r *LedgerRepository) CreateDistribution(ctx context.Context, dist *portfolio.Distribution) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if dist == nil {
		return errors.New("ledger repo: nil distribution")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO distributions (
	id, fund_id, dist_number, dist_date, amount, dist_type, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`,
		dist.ID, dist.FundID, dist.DistNumber, dist.DistDate, dist.Amount, dist.Type,
		dist.CreatedAt, dist.UpdatedAt,
	)
	return mapLedgerError(err)
}

// OverwriteDistribution replaces every field keyed by (fund, dist_number).
func (r *LedgerRepository) OverwriteDistribution(ctx context.Context, dist *portfolio.Distribution) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if dist == nil {
		return errors.New("ledger repo: nil distribution")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE distributions SET
	dist_date = $1, amount = $2, dist_type = $3, updated_at = $4
WHERE fund_id = $5 AND dist_number = $6`,
		dist.DistDate, dist.Amount, dist.Type, dist.UpdatedAt, dist.FundID, dist.DistNumber,
	)
	if err != nil {
		return mapLedgerError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return portfolio.ErrDistributionNotFound
	}
	return nil
}

// ListDistributions returns the fund's distributions ordered by number.
func (r *LedgerRepository) ListDistributions(ctx context.Context, fundID string) ([]portfolio.Distribution, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, fund_id, dist_number, dist_date, amount, dist_type, created_at, updated_at
FROM distributions
WHERE fund_id = $1
ORDER BY dist_number ASC`, fundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portfolio.Distribution
	for rows.Next() {
		var dist portfolio.Distribution
		err := rows.Scan(
			&dist.ID, &dist.FundID, &dist.DistNumber, &dist.DistDate, &dist.Amount,
			&dist.Type, &dist.CreatedAt, &dist.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// mapLedgerError translates constraint violations into domain errors: a
// broken fund FK means the fund does not exist, a unique violation means the
// caller reused a sequence number.
func mapLedgerError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeForeignKeyViolation:
			return portfolio.ErrFundNotFound
		case pgCodeUniqueViolation:
			return portfolio.ErrDuplicateSequence
		}
	}
	return err
}
