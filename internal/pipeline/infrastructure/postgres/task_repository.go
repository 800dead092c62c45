package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	pipeline "octo-backend/internal/pipeline/domain"
)

const pgCodeForeignKeyViolation = "23503"

// TaskRepository persists due-diligence tasks.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository constructs a repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateBatch inserts all tasks inside one transaction. Any failure rolls the
// whole batch back, so readers never observe a partially generated schedule.
// A missing pipeline fund surfaces through the foreign key as
// ErrPipelineFundNotFound.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []pipeline.Task) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	if len(tasks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err := insertTask(ctx, tx, task); err != nil {
			_ = tx.Rollback()
			return mapTaskError(err)
		}
	}
	return tx.Commit()
}

// Create inserts a single task.
func (r *TaskRepository) Create(ctx context.Context, task *pipeline.Task) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	if task == nil {
		return errors.New("task repo: nil task")
	}
	return mapTaskError(insertTask(ctx, r.db, *task))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTask(ctx context.Context, db execer, task pipeline.Task) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO gantt_tasks (
	id, pipeline_fund_id, category, name, assignee, start_date, due_date,
	completed_date, status, priority, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`,
		task.ID, task.PipelineFundID, string(task.Category), task.Name, task.Assignee,
		task.StartDate, task.DueDate, task.CompletedDate, string(task.Status), task.Priority,
		task.CreatedAt, task.UpdatedAt,
	)
	return err
}

// Get fetches a task, nil when absent.
func (r *TaskRepository) Get(ctx context.Context, id string) (*pipeline.Task, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("task repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, pipeline_fund_id, category, name, assignee, start_date, due_date,
	completed_date, status, priority, created_at, updated_at
FROM gantt_tasks
WHERE id = $1
LIMIT 1`, id)
	return scanTask(row)
}

// ListByPipelineFund returns the fund's tasks ordered by start date, filtered
// by status and category when set.
func (r *TaskRepository) ListByPipelineFund(ctx context.Context, pipelineFundID string, filter pipeline.TaskFilter) ([]pipeline.Task, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("task repo: nil db")
	}
	query := `
SELECT id, pipeline_fund_id, category, name, assignee, start_date, due_date,
	completed_date, status, priority, created_at, updated_at
FROM gantt_tasks
WHERE pipeline_fund_id = $1`
	args := []any{pipelineFundID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $2`
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		if len(args) == 3 {
			query += ` AND category = $3`
		} else {
			query += ` AND category = $2`
		}
	}
	query += `
ORDER BY start_date ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pipeline.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if task != nil {
			result = append(result, *task)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update rewrites the mutable task fields.
func (r *TaskRepository) Update(ctx context.Context, task *pipeline.Task) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	if task == nil {
		return errors.New("task repo: nil task")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE gantt_tasks SET
	assignee = $1, start_date = $2, due_date = $3, completed_date = $4,
	status = $5, priority = $6, updated_at = $7
WHERE id = $8`,
		task.Assignee, task.StartDate, task.DueDate, task.CompletedDate,
		string(task.Status), task.Priority, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return pipeline.ErrTaskNotFound
	}
	return nil
}

func scanTask(row rowScanner) (*pipeline.Task, error) {
	var task pipeline.Task
	var category, status string
	var completed sql.NullTime
	err := row.Scan(
		&task.ID, &task.PipelineFundID, &category, &task.Name, &task.Assignee,
		&task.StartDate, &task.DueDate, &completed, &status, &task.Priority,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	task.Category, err = pipeline.ParseTaskCategory(category)
	if err != nil {
		return nil, err
	}
	task.Status, err = pipeline.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		stamp := completed.Time
		task.CompletedDate = &stamp
	}
	return &task, nil
}

func mapTaskError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCodeForeignKeyViolation {
		return pipeline.ErrPipelineFundNotFound
	}
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
