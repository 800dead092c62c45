package pipeline

import "context"

// PipelineFundRepository persists prospective funds.
type PipelineFundRepository interface {
	Create(ctx context.Context, fund *PipelineFund) error
	Get(ctx context.Context, id string) (*PipelineFund, error)
	List(ctx context.Context) ([]PipelineFund, error)
	Update(ctx context.Context, fund *PipelineFund) error
	// Delete removes the pipeline fund and, by cascade, its tasks.
	Delete(ctx context.Context, id string) error
}

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	Status   TaskStatus
	Category TaskCategory
}

// TaskRepository persists due-diligence tasks.
type TaskRepository interface {
	// CreateBatch inserts all tasks in a single transaction: either every
	// task is persisted or none is. A missing pipeline fund surfaces as
	// ErrPipelineFundNotFound through the foreign key, not a pre-check.
	CreateBatch(ctx context.Context, tasks []Task) error
	Create(ctx context.Context, task *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	ListByPipelineFund(ctx context.Context, pipelineFundID string, filter TaskFilter) ([]Task, error)
	Update(ctx context.Context, task *Task) error
}
