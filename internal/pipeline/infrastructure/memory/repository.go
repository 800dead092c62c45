package memory

import (
	"context"
	"sort"
	"sync"

	pipeline "octo-backend/internal/pipeline/domain"
)

// PipelineFundRepository is an in-memory pipeline fund store.
type PipelineFundRepository struct {
	mu    sync.RWMutex
	funds map[string]pipeline.PipelineFund
	tasks *TaskRepository
}

// NewPipelineFundRepository constructs a repository. When tasks is non-nil,
// deleting a fund cascades to its tasks, mirroring the database FK.
func NewPipelineFundRepository(tasks *TaskRepository) *PipelineFundRepository {
	return &PipelineFundRepository{funds: make(map[string]pipeline.PipelineFund), tasks: tasks}
}

// Create inserts a pipeline fund.
func (r *PipelineFundRepository) Create(ctx context.Context, fund *pipeline.PipelineFund) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funds[fund.ID] = *fund
	if r.tasks != nil {
		r.tasks.registerFund(fund.ID)
	}
	return nil
}

// Get fetches a pipeline fund, nil when absent.
func (r *PipelineFundRepository) Get(ctx context.Context, id string) (*pipeline.PipelineFund, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	fund, ok := r.funds[id]
	if !ok {
		return nil, nil
	}
	return &fund, nil
}

// List returns all pipeline funds.
func (r *PipelineFundRepository) List(ctx context.Context) ([]pipeline.PipelineFund, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]pipeline.PipelineFund, 0, len(r.funds))
	for _, fund := range r.funds {
		result = append(result, fund)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// Update rewrites the pipeline fund.
func (r *PipelineFundRepository) Update(ctx context.Context, fund *pipeline.PipelineFund) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funds[fund.ID]; !ok {
		return pipeline.ErrPipelineFundNotFound
	}
	r.funds[fund.ID] = *fund
	return nil
}

// Delete removes the fund and cascades to its tasks.
func (r *PipelineFundRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.funds[id]; !ok {
		return pipeline.ErrPipelineFundNotFound
	}
	delete(r.funds, id)
	if r.tasks != nil {
		r.tasks.deleteByFund(id)
	}
	return nil
}

// TaskRepository is an in-memory task store. It tracks known pipeline fund
// ids so that batch inserts against an unknown fund fail the way the
// database foreign key would.
type TaskRepository struct {
	mu         sync.RWMutex
	tasks      map[string]pipeline.Task
	knownFunds map[string]bool

	// FailAfter, when positive, fails the batch insert after that many rows.
	// Used by tests to prove all-or-nothing behavior.
	FailAfter int
	// FailErr is the error injected when FailAfter trips.
	FailErr error
}

// NewTaskRepository constructs a repository.
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]pipeline.Task), knownFunds: make(map[string]bool)}
}

func (r *TaskRepository) registerFund(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knownFunds[id] = true
}

func (r *TaskRepository) deleteByFund(fundID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, task := range r.tasks {
		if task.PipelineFundID == fundID {
			delete(r.tasks, id)
		}
	}
	delete(r.knownFunds, fundID)
}

// RegisterFund marks a pipeline fund id as existing for FK checks.
func (r *TaskRepository) RegisterFund(id string) { r.registerFund(id) }

// CreateBatch inserts all tasks or none.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []pipeline.Task) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	staged := make(map[string]pipeline.Task, len(tasks))
	for i, task := range tasks {
		if r.FailAfter > 0 && i >= r.FailAfter {
			return r.failErr()
		}
		if !r.knownFunds[task.PipelineFundID] {
			return pipeline.ErrPipelineFundNotFound
		}
		staged[task.ID] = task
	}
	for id, task := range staged {
		r.tasks[id] = task
	}
	return nil
}

func (r *TaskRepository) failErr() error {
	if r.FailErr != nil {
		return r.FailErr
	}
	return pipeline.ErrPipelineFundNotFound
}

// Create inserts a single task.
func (r *TaskRepository) Create(ctx context.Context, task *pipeline.Task) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.knownFunds[task.PipelineFundID] {
		return pipeline.ErrPipelineFundNotFound
	}
	r.tasks[task.ID] = *task
	return nil
}

// Get fetches a task, nil when absent.
func (r *TaskRepository) Get(ctx context.Context, id string) (*pipeline.Task, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

// ListByPipelineFund returns the fund's tasks ordered by start date.
func (r *TaskRepository) ListByPipelineFund(ctx context.Context, pipelineFundID string, filter pipeline.TaskFilter) ([]pipeline.Task, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []pipeline.Task
	for _, task := range r.tasks {
		if task.PipelineFundID != pipelineFundID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Category != "" && task.Category != filter.Category {
			continue
		}
		result = append(result, task)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Update rewrites the task.
func (r *TaskRepository) Update(ctx context.Context, task *pipeline.Task) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return pipeline.ErrTaskNotFound
	}
	r.tasks[task.ID] = *task
	return nil
}
