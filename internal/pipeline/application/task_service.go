package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"octo-backend/internal/observability/metrics"
	pipeline "octo-backend/internal/pipeline/domain"
)

// TaskInput carries the fields of a manually created task.
type TaskInput struct {
	Category  string
	Name      string
	Assignee  string
	StartDate time.Time
	DueDate   time.Time
	Priority  string
}

// TaskEdit carries the mutable fields of a task. Nil means unchanged.
type TaskEdit struct {
	StartDate *time.Time
	DueDate   *time.Time
	Assignee  *string
}

// TaskService owns task lifecycle transitions and edits. It never
// auto-escalates priority or moves a task on the passage of time; overdue
// tasks stay where they are until explicitly transitioned.
type TaskService struct {
	tasks pipeline.TaskRepository
	funds pipeline.PipelineFundRepository
	clock Clock
}

// NewTaskService constructs a task service.
func NewTaskService(tasks pipeline.TaskRepository, funds pipeline.PipelineFundRepository, clock Clock) (*TaskService, error) {
	if tasks == nil {
		return nil, errors.New("task service: nil task repo")
	}
	if funds == nil {
		return nil, errors.New("task service: nil pipeline fund repo")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TaskService{tasks: tasks, funds: funds, clock: clock}, nil
}

// Create adds a single task to a pipeline fund outside the generated batch.
func (s *TaskService) Create(ctx context.Context, pipelineFundID string, in TaskInput) (*pipeline.Task, error) {
	fund, err := s.funds.Get(ctx, pipelineFundID)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, pipeline.ErrPipelineFundNotFound
	}
	category, err := pipeline.ParseTaskCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, pipeline.ErrNameRequired
	}
	priority := in.Priority
	if priority == "" {
		priority = pipeline.PriorityMedium
	}
	now := s.clock.Now()
	task := &pipeline.Task{
		ID:             uuid.NewString(),
		PipelineFundID: pipelineFundID,
		Category:       category,
		Name:           in.Name,
		Assignee:       in.Assignee,
		StartDate:      in.StartDate,
		DueDate:        in.DueDate,
		Status:         pipeline.TaskTodo,
		Priority:       priority,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Transition moves a task to the requested status. The transition time is
// stamped on completion and cleared on reopen, per the task state machine.
func (s *TaskService) Transition(ctx context.Context, taskID, to string) (*pipeline.Task, error) {
	target, err := pipeline.ParseTaskStatus(to)
	if err != nil {
		metrics.IncTaskTransition(to, metrics.ResultError)
		return nil, err
	}
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		metrics.IncTaskTransition(string(target), metrics.ResultError)
		return nil, err
	}
	if task == nil {
		metrics.IncTaskTransition(string(target), metrics.ResultError)
		return nil, pipeline.ErrTaskNotFound
	}
	if err := task.Transition(target, s.clock.Now()); err != nil {
		metrics.IncTaskTransition(string(target), metrics.ResultError)
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		metrics.IncTaskTransition(string(target), metrics.ResultError)
		return nil, err
	}
	metrics.IncTaskTransition(string(target), metrics.ResultSuccess)
	return task, nil
}

// Edit applies date and assignee changes to a task.
func (s *TaskService) Edit(ctx context.Context, taskID string, edit TaskEdit) (*pipeline.Task, error) {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, pipeline.ErrTaskNotFound
	}
	if edit.StartDate != nil {
		task.StartDate = *edit.StartDate
	}
	if edit.DueDate != nil {
		task.DueDate = *edit.DueDate
	}
	if edit.Assignee != nil {
		task.Assignee = *edit.Assignee
	}
	task.UpdatedAt = s.clock.Now()
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns tasks for a pipeline fund, optionally filtered by status and
// category.
func (s *TaskService) List(ctx context.Context, pipelineFundID, status, category string) ([]pipeline.Task, error) {
	fund, err := s.funds.Get(ctx, pipelineFundID)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, pipeline.ErrPipelineFundNotFound
	}
	var filter pipeline.TaskFilter
	if status != "" {
		parsed, err := pipeline.ParseTaskStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = parsed
	}
	if category != "" {
		parsed, err := pipeline.ParseTaskCategory(category)
		if err != nil {
			return nil, err
		}
		filter.Category = parsed
	}
	return s.tasks.ListByPipelineFund(ctx, pipelineFundID, filter)
}
