package pipeline

import (
	"fmt"
	"time"
)

// TaskStatus is a closed enumeration of lifecycle states. Storage carries the
// status as text; parsing happens at the persistence boundary so an invalid
// value can never reach a transition.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// TaskCategory classifies a due-diligence activity.
type TaskCategory string

const (
	CategoryLegal    TaskCategory = "legal"
	CategoryTax      TaskCategory = "tax"
	CategoryAnalysis TaskCategory = "analysis"
	CategoryAdmin    TaskCategory = "admin"
)

// ParseTaskStatus maps stored text to a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskTodo, TaskInProgress, TaskDone, TaskBlocked:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// ParseTaskCategory maps stored text to a TaskCategory.
func ParseTaskCategory(s string) (TaskCategory, error) {
	switch TaskCategory(s) {
	case CategoryLegal, CategoryTax, CategoryAnalysis, CategoryAdmin:
		return TaskCategory(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Task is a scheduled due-diligence activity owned by a pipeline fund.
type Task struct {
	ID             string
	PipelineFundID string
	Category       TaskCategory
	Name           string
	Assignee       string
	StartDate      time.Time
	DueDate        time.Time
	CompletedDate  *time.Time
	Status         TaskStatus
	Priority       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// allowedTransitions is the full lifecycle: blocked is reachable from todo
// and in_progress and unblocks back to in_progress; done is terminal except
// for an explicit reopen. Due-date proximity never forces a transition.
var allowedTransitions = map[TaskStatus][]TaskStatus{
	TaskTodo:       {TaskInProgress, TaskBlocked},
	TaskInProgress: {TaskDone, TaskBlocked},
	TaskBlocked:    {TaskInProgress},
	TaskDone:       {TaskInProgress},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the task to a new status at the given time. Entering done
// stamps the completed date with the transition time; leaving done clears it.
func (t *Task) Transition(to TaskStatus, at time.Time) error {
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
	}
	if t.Status == TaskDone {
		t.CompletedDate = nil
	}
	if to == TaskDone {
		stamp := at
		t.CompletedDate = &stamp
	}
	t.Status = to
	t.UpdatedAt = at
	return nil
}

// Overdue reports whether the task is past due and not done.
func (t Task) Overdue(now time.Time) bool {
	return t.Status != TaskDone && !t.DueDate.IsZero() && now.After(t.DueDate)
}
