package application

import (
	"context"
	"errors"
	"testing"
	"time"

	pipeline "octo-backend/internal/pipeline/domain"
	"octo-backend/internal/pipeline/infrastructure/memory"
)

func newTaskFixture(t *testing.T) (*TaskService, *PipelineService, *memory.TaskRepository, fixedClock) {
	t.Helper()
	clock := fixedClock{now: time.Date(2026, time.February, 2, 9, 0, 0, 0, time.UTC)}
	tasks := memory.NewTaskRepository()
	funds := memory.NewPipelineFundRepository(tasks)
	pipelines, err := NewPipelineService(funds, clock)
	if err != nil {
		t.Fatalf("pipeline service: %v", err)
	}
	service, err := NewTaskService(tasks, funds, clock)
	if err != nil {
		t.Fatalf("task service: %v", err)
	}
	return service, pipelines, tasks, clock
}

func seedPipelineFund(t *testing.T, pipelines *PipelineService) *pipeline.PipelineFund {
	t.Helper()
	fund, err := pipelines.Create(context.Background(), PipelineFundInput{Name: "Growth Fund IV"})
	if err != nil {
		t.Fatalf("create pipeline fund: %v", err)
	}
	return fund
}

func TestTaskCreate_Manual(t *testing.T) {
	service, pipelines, _, clock := newTaskFixture(t)
	fund := seedPipelineFund(t, pipelines)

	start := clock.now.AddDate(0, 0, 1)
	task, err := service.Create(context.Background(), fund.ID, TaskInput{
		Category:  "legal",
		Name:      "Special side agreement review",
		StartDate: start,
		DueDate:   start.AddDate(0, 0, 5),
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != pipeline.TaskTodo {
		t.Fatalf("new task status %s, want todo", task.Status)
	}
	if task.Priority != pipeline.PriorityMedium {
		t.Fatalf("default priority %s, want medium", task.Priority)
	}
}

func TestTaskCreate_Rejections(t *testing.T) {
	service, pipelines, _, _ := newTaskFixture(t)
	fund := seedPipelineFund(t, pipelines)
	ctx := context.Background()

	if _, err := service.Create(ctx, "missing", TaskInput{Category: "legal", Name: "x"}); !errors.Is(err, pipeline.ErrPipelineFundNotFound) {
		t.Fatalf("unknown fund: %v", err)
	}
	if _, err := service.Create(ctx, fund.ID, TaskInput{Category: "finance", Name: "x"}); !errors.Is(err, pipeline.ErrUnknownCategory) {
		t.Fatalf("bad category: %v", err)
	}
	if _, err := service.Create(ctx, fund.ID, TaskInput{Category: "legal"}); !errors.Is(err, pipeline.ErrNameRequired) {
		t.Fatalf("missing name: %v", err)
	}
}

func TestTaskTransition_FullLifecycle(t *testing.T) {
	service, pipelines, _, clock := newTaskFixture(t)
	fund := seedPipelineFund(t, pipelines)
	ctx := context.Background()

	task, err := service.Create(ctx, fund.ID, TaskInput{Category: "analysis", Name: "IC memo drafting"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	task, err = service.Transition(ctx, task.ID, "in_progress")
	if err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	task, err = service.Transition(ctx, task.ID, "done")
	if err != nil {
		t.Fatalf("to done: %v", err)
	}
	if task.CompletedDate == nil || !task.CompletedDate.Equal(clock.now) {
		t.Fatalf("completed date not stamped: %v", task.CompletedDate)
	}

	task, err = service.Transition(ctx, task.ID, "in_progress")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if task.CompletedDate != nil {
		t.Fatalf("completed date not cleared on reopen")
	}
}

func TestTaskTransition_Rejections(t *testing.T) {
	service, pipelines, _, _ := newTaskFixture(t)
	fund := seedPipelineFund(t, pipelines)
	ctx := context.Background()

	task, err := service.Create(ctx, fund.ID, TaskInput{Category: "tax", Name: "Tax treaty analysis"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.Transition(ctx, task.ID, "done"); !errors.Is(err, pipeline.ErrInvalidTransition) {
		t.Fatalf("todo -> done must be rejected: %v", err)
	}
	if _, err := service.Transition(ctx, task.ID, "archived"); !errors.Is(err, pipeline.ErrUnknownStatus) {
		t.Fatalf("unknown status: %v", err)
	}
	if _, err := service.Transition(ctx, "missing", "in_progress"); !errors.Is(err, pipeline.ErrTaskNotFound) {
		t.Fatalf("unknown task: %v", err)
	}
}

func TestTaskEdit(t *testing.T) {
	service, pipelines, _, clock := newTaskFixture(t)
	fund := seedPipelineFund(t, pipelines)
	ctx := context.Background()

	task, err := service.Create(ctx, fund.ID, TaskInput{Category: "admin", Name: "Wire instructions and account setup"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newDue := clock.now.AddDate(0, 0, 10)
	assignee := "ops"
	task, err = service.Edit(ctx, task.ID, TaskEdit{DueDate: &newDue, Assignee: &assignee})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !task.DueDate.Equal(newDue) || task.Assignee != "ops" {
		t.Fatalf("edit not applied: %+v", task)
	}
}

func TestTaskList_Filters(t *testing.T) {
	service, pipelines, _, _ := newTaskFixture(t)
	fund := seedPipelineFund(t, pipelines)
	ctx := context.Background()

	legal, err := service.Create(ctx, fund.ID, TaskInput{Category: "legal", Name: "LPA review"})
	if err != nil {
		t.Fatalf("create legal: %v", err)
	}
	if _, err := service.Create(ctx, fund.ID, TaskInput{Category: "tax", Name: "Fund structure review"}); err != nil {
		t.Fatalf("create tax: %v", err)
	}
	if _, err := service.Transition(ctx, legal.ID, "in_progress"); err != nil {
		t.Fatalf("transition: %v", err)
	}

	all, err := service.List(ctx, fund.ID, "", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}

	inProgress, err := service.List(ctx, fund.ID, "in_progress", "")
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].ID != legal.ID {
		t.Fatalf("status filter mismatch: %+v", inProgress)
	}

	taxOnly, err := service.List(ctx, fund.ID, "", "tax")
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(taxOnly) != 1 || taxOnly[0].Category != pipeline.CategoryTax {
		t.Fatalf("category filter mismatch: %+v", taxOnly)
	}

	if _, err := service.List(ctx, fund.ID, "archived", ""); !errors.Is(err, pipeline.ErrUnknownStatus) {
		t.Fatalf("bad status filter: %v", err)
	}
}

func TestPipelineDelete_CascadesToTasks(t *testing.T) {
	service, pipelines, tasks, _ := newTaskFixture(t)
	fund := seedPipelineFund(t, pipelines)
	ctx := context.Background()

	if _, err := service.Create(ctx, fund.ID, TaskInput{Category: "legal", Name: "LPA review"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := pipelines.Delete(ctx, fund.ID); err != nil {
		t.Fatalf("delete fund: %v", err)
	}
	stored, _ := tasks.ListByPipelineFund(ctx, fund.ID, pipeline.TaskFilter{})
	if len(stored) != 0 {
		t.Fatalf("tasks must cascade on fund delete, got %d", len(stored))
	}
}
