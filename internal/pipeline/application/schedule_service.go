package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"octo-backend/internal/observability/metrics"
	pipeline "octo-backend/internal/pipeline/domain"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

const anchorLayout = "2006-01-02"

// ParseAnchor parses a schedule anchor date. An empty raw value means "today"
// per the given clock.
func ParseAnchor(raw string, clock Clock) (time.Time, error) {
	if raw == "" {
		now := clock.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	anchor, err := time.Parse(anchorLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", pipeline.ErrInvalidAnchor, raw)
	}
	return anchor, nil
}

// ScheduleService expands the task catalog into a dated task batch for a
// pipeline fund. Each invocation produces an independent batch; callers are
// responsible for not generating twice for the same fund.
type ScheduleService struct {
	tasks   pipeline.TaskRepository
	catalog []pipeline.TemplateEntry
	clock   Clock
}

// NewScheduleService constructs a schedule service over a validated catalog.
func NewScheduleService(tasks pipeline.TaskRepository, catalog []pipeline.TemplateEntry, clock Clock) (*ScheduleService, error) {
	if tasks == nil {
		return nil, errors.New("schedule service: nil task repo")
	}
	if err := pipeline.ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ScheduleService{tasks: tasks, catalog: catalog, clock: clock}, nil
}

// Catalog returns a copy of the catalog the service expands.
func (s *ScheduleService) Catalog() []pipeline.TemplateEntry {
	catalog := make([]pipeline.TemplateEntry, len(s.catalog))
	copy(catalog, s.catalog)
	return catalog
}

// Generate expands every catalog entry into a task anchored on the given
// date and persists the whole batch atomically. A partially applied catalog
// is never observable: the batch insert either fully commits or rolls back.
func (s *ScheduleService) Generate(ctx context.Context, pipelineFundID string, anchorRaw string) ([]pipeline.Task, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveScheduleGenerate(result, time.Since(start))
	}()

	anchor, err := ParseAnchor(anchorRaw, s.clock)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	now := s.clock.Now()
	tasks := make([]pipeline.Task, 0, len(s.catalog))
	for _, entry := range s.catalog {
		startDate := anchor.AddDate(0, 0, entry.DaysFromStart)
		tasks = append(tasks, pipeline.Task{
			ID:             uuid.NewString(),
			PipelineFundID: pipelineFundID,
			Category:       entry.Category,
			Name:           entry.Name,
			StartDate:      startDate,
			DueDate:        startDate.AddDate(0, 0, entry.DurationDays),
			Status:         pipeline.TaskTodo,
			Priority:       entry.Priority,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.tasks.CreateBatch(ctx, tasks); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return tasks, nil
}
