package application

import (
	"context"
	"errors"
	"testing"
	"time"

	pipeline "octo-backend/internal/pipeline/domain"
	"octo-backend/internal/pipeline/infrastructure/memory"
)

func newPipelineFixture(t *testing.T) (*PipelineService, fixedClock) {
	t.Helper()
	clock := fixedClock{now: time.Date(2026, time.February, 2, 9, 0, 0, 0, time.UTC)}
	funds := memory.NewPipelineFundRepository(memory.NewTaskRepository())
	service, err := NewPipelineService(funds, clock)
	if err != nil {
		t.Fatalf("pipeline service: %v", err)
	}
	return service, clock
}

func TestPipelineCreate_Defaults(t *testing.T) {
	service, _ := newPipelineFixture(t)

	fund, err := service.Create(context.Background(), PipelineFundInput{Name: "Buyout Fund II"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if fund.ReviewStatus != pipeline.ReviewStatusUnderReview {
		t.Fatalf("new fund status %s, want under_review", fund.ReviewStatus)
	}
	if fund.Priority != pipeline.PriorityMedium {
		t.Fatalf("default priority %s, want medium", fund.Priority)
	}

	if _, err := service.Create(context.Background(), PipelineFundInput{}); !errors.Is(err, pipeline.ErrNameRequired) {
		t.Fatalf("missing name: %v", err)
	}
}

func TestPipelineGet_DerivesProgress(t *testing.T) {
	service, clock := newPipelineFixture(t)

	fund, err := service.Create(context.Background(), PipelineFundInput{
		Name:        "Credit Fund I",
		TargetClose: clock.now.AddDate(0, 0, 100),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	view, err := service.Get(context.Background(), fund.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Progress != 0 {
		t.Fatalf("progress at creation: %v", view.Progress)
	}
}

func TestPipelineUpdate(t *testing.T) {
	service, clock := newPipelineFixture(t)
	ctx := context.Background()

	fund, err := service.Create(ctx, PipelineFundInput{Name: "Secondaries III"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status := pipeline.ReviewStatusDueDiligence
	closeDate := clock.now.AddDate(0, 2, 0)
	updated, err := service.Update(ctx, fund.ID, PipelineFundEdit{ReviewStatus: &status, TargetClose: &closeDate})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ReviewStatus != status || !updated.TargetClose.Equal(closeDate) {
		t.Fatalf("update not applied: %+v", updated)
	}

	bad := "shortlisted"
	if _, err := service.Update(ctx, fund.ID, PipelineFundEdit{ReviewStatus: &bad}); !errors.Is(err, pipeline.ErrInvalidReviewStatus) {
		t.Fatalf("bad review status: %v", err)
	}
	if _, err := service.Update(ctx, "missing", PipelineFundEdit{}); !errors.Is(err, pipeline.ErrPipelineFundNotFound) {
		t.Fatalf("unknown fund: %v", err)
	}
}
