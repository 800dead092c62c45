package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pipeline "octo-backend/internal/pipeline/domain"
)

// PipelineFundInput carries the fields of a pipeline fund creation.
type PipelineFundInput struct {
	Name             string
	Manager          string
	Strategy         string
	Currency         string
	TargetCommitment decimal.Decimal
	TargetClose      time.Time
	Priority         string
}

// PipelineFundEdit carries mutable pipeline fund fields. Nil means unchanged.
type PipelineFundEdit struct {
	ReviewStatus *string
	TargetClose  *time.Time
	Priority     *string
}

// PipelineFundView is a pipeline fund with its derived progress.
type PipelineFundView struct {
	pipeline.PipelineFund
	Progress float64 `json:"progress"`
}

// PipelineService owns prospective fund cards.
type PipelineService struct {
	funds pipeline.PipelineFundRepository
	clock Clock
}

// NewPipelineService constructs a pipeline service.
func NewPipelineService(funds pipeline.PipelineFundRepository, clock Clock) (*PipelineService, error) {
	if funds == nil {
		return nil, errors.New("pipeline service: nil repo")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &PipelineService{funds: funds, clock: clock}, nil
}

// Create registers a prospective fund in under_review status.
func (s *PipelineService) Create(ctx context.Context, in PipelineFundInput) (*pipeline.PipelineFund, error) {
	if in.Name == "" {
		return nil, pipeline.ErrNameRequired
	}
	priority := in.Priority
	if priority == "" {
		priority = pipeline.PriorityMedium
	}
	if !pipeline.ValidPriority(priority) {
		return nil, errors.New("pipeline: invalid priority")
	}
	now := s.clock.Now()
	fund := &pipeline.PipelineFund{
		ID:               uuid.NewString(),
		Name:             in.Name,
		Manager:          in.Manager,
		Strategy:         in.Strategy,
		Currency:         in.Currency,
		TargetCommitment: in.TargetCommitment,
		TargetClose:      in.TargetClose,
		ReviewStatus:     pipeline.ReviewStatusUnderReview,
		Priority:         priority,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.funds.Create(ctx, fund); err != nil {
		return nil, err
	}
	return fund, nil
}

// Get returns a pipeline fund with its progress as of now.
func (s *PipelineService) Get(ctx context.Context, id string) (*PipelineFundView, error) {
	fund, err := s.funds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, pipeline.ErrPipelineFundNotFound
	}
	return &PipelineFundView{PipelineFund: *fund, Progress: fund.ProgressToClose(s.clock.Now())}, nil
}

// List returns all pipeline funds with derived progress.
func (s *PipelineService) List(ctx context.Context) ([]PipelineFundView, error) {
	funds, err := s.funds.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	views := make([]PipelineFundView, 0, len(funds))
	for _, fund := range funds {
		views = append(views, PipelineFundView{PipelineFund: fund, Progress: fund.ProgressToClose(now)})
	}
	return views, nil
}

// Update applies review status, target close and priority edits.
func (s *PipelineService) Update(ctx context.Context, id string, edit PipelineFundEdit) (*pipeline.PipelineFund, error) {
	fund, err := s.funds.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, pipeline.ErrPipelineFundNotFound
	}
	if edit.ReviewStatus != nil {
		if !pipeline.ValidReviewStatus(*edit.ReviewStatus) {
			return nil, pipeline.ErrInvalidReviewStatus
		}
		fund.ReviewStatus = *edit.ReviewStatus
	}
	if edit.TargetClose != nil {
		fund.TargetClose = *edit.TargetClose
	}
	if edit.Priority != nil {
		if !pipeline.ValidPriority(*edit.Priority) {
			return nil, errors.New("pipeline: invalid priority")
		}
		fund.Priority = *edit.Priority
	}
	fund.UpdatedAt = s.clock.Now()
	if err := s.funds.Update(ctx, fund); err != nil {
		return nil, err
	}
	return fund, nil
}

// Delete removes the pipeline fund and cascades to its tasks.
func (s *PipelineService) Delete(ctx context.Context, id string) error {
	fund, err := s.funds.Get(ctx, id)
	if err != nil {
		return err
	}
	if fund == nil {
		return pipeline.ErrPipelineFundNotFound
	}
	return s.funds.Delete(ctx, id)
}
