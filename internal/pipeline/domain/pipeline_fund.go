package pipeline

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReviewStatusUnderReview  = "under_review"
	ReviewStatusDueDiligence = "due_diligence"
	ReviewStatusApproved     = "approved"
	ReviewStatusRejected     = "rejected"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PipelineFund is a prospective fund investment under evaluation.
type PipelineFund struct {
	ID               string
	Name             string
	Manager          string
	Strategy         string
	Currency         string
	TargetCommitment decimal.Decimal
	TargetClose      time.Time
	ReviewStatus     string
	Priority         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ValidReviewStatus reports whether s is a known review status.
func ValidReviewStatus(s string) bool {
	switch s {
	case ReviewStatusUnderReview, ReviewStatusDueDiligence, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// ValidPriority reports whether s is a known priority.
func ValidPriority(s string) bool {
	switch s {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ProgressToClose returns elapsed time over the creation-to-target-close
// window as a fraction clamped to [0,1]. Derived at read time, never stored.
func (p PipelineFund) ProgressToClose(now time.Time) float64 {
	if p.TargetClose.IsZero() || !p.TargetClose.After(p.CreatedAt) {
		if now.Before(p.CreatedAt) {
			return 0
		}
		return 1
	}
	elapsed := now.Sub(p.CreatedAt)
	total := p.TargetClose.Sub(p.CreatedAt)
	progress := float64(elapsed) / float64(total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
