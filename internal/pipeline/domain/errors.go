package pipeline

import "errors"

var (
	// ErrPipelineFundNotFound is returned when the referenced pipeline fund does not exist.
	ErrPipelineFundNotFound = errors.New("pipeline: pipeline fund not found")
	// ErrTaskNotFound is returned when a task lookup misses.
	ErrTaskNotFound = errors.New("pipeline: task not found")
	// ErrInvalidAnchor is returned when a schedule anchor date cannot be parsed.
	ErrInvalidAnchor = errors.New("pipeline: invalid anchor date")
	// ErrInvalidTransition is returned for an illegal status move.
	ErrInvalidTransition = errors.New("pipeline: invalid transition")
	// ErrUnknownStatus is returned when stored text is not a task status.
	ErrUnknownStatus = errors.New("pipeline: unknown task status")
	// ErrUnknownCategory is returned when stored text is not a task category.
	ErrUnknownCategory = errors.New("pipeline: unknown task category")
	// ErrInvalidReviewStatus is returned for an unknown review status.
	ErrInvalidReviewStatus = errors.New("pipeline: invalid review status")
	// ErrInvalidCatalog is returned when a catalog file fails validation.
	ErrInvalidCatalog = errors.New("pipeline: invalid task catalog")
	// ErrNameRequired is returned when a create omits the name.
	ErrNameRequired = errors.New("pipeline: name required")
)
