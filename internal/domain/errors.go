package domain

import "errors"

var (
	ErrInvalidIdea   = errors.New("idea is required")
	ErrRunInProgress = errors.New("generation already running")
	ErrStoryboard    = errors.New("could not generate scene descriptions")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrNotFound      = errors.New("not found")
)
