package entities

import "errors"

// Structural errors of a subject's topic graph. They are never retried.
var (
	ErrCycleDetected     = errors.New("dependency cycle detected")
	ErrDanglingReference = errors.New("dependency references unknown topic")
	ErrDuplicateTopic    = errors.New("duplicate topic id")
	ErrInvalidTopic      = errors.New("invalid topic")
	ErrInvalidGrade      = errors.New("invalid grade")
	ErrInvalidStatus     = errors.New("invalid progress status")
	ErrTopicLocked       = errors.New("topic is locked by incomplete prerequisites")
	ErrNotFound          = errors.New("not found")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrVersionConflict   = errors.New("version conflict")
)
