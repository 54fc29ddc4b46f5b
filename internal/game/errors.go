package game

import "errors"

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrEmptyChart        = errors.New("chart has no notes")
	ErrUnsortedChart     = errors.New("chart times must be non-negative and ascending")
	ErrLocked            = errors.New("difficulty is locked")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrNotFound          = errors.New("not found")
)
