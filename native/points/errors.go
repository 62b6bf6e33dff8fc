package points

import "errors"

var (
	ErrNilState        = errors.New("points: state not configured")
	ErrUnauthorized    = errors.New("points: unauthorized")
	ErrProgramNotFound = errors.New("points: program not found")
	ErrInvalidProgram  = errors.New("points: invalid program")
	ErrInvalidAmount   = errors.New("points: amount must be positive")
	ErrCapExceeded     = errors.New("points: spend cap exceeded")
)
