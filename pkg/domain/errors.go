package domain

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable is returned when the engine process is missing, has exited,
// or its streams are broken.
var ErrEngineUnavailable = errors.New("engine unavailable")

// ErrEngineTimeout marks a request that did not complete within its time budget.
// Sessions report timeouts through RawReply.TimedOut; this error is used where a
// reply value cannot carry the condition (e.g. startup).
var ErrEngineTimeout = errors.New("engine timeout")

// ErrEngineLocked is returned when another live session already owns the engine.
var ErrEngineLocked = errors.New("engine already in use")

// EngineError wraps a failure with the operation that caused it.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Unavailable builds an EngineError that matches ErrEngineUnavailable.
func Unavailable(op string, cause error) error {
	if cause == nil {
		return &EngineError{Op: op, Err: ErrEngineUnavailable}
	}
	return &EngineError{Op: op, Err: fmt.Errorf("%w: %w", ErrEngineUnavailable, cause)}
}
