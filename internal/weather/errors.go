package weather

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is against any error returned by this package.
var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrUpstreamShapeMismatch = errors.New("upstream shape mismatch")
	ErrUnexpectedFailure     = errors.New("unexpected failure")
)

// Stage names the outbound call an upstream error belongs to.
type Stage string

const (
	StagePoints   Stage = "points"
	StageForecast Stage = "forecast"
	StageHourly   Stage = "hourly"
)

// Error is the typed failure surfaced to callers. Status is the upstream HTTP
// status for UpstreamUnavailable, zero otherwise.
type Error struct {
	Kind    error
	Stage   Stage
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is matches the error's kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unavailable builds an UpstreamUnavailable error for a stage.
func Unavailable(stage Stage, status int, err error) *Error {
	return &Error{
		Kind:    ErrUpstreamUnavailable,
		Stage:   stage,
		Status:  status,
		Message: string(stage) + " failed",
		Err:     err,
	}
}

// Unexpected wraps any other failure (transport, decoding) for a stage.
func Unexpected(stage Stage, err error) *Error {
	return &Error{Kind: ErrUnexpectedFailure, Stage: stage, Err: err}
}

// AsError extracts an *Error, classifying anything else as UnexpectedFailure.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: ErrUnexpectedFailure, Err: err}
}
