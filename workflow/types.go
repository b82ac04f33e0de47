package workflow

import (
	"errors"
	"fmt"
)

// Request is one study-assistant invocation.
type Request struct {
	Question string
	// UserAnswer is only read by the evaluate intent and may be empty.
	UserAnswer string
}

// Result is the outcome of a successful invocation. Answer is set for the
// explain and generate-question intents, Evaluation for evaluate.
type Result struct {
	Intent     Intent
	Answer     string
	Evaluation string
	// Persisted is false when the exchange could not be written to memory.
	Persisted bool
}

// Text returns whichever of Answer or Evaluation the intent populates.
func (r Result) Text() string {
	if r.Intent == IntentEvaluate {
		return r.Evaluation
	}
	return r.Answer
}

var (
	// ErrConfiguration marks a handler registry that does not match AllIntents.
	ErrConfiguration = errors.New("workflow configuration error")
	// ErrGeneration marks a failed model call inside a handler.
	ErrGeneration = errors.New("generation failed")
)

// RunError is returned by Engine.Run for a failed invocation.
type RunError struct {
	Intent Intent
	// State is the state the engine was in when the failure occurred.
	State State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("workflow %s failed in %s: %v", e.Intent, e.State, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
