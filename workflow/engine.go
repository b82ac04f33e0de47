package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// State is a step of a single Run.
type State string

const (
	StateStart          State = "start"
	StateRouted         State = "routed"
	StateHandlerRunning State = "handler_running"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Transition describes one state change. Err is set on transitions to
// StateFailed.
type Transition struct {
	From   State
	To     State
	Intent Intent
	Err    error
}

// Observer receives every transition of every Run, synchronously.
type Observer func(Transition)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithObserver registers an observer for state transitions.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger.With().Str("component", "workflow_engine").Logger() }
}

// Engine routes a request to the handler of its intent and runs it to
// completion. It holds no per-request state and may be shared. There is no
// retry; callers wanting retries wrap Run or the Generator.
type Engine struct {
	classifier IntentClassifier
	handlers   map[Intent]Handler
	observers  []Observer
	logger     zerolog.Logger
}

// New creates an Engine. The handler registry must cover exactly
// AllIntents; anything else is an ErrConfiguration.
func New(classifier IntentClassifier, handlers map[Intent]Handler, opts ...EngineOption) (*Engine, error) {
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", ErrConfiguration)
	}
	if err := verifyRegistry(handlers); err != nil {
		return nil, err
	}

	registry := make(map[Intent]Handler, len(handlers))
	for intent, h := range handlers {
		registry[intent] = h
	}
	e := &Engine{
		classifier: classifier,
		handlers:   registry,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func verifyRegistry(handlers map[Intent]Handler) error {
	var problems []string
	for _, intent := range AllIntents {
		h, ok := handlers[intent]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing handler for %q", intent))
		case h == nil:
			problems = append(problems, fmt.Sprintf("nil handler for %q", intent))
		}
	}
	var unknown []string
	for intent := range handlers {
		if !intent.Valid() {
			unknown = append(unknown, fmt.Sprintf("handler for unknown intent %q", intent))
		}
	}
	sort.Strings(unknown)
	problems = append(problems, unknown...)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// Run classifies req, runs the selected handler and returns its result.
// Failures are returned as *RunError; a Result is only meaningful when the
// error is nil.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	state := StateStart
	intent := e.classifier.Classify(ctx, req.Question)
	e.transition(&state, StateRouted, intent, nil)

	handler, ok := e.handlers[intent]
	if !ok {
		return e.fail(&state, intent, fmt.Errorf("%w: no handler registered for intent %q", ErrConfiguration, intent))
	}

	e.transition(&state, StateHandlerRunning, intent, nil)
	result, err := e.invoke(ctx, handler, req)
	if err != nil {
		return e.fail(&state, intent, err)
	}

	result.Intent = intent
	e.transition(&state, StateDone, intent, nil)
	e.logger.Info().
		Str("intent", intent.String()).
		Bool("persisted", result.Persisted).
		Msg("request completed")
	return result, nil
}

// invoke runs the handler, turning a panic into an error.
func (e *Engine) invoke(ctx context.Context, h Handler, req Request) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, req)
}

func (e *Engine) fail(state *State, intent Intent, err error) (Result, error) {
	runErr := &RunError{Intent: intent, State: *state, Err: err}
	e.transition(state, StateFailed, intent, err)
	e.logger.Error().Err(err).Str("intent", intent.String()).Msg("request failed")
	return Result{}, runErr
}

func (e *Engine) transition(state *State, to State, intent Intent, err error) {
	t := Transition{From: *state, To: to, Intent: intent, Err: err}
	e.logger.Debug().
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Str("intent", intent.String()).
		Msg("transition")
	*state = to
	for _, o := range e.observers {
		o(t)
	}
}
