// Package flow drives multi-step conversations: one active flow per user,
// a step index and the values collected so far.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Kind names a registered flow
type Kind string

var (
	ErrNoActiveFlow = errors.New("no active flow")
	ErrUnknownFlow  = errors.New("unknown flow")
)

// ValidationError rejects a step input; Message is sent back as the re-prompt
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid returns a ValidationError with the given message
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// Input is one inbound message as seen by a flow step
type Input struct {
	Text      string
	FileID    string
	ChatID    int64
	MessageID int
}

// ParseFunc turns step input into the value stored under the step field
type ParseFunc func(in Input) (any, error)

// Step is one question of a flow
type Step struct {
	Field  string
	Prompt string
	Parse  ParseFunc // nil means non-empty text
}

// CompleteFunc runs once after the last step; the returned text is the final reply
type CompleteFunc func(ctx context.Context, userID int64, data Data) (string, error)

// Flow is an ordered list of steps and a completion action
type Flow struct {
	Kind     Kind
	Steps    []Step
	Complete CompleteFunc
}

// State is a user's position in a flow
type State struct {
	Kind Kind
	Step int
	Data Data
}

// Reply is what the bot should answer after a submitted input
type Reply struct {
	Text    string
	Invalid bool // input rejected, step unchanged
	Done    bool // flow finished and state removed
}

// Engine keeps conversation state for every user in memory
type Engine struct {
	mu     sync.Mutex
	flows  map[Kind]Flow
	states map[int64]*State
}

func NewEngine() *Engine {
	return &Engine{
		flows:  make(map[Kind]Flow),
		states: make(map[int64]*State),
	}
}

// Register adds or replaces a flow definition
func (e *Engine) Register(f Flow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flows[f.Kind] = f
}

// Start resets the user's state to the first step of kind and returns its prompt
func (e *Engine) Start(userID int64, kind Kind) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, ok := e.flows[kind]
	if !ok || len(f.Steps) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownFlow, kind)
	}

	e.states[userID] = &State{Kind: kind, Step: 0, Data: make(Data)}
	return f.Steps[0].Prompt, nil
}

// Submit feeds one input to the user's active flow
func (e *Engine) Submit(ctx context.Context, userID int64, in Input) (Reply, error) {
	e.mu.Lock()

	state, ok := e.states[userID]
	if !ok {
		e.mu.Unlock()
		return Reply{}, ErrNoActiveFlow
	}
	f := e.flows[state.Kind]
	step := f.Steps[state.Step]

	parse := step.Parse
	if parse == nil {
		parse = Text("")
	}
	value, err := parse(in)
	if err != nil {
		e.mu.Unlock()
		var verr *ValidationError
		if errors.As(err, &verr) {
			msg := verr.Message
			if msg == "" {
				msg = step.Prompt
			}
			return Reply{Text: msg, Invalid: true}, nil
		}
		return Reply{}, err
	}

	state.Data[step.Field] = value
	state.Step++

	if state.Step < len(f.Steps) {
		prompt := f.Steps[state.Step].Prompt
		e.mu.Unlock()
		return Reply{Text: prompt}, nil
	}

	// last step: drop the state before running completion
	delete(e.states, userID)
	data := state.Data
	e.mu.Unlock()

	if f.Complete == nil {
		return Reply{Done: true}, nil
	}
	text, err := f.Complete(ctx, userID, data)
	if err != nil {
		return Reply{Done: true}, fmt.Errorf("failed to complete %s flow: %w", f.Kind, err)
	}
	return Reply{Text: text, Done: true}, nil
}

// Cancel drops the user's state; it reports whether a flow was active
func (e *Engine) Cancel(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.states[userID]
	delete(e.states, userID)
	return ok
}

// Active returns a copy of the user's state
func (e *Engine) Active(userID int64) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.states[userID]
	if !ok {
		return State{}, false
	}
	return State{Kind: state.Kind, Step: state.Step, Data: state.Data.clone()}, true
}
