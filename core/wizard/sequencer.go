// Package wizard drives multi-step workflows: each step runs an action and only
// moves forward when the action succeeds.
package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/attendance/core"
)

// Well-known steps of the upload workflows.
const (
	StepSelecting  = 0
	StepPreviewing = 1 // also Confirming: same step, the action differs
	StepCompleted  = 2
)

var (
	ErrBusy     = errors.New("a step is already in progress")
	ErrDisabled = errors.New("nothing to submit")
	ErrNoSteps  = errors.New("wizard has no steps")
	ErrLocked   = errors.New("files can only be changed before they are uploaded")
)

// Action runs a step. A nil error means success.
type Action func(ctx context.Context) error

type Step struct {
	Label  string
	Action Action
}

// Notifier receives the outcome of failed steps.
type Notifier interface {
	Error(msg string)
}

type Option func(*Sequencer)

// WithNotifier surfaces failed steps as error notifications.
func WithNotifier(n Notifier) Option {
	return func(s *Sequencer) { s.notifier = n }
}

// WithEnabled derives whether the advance control is enabled.
func WithEnabled(enabled func() bool) Option {
	return func(s *Sequencer) { s.enabled = enabled }
}

// WithReset is run when the last step succeeds, before wrapping around to the first step,
// and on Restart.
func WithReset(reset func()) Option {
	return func(s *Sequencer) { s.reset = reset }
}

// WithActionTimeout bounds every action.
func WithActionTimeout(d time.Duration) Option {
	return func(s *Sequencer) { s.timeout = d }
}

// Sequencer holds the current step of a workflow.
type Sequencer struct {
	steps    []Step
	notifier Notifier
	enabled  func() bool
	reset    func()
	timeout  time.Duration

	mu      sync.Mutex
	current int
	busy    bool
}

func New(steps []Step, opts ...Option) *Sequencer {
	s := &Sequencer{steps: steps}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequencer) last() int { return len(s.steps) - 1 }

// Advance runs the current step's action.
// On success the sequencer moves to the next step, or wraps around to the first one
// (after the reset hook) when the last step succeeds. On failure it stays put.
func (s *Sequencer) Advance(ctx context.Context) (int, error) {
	if len(s.steps) == 0 {
		return 0, ErrNoSteps
	}
	if !s.Enabled() {
		return s.Current(), ErrDisabled
	}

	s.mu.Lock()
	if s.busy {
		curr := s.current
		s.mu.Unlock()
		return curr, ErrBusy
	}
	s.busy = true
	step := s.current
	s.mu.Unlock()

	err := s.run(ctx, s.steps[step].Action)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if err != nil {
		if s.notifier != nil {
			s.notifier.Error(core.ErrorMessage(err, core.GenericErrorMessage))
		}
		return s.current, errors.Wrapf(err, "step %q", s.steps[step].Label)
	}

	if step == s.last() {
		if s.reset != nil {
			s.reset()
		}
		s.current = 0
	} else {
		s.current = step + 1
	}
	return s.current, nil
}

func (s *Sequencer) run(ctx context.Context, action Action) error {
	if action == nil {
		return nil
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return action(ctx)
}

// Retreat goes back one step, never below the first. It has no other side effect.
func (s *Sequencer) Retreat() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.current
	}
	if s.current > 0 {
		s.current--
	}
	return s.current
}

// Restart runs the reset hook and goes back to the first step without running any action.
// It fails with ErrBusy while an action is in flight.
func (s *Sequencer) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	if s.reset != nil {
		s.reset()
	}
	s.current = 0
	return nil
}

func (s *Sequencer) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Sequencer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Enabled reports whether the advance control is enabled. It is derived, never stored.
func (s *Sequencer) Enabled() bool {
	return s.enabled == nil || s.enabled()
}

func (s *Sequencer) Label() string {
	curr := s.Current()
	if curr >= len(s.steps) {
		return ""
	}
	return s.steps[curr].Label
}

func (s *Sequencer) Labels() []string {
	labels := make([]string, 0, len(s.steps))
	for _, step := range s.steps {
		labels = append(labels, step.Label)
	}
	return labels
}

func (s *Sequencer) Len() int { return len(s.steps) }
