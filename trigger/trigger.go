// Package trigger decides when a document is linted again after it was
// opened.
package trigger

import (
	"fmt"
	"sync"
	"time"

	"github.com/corymhall/selenelsp/lsp"
)

// Kind is the value of the "run" setting.
type Kind string

const (
	OnSave    Kind = "onSave"
	OnType    Kind = "onType"
	OnNewLine Kind = "onNewLine"
	OnIdle    Kind = "onIdle"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case OnSave, OnType, OnNewLine, OnIdle:
		return k, nil
	}
	return "", fmt.Errorf("unknown run trigger %q", s)
}

type Policy struct {
	Kind Kind
	// IdleDelay is only used by OnIdle.
	IdleDelay time.Duration
}

type State int

const (
	Idle State = iota
	Subscribed
)

type TimerState int

const (
	TimerIdle TimerState = iota
	TimerArmed
)

// Timer is the part of *time.Timer the scheduler uses.
type Timer interface {
	Stop() bool
}

// AfterFunc arms f to run after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

type Option func(*Scheduler)

// WithAfterFunc replaces the clock used for OnIdle debouncing.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) { s.afterFunc = fn }
}

// Scheduler turns editor events into lint runs according to the current
// Policy. The policy is process wide: there is one subscription and, for
// OnIdle, at most one armed timer across all documents.
type Scheduler struct {
	run       func(uri lsp.DocumentURI)
	afterFunc AfterFunc

	mu     sync.Mutex
	state  State
	policy Policy
	timer  Timer
	// gen is bumped whenever the armed timer is replaced or cancelled, so a
	// callback that fires after losing that race does nothing.
	gen uint64
}

// New returns an Idle scheduler. run is called without locks held and
// should not block.
func New(run func(uri lsp.DocumentURI), opts ...Option) *Scheduler {
	s := &Scheduler{
		run: run,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure drops the current subscription, including any armed timer, and
// subscribes with p.
func (s *Scheduler) Configure(p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.state = Subscribed
	s.policy = p
}

// Stop returns the scheduler to Idle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.state = Idle
}

func (s *Scheduler) State() (State, TimerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		return s.state, TimerArmed
	}
	return s.state, TimerIdle
}

func (s *Scheduler) Policy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// Saved handles textDocument/didSave.
func (s *Scheduler) Saved(uri lsp.DocumentURI) {
	s.mu.Lock()
	fire := s.state == Subscribed && s.policy.Kind == OnSave
	s.mu.Unlock()
	if fire {
		s.run(uri)
	}
}

// Changed handles textDocument/didChange.
func (s *Scheduler) Changed(uri lsp.DocumentURI, changes []lsp.TextDocumentContentChangeEvent) {
	s.mu.Lock()
	if s.state != Subscribed {
		s.mu.Unlock()
		return
	}
	var fire bool
	switch s.policy.Kind {
	case OnType:
		fire = true
	case OnNewLine:
		fire = startsNewLine(changes)
	case OnIdle:
		s.armLocked(uri)
	}
	s.mu.Unlock()

	if fire {
		s.run(uri)
	}
}

func (s *Scheduler) armLocked(uri lsp.DocumentURI) {
	s.cancelTimerLocked()
	gen := s.gen
	s.timer = s.afterFunc(s.policy.IdleDelay, func() { s.fire(gen, uri) })
}

func (s *Scheduler) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Scheduler) fire(gen uint64, uri lsp.DocumentURI) {
	s.mu.Lock()
	if gen != s.gen || s.state != Subscribed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.gen++
	s.mu.Unlock()
	s.run(uri)
}

// startsNewLine reports whether any edit spans several lines or inserts a
// bare line break. A change without a range replaces the whole document and
// counts as spanning lines.
func startsNewLine(changes []lsp.TextDocumentContentChangeEvent) bool {
	for _, c := range changes {
		if c.Range == nil || c.Range.Start.Line != c.Range.End.Line {
			return true
		}
		if c.Text == "\n" || c.Text == "\r\n" {
			return true
		}
	}
	return false
}
