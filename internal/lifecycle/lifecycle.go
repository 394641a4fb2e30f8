// Package lifecycle tracks the server process through its states:
//
//	starting ──Serve──▶ serving ──Signal/Fatal──▶ draining ──Stop──▶ stopped
//	    └──────────Signal/Fatal──────────────────────▲
//
// A Signal drains and exits with code 0. A Fatal error drains and exits
// with code 1. Any other transition is rejected with ErrInvalidTransition.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type State int

const (
	Starting State = iota
	Serving
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Serving:
		return "serving"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// Machine is safe for concurrent use.
type Machine struct {
	mu       sync.Mutex
	state    State
	cause    error
	draining chan struct{}
	logger   *slog.Logger
}

func New(logger *slog.Logger) *Machine {
	return &Machine{
		state:    Starting,
		draining: make(chan struct{}),
		logger:   logger,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Draining is closed once the machine leaves starting or serving towards
// draining.
func (m *Machine) Draining() <-chan struct{} {
	return m.draining
}

// Serve marks the server as accepting requests.
func (m *Machine) Serve() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Starting {
		return m.reject("serve")
	}
	m.move(Serving)
	return nil
}

// Signal starts a graceful drain after an OS signal.
func (m *Machine) Signal(reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Starting && m.state != Serving {
		return m.reject("signal")
	}
	m.logger.Info("shutdown requested", slog.String("reason", reason))
	m.drain()
	return nil
}

// Fatal starts a drain after an unrecoverable error. The process exits
// with a non-zero code once stopped.
func (m *Machine) Fatal(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Starting && m.state != Serving {
		return m.reject("fatal")
	}
	if err == nil {
		err = errors.New("unknown fatal error")
	}
	m.logger.Error("fatal error, shutting down", slog.String("error", err.Error()))
	m.cause = err
	m.drain()
	return nil
}

// Stop marks the drain as finished.
func (m *Machine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Draining {
		return m.reject("stop")
	}
	m.move(Stopped)
	return nil
}

// Err returns the error passed to Fatal, if any.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cause
}

// ExitCode is the process exit code for the way the machine stopped.
func (m *Machine) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cause != nil {
		return 1
	}
	return 0
}

func (m *Machine) drain() {
	m.move(Draining)
	close(m.draining)
}

func (m *Machine) move(to State) {
	m.logger.Debug("lifecycle transition",
		slog.String("from", m.state.String()),
		slog.String("to", to.String()),
	)
	m.state = to
}

func (m *Machine) reject(event string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, m.state)
}
