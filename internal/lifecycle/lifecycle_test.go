package lifecycle

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine() *Machine {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestMachine_GracefulShutdown(t *testing.T) {
	m := newMachine()
	assert.Equal(t, Starting, m.State())

	require.NoError(t, m.Serve())
	assert.Equal(t, Serving, m.State())
	assert.False(t, isClosed(m.Draining()))

	require.NoError(t, m.Signal("SIGTERM"))
	assert.Equal(t, Draining, m.State())
	assert.True(t, isClosed(m.Draining()))

	require.NoError(t, m.Stop())
	assert.Equal(t, Stopped, m.State())
	assert.Equal(t, 0, m.ExitCode())
	assert.NoError(t, m.Err())
}

func TestMachine_FatalShutdown(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.Serve())

	boom := errors.New("listen tcp :5000: address already in use")
	require.NoError(t, m.Fatal(boom))
	require.NoError(t, m.Stop())

	assert.Equal(t, 1, m.ExitCode())
	assert.ErrorIs(t, m.Err(), boom)
}

func TestMachine_FatalWhileStarting(t *testing.T) {
	m := newMachine()

	require.NoError(t, m.Fatal(errors.New("database unreachable")))
	assert.Equal(t, Draining, m.State())
	require.NoError(t, m.Stop())
	assert.Equal(t, 1, m.ExitCode())
}

func TestMachine_FatalNilError(t *testing.T) {
	m := newMachine()

	require.NoError(t, m.Fatal(nil))
	assert.Error(t, m.Err())
	assert.Equal(t, 1, m.ExitCode())
}

func TestMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
		event func(m *Machine) error
	}{
		{"StopWhileStarting", func(*Machine) {}, (*Machine).Stop},
		{"ServeTwice", func(m *Machine) { _ = m.Serve() }, (*Machine).Serve},
		{"SignalWhileDraining", func(m *Machine) { _ = m.Signal("SIGINT") }, func(m *Machine) error { return m.Signal("SIGTERM") }},
		{"FatalWhileDraining", func(m *Machine) { _ = m.Signal("SIGINT") }, func(m *Machine) error { return m.Fatal(errors.New("late")) }},
		{"ServeAfterStop", func(m *Machine) { _ = m.Signal("SIGINT"); _ = m.Stop() }, (*Machine).Serve},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine()
			tt.setup(m)
			before := m.State()

			err := tt.event(m)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, m.State())
		})
	}
}

func TestMachine_LateFatalKeepsCleanExit(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.Signal("SIGINT"))

	assert.Error(t, m.Fatal(errors.New("late")))
	assert.Equal(t, 0, m.ExitCode())
}

func TestMachine_ConcurrentSignalsDrainOnce(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.Serve())

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Signal("SIGTERM") == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, Draining, m.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "starting", Starting.String())
	assert.Equal(t, "serving", Serving.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "State(9)", State(9).String())
}
