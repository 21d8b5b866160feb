package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStartupState(t *testing.T) {
	tests := []struct {
		name         string
		cur          StartupState
		socketExists bool
		probeOK      bool
		want         StartupState
	}{
		{"no socket stays not running", StartupNotRunning, false, false, StartupNotRunning},
		{"socket appears", StartupNotRunning, true, false, StartupStarting},
		{"socket and probe at once", StartupNotRunning, true, true, StartupResponsive},
		{"starting waits for probe", StartupStarting, true, false, StartupStarting},
		{"probe succeeds", StartupStarting, true, true, StartupResponsive},
		{"socket vanishes mid start", StartupStarting, false, false, StartupNotRunning},
		{"responsive is terminal", StartupResponsive, false, false, StartupResponsive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextStartupState(tt.cur, tt.socketExists, tt.probeOK)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStartupSequence(t *testing.T) {
	// A normal launch as a sequence of polls.
	state := StartupNotRunning
	state = NextStartupState(state, false, false)
	assert.Equal(t, StartupNotRunning, state)
	state = NextStartupState(state, true, false)
	assert.Equal(t, StartupStarting, state)
	state = NextStartupState(state, true, false)
	assert.Equal(t, StartupStarting, state)
	state = NextStartupState(state, true, true)
	assert.Equal(t, StartupResponsive, state)
}

func TestNextPollAction(t *testing.T) {
	tests := []struct {
		name         string
		elapsed      time.Duration
		socketExists bool
		want         pollAction
	}{
		{"keep waiting", 100 * time.Millisecond, false, pollWait},
		{"socket up", 100 * time.Millisecond, true, pollSettle},
		{"socket up at deadline", startTimeout, true, pollSettle},
		{"deadline passed", startTimeout, false, pollGiveUp},
		{"well past deadline", 10 * time.Second, false, pollGiveUp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextPollAction(tt.elapsed, startTimeout, tt.socketExists)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "serving", StateServing.String())
	assert.Equal(t, "shutting-down", StateShuttingDown.String())
	assert.Equal(t, "not-running", StartupNotRunning.String())
	assert.Equal(t, "responsive", StartupResponsive.String())
}
