package daemon

import "time"

// Startup polling parameters. A freshly spawned daemon binds its socket
// before building the index, so the socket appearing means the process is
// alive; the settle delay gives it a moment to reach the accept loop.
const (
	startTimeout = 2 * time.Second
	pollInterval = 50 * time.Millisecond
	settleDelay  = 100 * time.Millisecond
)

// StartupState tracks a daemon being brought up, as observed from outside.
type StartupState int

const (
	// StartupNotRunning means no socket exists yet.
	StartupNotRunning StartupState = iota
	// StartupStarting means the socket exists but no probe has succeeded.
	StartupStarting
	// StartupResponsive means a status probe answered.
	StartupResponsive
)

func (s StartupState) String() string {
	switch s {
	case StartupNotRunning:
		return "not-running"
	case StartupStarting:
		return "starting"
	case StartupResponsive:
		return "responsive"
	}
	return "unknown"
}

// NextStartupState advances the observed state from one poll. The socket
// vanishing mid-start means the process died and we are back to not running;
// a responsive daemon stays responsive for the life of the observation.
func NextStartupState(cur StartupState, socketExists, probeOK bool) StartupState {
	switch cur {
	case StartupNotRunning:
		if socketExists {
			if probeOK {
				return StartupResponsive
			}
			return StartupStarting
		}
	case StartupStarting:
		if probeOK {
			return StartupResponsive
		}
		if !socketExists {
			return StartupNotRunning
		}
	case StartupResponsive:
		return StartupResponsive
	}
	return cur
}

// pollAction is the decision taken after one socket-existence check while
// waiting for a spawned daemon.
type pollAction int

const (
	pollWait pollAction = iota
	pollSettle
	pollGiveUp
)

// nextPollAction keeps waiting until the socket appears or the deadline
// passes.
func nextPollAction(elapsed, timeout time.Duration, socketExists bool) pollAction {
	if socketExists {
		return pollSettle
	}
	if elapsed >= timeout {
		return pollGiveUp
	}
	return pollWait
}
