package monitor

// Phase is the top-level state of a booking monitor.
type Phase int

// Monitor phases, in lifecycle order. AlertPending is not a phase: it is a
// flag within PhaseCountingDown.
const (
	PhaseCreated Phase = iota
	PhaseAwaitingWindow
	PhaseActiveMonitoring
	PhaseCountingDown
	PhaseReleasing
	PhaseStopped
)

// String returns the snake_case phase name used in logs and the status API.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseAwaitingWindow:
		return "awaiting_window"
	case PhaseActiveMonitoring:
		return "active"
	case PhaseCountingDown:
		return "counting_down"
	case PhaseReleasing:
		return "releasing"
	case PhaseStopped:
		return "stopped"
	}
	return "unknown"
}

// StopReason records why a monitor reached PhaseStopped.
type StopReason string

// Stop reasons.
const (
	ReasonBookingEnded StopReason = "booking_ended"
	ReasonWindowClosed StopReason = "window_closed"
	ReasonReleased     StopReason = "released"
	ReasonNotMonitored StopReason = "not_monitored"
	ReasonShutdown     StopReason = "shutdown"
)
