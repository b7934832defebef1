package netcheck

// Status is the connectivity state carried between polling cycles.
type Status int

const (
	// StatusUnknown is the state before the first probe. A first-ever Up
	// observation is not a recovery and must not trigger a reset.
	StatusUnknown Status = iota
	StatusDown
	StatusUp
)

func (s Status) String() string {
	switch s {
	case StatusDown:
		return "down"
	case StatusUp:
		return "up"
	default:
		return "unknown"
	}
}

// Monitor tracks connectivity across cycles and detects recovery edges.
// It is driven from a single goroutine and needs no locking.
type Monitor struct {
	status Status
}

func NewMonitor() *Monitor {
	return &Monitor{status: StatusUnknown}
}

// Status returns the current connectivity state.
func (m *Monitor) Status() Status {
	return m.status
}

// Observe records one probe result and reports whether this observation is a
// recovery, meaning the state moved from Down to Up. Unknown to Up is a first
// observation, not a recovery.
func (m *Monitor) Observe(up bool) bool {
	prev := m.status
	if up {
		m.status = StatusUp
	} else {
		m.status = StatusDown
	}
	return prev == StatusDown && m.status == StatusUp
}
