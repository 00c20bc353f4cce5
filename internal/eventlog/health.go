package eventlog

import "sync/atomic"

// healthState tracks whether the backend is presumed reachable. Degradation
// suppresses further remote enqueue attempts; recovery happens only through
// a successful delivery (an explicit flush) or logger reconstruction. There
// is no background retry back to healthy.
type healthState struct {
	degraded atomic.Bool
}

func (h *healthState) healthy() bool {
	return !h.degraded.Load()
}

// markDegraded reports true when this call performed the transition.
func (h *healthState) markDegraded() bool {
	return h.degraded.CompareAndSwap(false, true)
}

// markHealthy reports true when this call performed the transition.
func (h *healthState) markHealthy() bool {
	return h.degraded.CompareAndSwap(true, false)
}
