package cec

import "time"

// ActionTimer schedules and cancels a single pending timeout for the
// action's current query. Only one timer is ever outstanding at a time —
// arming a new one implicitly replaces whatever was armed before.
type ActionTimer interface {
	Arm(stateTag DiscoveryState, timeout time.Duration)
	Clear()
}

// hostActionTimer is the ActionTimer a real BusGateway host is expected to
// supply: a thin wrapper over a single time.Timer that calls back into the
// action's on_timer entry point on its own goroutine. Waiting is modelled
// as a state plus a pending timer, never as a blocking call inside the
// action itself.
type hostActionTimer struct {
	timer   *time.Timer
	onFired func(stateTag DiscoveryState)
}

// NewHostActionTimer returns an ActionTimer that invokes onFired from its
// own goroutine when a timeout expires. The caller is responsible for
// routing that invocation back through the host's single dispatcher
// goroutine before it reaches the DiscoveryAction — see cmd/ceccli, which
// passes simulator.Gateway.FireTimer as onFired, for a worked example.
func NewHostActionTimer(onFired func(stateTag DiscoveryState)) ActionTimer {
	return &hostActionTimer{onFired: onFired}
}

func (h *hostActionTimer) Arm(stateTag DiscoveryState, timeout time.Duration) {
	h.Clear()

	h.timer = time.AfterFunc(timeout, func() {
		h.onFired(stateTag)
	})
}

func (h *hostActionTimer) Clear() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}
