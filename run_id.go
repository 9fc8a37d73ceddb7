package cec

import "github.com/google/uuid"

// RunID correlates every log line, WebSocket event, and HTTP status entry
// belonging to one start()-to-on_discovery_done span. It is not part of the
// CEC protocol and never appears in a DeviceInfo.
type RunID uuid.UUID

func newRunID() RunID {
	return RunID(uuid.New())
}

func (r RunID) String() string {
	return uuid.UUID(r).String()
}
