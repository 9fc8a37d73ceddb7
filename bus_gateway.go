package cec

import "context"

// PollFlags is a bitset of options for a bus polling sweep.
type PollFlags uint8

const (
	PollReverseOrder PollFlags = 1 << iota
	PollRemotesOnly
)

// PollCallback receives the ordered list of logical addresses that
// acknowledged a polling sweep. Delivered asynchronously by the BusGateway,
// via DiscoveryAction.OnPollComplete.
type PollCallback func(acked []LogicalAddress)

// BusGateway is the external transport collaborator: it sends CEC frames,
// performs the polling sweep, and delivers asynchronous inbound frames and
// timer ticks to the action. Its own retry/backoff behaviour for the poll
// sweep and for individual sends is out of scope here — the byte layout and
// bus arbitration belong to the transport driver, not to the Discovery
// action.
type BusGateway interface {
	// PollDevices requests a bus-level polling sweep with the given flags
	// and poll-retry budget, invoking cb exactly once with the acked
	// logical addresses (possibly empty).
	PollDevices(ctx context.Context, cb PollCallback, flags PollFlags, retries int) error

	// Send transmits a request with the given opcode from the local
	// device to target. The Discovery action never builds a raw frame
	// itself — the three query opcodes it sends carry no parameters, so
	// naming the opcode is enough for the host's own message-builder to
	// do the rest.
	Send(ctx context.Context, target LogicalAddress, opcode Opcode) error
}

// LocalDeviceKind tags which capability set the enclosing local device has.
// A tagged variant, rather than a pair of independent booleans, so that
// invalid combinations (e.g. both TV and audio-system behaviour) cannot be
// represented.
type LocalDeviceKind int

const (
	LocalDeviceOther LocalDeviceKind = iota
	LocalDeviceTv
	LocalDeviceAudioSystem
)

// LocalDevice is the capability set of the device hosting the Discovery
// action. Every method is safe to call regardless of Kind: the Other
// variant returns INVALID_PORT_ID and no-ops the side effects, so callers
// never need to switch on Kind themselves.
type LocalDevice interface {
	Kind() LocalDeviceKind

	// PortIdOf resolves a physical address to a local port, or
	// INVALID_PORT_ID if this local device cannot do so.
	PortIdOf(physical PhysicalAddress) PortId

	// NotifyCecSwitch is invoked once a device's physical address stage
	// completes, so a TV variant can update its own switch-routing
	// bookkeeping. A no-op on the Other and AudioSystem variants.
	NotifyCecSwitch(logical LogicalAddress, deviceType DeviceType, physical PhysicalAddress)

	// FlushDelayedMessages is invoked at wrap-up so a TV variant can
	// release messages it deferred while discovery was in flight. A no-op
	// on the Other and AudioSystem variants.
	FlushDelayedMessages()
}
