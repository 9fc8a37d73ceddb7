package cec

import (
	"context"
	"fmt"
	"time"
)

// fakeActionTimer never actually schedules anything: tests drive timeouts
// by calling DiscoveryAction.OnTimer directly, so this fake only needs to
// record what was armed/cleared for assertions.
type fakeActionTimer struct {
	armed      bool
	armedState DiscoveryState
	armCount   int
	clearCount int
}

func (f *fakeActionTimer) Arm(stateTag DiscoveryState, _ time.Duration) {
	f.armed = true
	f.armedState = stateTag
	f.armCount++
}

func (f *fakeActionTimer) Clear() {
	f.armed = false
	f.clearCount++
}

// sentQuery records one outbound request the action asked the gateway to
// send.
type sentQuery struct {
	target LogicalAddress
	opcode Opcode
}

// fakeBusGateway is a scriptable BusGateway. PollAck is delivered
// synchronously from PollDevices, matching how a real bus's polling sweep
// would report back before the caller's next statement runs in a
// single-threaded host loop used purely for testing.
type fakeBusGateway struct {
	PollAck []LogicalAddress
	PollErr error

	Sent []sentQuery

	// onSend, if set, is invoked for every Send call; a nil return means
	// "accepted, no immediate error" (a reply, if any, must be delivered
	// separately by the test calling action.OnCommand).
	onSend func(target LogicalAddress, opcode Opcode) error
}

func (f *fakeBusGateway) PollDevices(_ context.Context, cb PollCallback, _ PollFlags, _ int) error {
	if f.PollErr != nil {
		return f.PollErr
	}
	cb(f.PollAck)
	return nil
}

func (f *fakeBusGateway) Send(_ context.Context, target LogicalAddress, opcode Opcode) error {
	f.Sent = append(f.Sent, sentQuery{target: target, opcode: opcode})
	if f.onSend != nil {
		return f.onSend(target, opcode)
	}
	return nil
}

// fakeLocalDevice records every call the response handlers make into it,
// for TV/audio-system specific assertions.
type fakeLocalDevice struct {
	kind LocalDeviceKind

	portFor map[PhysicalAddress]PortId

	switches []cecSwitch
	flushed  int
}

type cecSwitch struct {
	logical    LogicalAddress
	deviceType DeviceType
	physical   PhysicalAddress
}

func newFakeLocalDevice(kind LocalDeviceKind) *fakeLocalDevice {
	return &fakeLocalDevice{kind: kind, portFor: map[PhysicalAddress]PortId{}}
}

func (f *fakeLocalDevice) Kind() LocalDeviceKind { return f.kind }

func (f *fakeLocalDevice) PortIdOf(physical PhysicalAddress) PortId {
	if f.kind == LocalDeviceOther {
		return InvalidPortId
	}
	if port, found := f.portFor[physical]; found {
		return port
	}
	return InvalidPortId
}

func (f *fakeLocalDevice) NotifyCecSwitch(logical LogicalAddress, deviceType DeviceType, physical PhysicalAddress) {
	if f.kind != LocalDeviceTv {
		return
	}
	f.switches = append(f.switches, cecSwitch{logical: logical, deviceType: deviceType, physical: physical})
}

func (f *fakeLocalDevice) FlushDelayedMessages() {
	if f.kind != LocalDeviceTv {
		return
	}
	f.flushed++
}

func mustDeviceInfo(list []DeviceInfo, logical LogicalAddress) (DeviceInfo, error) {
	for _, d := range list {
		if d.LogicalAddress == logical {
			return d, nil
		}
	}
	return DeviceInfo{}, fmt.Errorf("no device with logical address %d in result", logical)
}
