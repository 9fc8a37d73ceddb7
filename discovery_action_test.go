package cec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestAction(t *testing.T, gw *fakeBusGateway, ld LocalDevice) (*DiscoveryAction, *fakeActionTimer, *[]DeviceInfo) {
	t.Helper()

	timer := &fakeActionTimer{}
	var result []DeviceInfo
	done := false

	action := NewDiscoveryAction(DiscoveryActionDeps{
		Gateway:     gw,
		LocalDevice: ld,
		Timer:       timer,
		OnDiscoveryDone: func(list []DeviceInfo) {
			assert.False(t, done, "on_discovery_done invoked more than once")
			done = true
			result = list
		},
	})

	return action, timer, &result
}

func TestDiscoveryAction_EmptyBus(t *testing.T) {
	gw := &fakeBusGateway{PollAck: nil}
	action, timer, result := newTestAction(t, gw, nil)

	accepted, err := action.Start(context.Background())
	assert.NoError(t, err)
	assert.True(t, accepted)

	assert.Equal(t, StateFinished, action.State())
	assert.Empty(t, *result)
	assert.Empty(t, gw.Sent)
	assert.False(t, timer.armed)
}

func TestDiscoveryAction_SingleCooperativeDevice(t *testing.T) {
	gw := &fakeBusGateway{PollAck: []LogicalAddress{4}}
	action, _, result := newTestAction(t, gw, nil)

	var discoveredEvents []DeviceDiscoveredEvent
	action.OnDeviceDiscovered(func(_ context.Context, e DeviceDiscoveredEvent) error {
		discoveredEvents = append(discoveredEvents, e)
		return nil
	})

	_, err := action.Start(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, StateWaitingForPhysicalAddress, action.State())
	assert.Equal(t, []sentQuery{{target: 4, opcode: OpcodeGivePhysicalAddress}}, gw.Sent)

	consumed := action.OnCommand(Frame{Opcode: OpcodeReportPhysicalAddress, Source: 4, Params: []byte{0x10, 0x00, 0x04}})
	assert.True(t, consumed)

	assert.Equal(t, StateWaitingForOsdName, action.State())
	assert.Equal(t, OpcodeGiveOsdName, gw.Sent[len(gw.Sent)-1].opcode)

	consumed = action.OnCommand(Frame{Opcode: OpcodeSetOsdName, Source: 4, Params: []byte("Player")})
	assert.True(t, consumed)

	assert.Equal(t, StateWaitingForVendorId, action.State())
	assert.Equal(t, OpcodeGiveDeviceVendorId, gw.Sent[len(gw.Sent)-1].opcode)

	consumed = action.OnCommand(Frame{Opcode: OpcodeDeviceVendorId, Source: 4, Params: []byte{0x00, 0x80, 0x45}})
	assert.True(t, consumed)

	assert.Equal(t, StateFinished, action.State())
	assert.Len(t, *result, 1)

	info, err := mustDeviceInfo(*result, 4)
	assert.NoError(t, err)
	assert.Equal(t, LogicalAddress(4), info.LogicalAddress)
	assert.Equal(t, PhysicalAddress(0x1000), info.PhysicalAddress)
	assert.Equal(t, DeviceType(4), info.DeviceType)
	assert.Equal(t, "Player", info.DisplayName)
	assert.Equal(t, VendorId(0x008045), info.VendorId)

	assert.Len(t, discoveredEvents, 1)
	assert.Equal(t, info, discoveredEvents[0].Info)
}

func TestDiscoveryAction_SilentDeviceIsRemovedAfterRetries(t *testing.T) {
	gw := &fakeBusGateway{PollAck: []LogicalAddress{5}}
	action, timer, result := newTestAction(t, gw, nil)

	_, err := action.Start(context.Background())
	assert.NoError(t, err)
	assert.True(t, timer.armed)

	for i := 0; i < DefaultDiscoveryConfig().TimeoutRetry; i++ {
		action.OnTimer(StateWaitingForPhysicalAddress)
		assert.Equal(t, StateWaitingForPhysicalAddress, action.State(), "still retrying at attempt %d", i)
	}

	// One more timeout exhausts the retry budget and removes the device.
	action.OnTimer(StateWaitingForPhysicalAddress)

	assert.Equal(t, StateFinished, action.State())
	assert.Empty(t, *result)

	// 1 initial send + TimeoutRetry retries.
	assert.Len(t, gw.Sent, 1+DefaultDiscoveryConfig().TimeoutRetry)
}

func TestDiscoveryAction_FeatureAbortOnOsdName(t *testing.T) {
	gw := &fakeBusGateway{PollAck: []LogicalAddress{4}}
	action, _, result := newTestAction(t, gw, nil)

	_, err := action.Start(context.Background())
	assert.NoError(t, err)

	action.OnCommand(Frame{Opcode: OpcodeReportPhysicalAddress, Source: 4, Params: []byte{0x20, 0x00, 0x01}})
	assert.Equal(t, StateWaitingForOsdName, action.State())

	consumed := action.OnCommand(Frame{Opcode: OpcodeFeatureAbort, Source: 4, Params: []byte{byte(OpcodeGiveOsdName)}})
	assert.True(t, consumed)
	assert.Equal(t, StateWaitingForVendorId, action.State())

	action.OnCommand(Frame{Opcode: OpcodeDeviceVendorId, Source: 4, Params: []byte{0x00, 0x00, 0x01}})
	assert.Equal(t, StateFinished, action.State())

	info, err := mustDeviceInfo(*result, 4)
	assert.NoError(t, err)
	assert.Equal(t, defaultNameForLogicalAddress(4), info.DisplayName)
	assert.Equal(t, VendorId(1), info.VendorId)
}

func TestDiscoveryAction_CacheHitSkipsOutboundFrames(t *testing.T) {
	gw := &fakeBusGateway{PollAck: []LogicalAddress{4}}
	cache := NewMessageCache()
	cache.Put(4, OpcodeReportPhysicalAddress, Frame{Opcode: OpcodeReportPhysicalAddress, Source: 4, Params: []byte{0x30, 0x00, 0x01}})
	cache.Put(4, OpcodeSetOsdName, Frame{Opcode: OpcodeSetOsdName, Source: 4, Params: []byte("Deck")})
	cache.Put(4, OpcodeDeviceVendorId, Frame{Opcode: OpcodeDeviceVendorId, Source: 4, Params: []byte{0x00, 0x00, 0x02}})

	timer := &fakeActionTimer{}
	var result []DeviceInfo

	action := NewDiscoveryAction(DiscoveryActionDeps{
		Gateway: gw,
		Cache:   cache,
		Timer:   timer,
		OnDiscoveryDone: func(list []DeviceInfo) {
			result = list
		},
	})

	_, err := action.Start(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, StateFinished, action.State())
	assert.Empty(t, gw.Sent, "cache hits for every stage must not produce outbound frames")

	info, err := mustDeviceInfo(result, 4)
	assert.NoError(t, err)
	assert.Equal(t, "Deck", info.DisplayName)
	assert.Equal(t, VendorId(2), info.VendorId)
}

func TestDiscoveryAction_MismatchedSourceIsDroppedThenRetried(t *testing.T) {
	gw := &fakeBusGateway{PollAck: []LogicalAddress{4}}
	action, timer, result := newTestAction(t, gw, nil)

	_, err := action.Start(context.Background())
	assert.NoError(t, err)

	consumed := action.OnCommand(Frame{Opcode: OpcodeReportPhysicalAddress, Source: 6, Params: []byte{0x10, 0x00, 0x04}})
	assert.True(t, consumed, "a same-opcode reply from the wrong source is still consumed, just dropped")
	assert.Equal(t, StateWaitingForPhysicalAddress, action.State(), "must not advance on a mismatched source")
	assert.True(t, timer.armed, "timer must not be cancelled by a dropped mismatched reply")

	action.OnTimer(StateWaitingForPhysicalAddress)
	assert.Equal(t, StateWaitingForPhysicalAddress, action.State())
	assert.Len(t, gw.Sent, 2)

	consumed = action.OnCommand(Frame{Opcode: OpcodeReportPhysicalAddress, Source: 4, Params: []byte{0x10, 0x00, 0x04}})
	assert.True(t, consumed)
	assert.Equal(t, StateWaitingForOsdName, action.State())

	action.OnCommand(Frame{Opcode: OpcodeSetOsdName, Source: 4, Params: []byte("Player")})
	action.OnCommand(Frame{Opcode: OpcodeDeviceVendorId, Source: 4, Params: []byte{0, 0, 0}})

	assert.Equal(t, StateFinished, action.State())
	assert.Len(t, *result, 1)
}

func TestDiscoveryAction_CannotStartTwice(t *testing.T) {
	gw := &fakeBusGateway{PollAck: nil}
	action, _, _ := newTestAction(t, gw, nil)

	_, err := action.Start(context.Background())
	assert.NoError(t, err)

	_, err = action.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestDiscoveryAction_CancelSuppressesCallback(t *testing.T) {
	gw := &fakeBusGateway{PollAck: []LogicalAddress{4}}
	timer := &fakeActionTimer{}
	called := false

	action := NewDiscoveryAction(DiscoveryActionDeps{
		Gateway: gw,
		Timer:   timer,
		OnDiscoveryDone: func([]DeviceInfo) {
			called = true
		},
	})

	_, err := action.Start(context.Background())
	assert.NoError(t, err)

	action.Cancel()

	assert.Equal(t, StateFinished, action.State())
	assert.False(t, called)
}

func TestDiscoveryAction_TvNotifiedOfSwitchAndFlush(t *testing.T) {
	gw := &fakeBusGateway{PollAck: []LogicalAddress{4}}
	tv := newFakeLocalDevice(LocalDeviceTv)
	tv.portFor[PhysicalAddress(0x1000)] = 3

	action, _, _ := newTestAction(t, gw, tv)

	_, err := action.Start(context.Background())
	assert.NoError(t, err)

	action.OnCommand(Frame{Opcode: OpcodeReportPhysicalAddress, Source: 4, Params: []byte{0x10, 0x00, 0x04}})

	assert.Len(t, tv.switches, 1)
	assert.Equal(t, cecSwitch{logical: 4, deviceType: 4, physical: 0x1000}, tv.switches[0])

	action.OnCommand(Frame{Opcode: OpcodeSetOsdName, Source: 4, Params: []byte("Player")})
	action.OnCommand(Frame{Opcode: OpcodeDeviceVendorId, Source: 4, Params: []byte{0, 0, 0}})

	assert.Equal(t, 1, tv.flushed)
}
