package cec

// TvCallbacks is the subset of a TV's own bookkeeping the Discovery action
// needs to reach: switch-routing updates as devices are resolved, port
// lookups by physical address, and releasing anything the TV deferred
// while a discovery run was in flight.
type TvCallbacks interface {
	PortIdOf(physical PhysicalAddress) PortId
	UpdateCecSwitchInfo(logical LogicalAddress, deviceType DeviceType, physical PhysicalAddress)
	ProcessAllDelayedMessages()
}

// AudioSystemCallbacks is the subset of an audio system's own bookkeeping
// the Discovery action needs: port lookups by physical address only — an
// audio system never receives switch or delayed-message notifications.
type AudioSystemCallbacks interface {
	PortIdOf(physical PhysicalAddress) PortId
}

type tvLocalDevice struct {
	tv TvCallbacks
}

// NewTvLocalDevice adapts a host's TV bookkeeping into a LocalDevice.
func NewTvLocalDevice(tv TvCallbacks) LocalDevice {
	return &tvLocalDevice{tv: tv}
}

func (t *tvLocalDevice) Kind() LocalDeviceKind { return LocalDeviceTv }

func (t *tvLocalDevice) PortIdOf(physical PhysicalAddress) PortId {
	return t.tv.PortIdOf(physical)
}

func (t *tvLocalDevice) NotifyCecSwitch(logical LogicalAddress, deviceType DeviceType, physical PhysicalAddress) {
	t.tv.UpdateCecSwitchInfo(logical, deviceType, physical)
}

func (t *tvLocalDevice) FlushDelayedMessages() {
	t.tv.ProcessAllDelayedMessages()
}

type audioSystemLocalDevice struct {
	audio AudioSystemCallbacks
}

// NewAudioSystemLocalDevice adapts a host's audio-system bookkeeping into a
// LocalDevice.
func NewAudioSystemLocalDevice(audio AudioSystemCallbacks) LocalDevice {
	return &audioSystemLocalDevice{audio: audio}
}

func (a *audioSystemLocalDevice) Kind() LocalDeviceKind { return LocalDeviceAudioSystem }

func (a *audioSystemLocalDevice) PortIdOf(physical PhysicalAddress) PortId {
	return a.audio.PortIdOf(physical)
}

func (a *audioSystemLocalDevice) NotifyCecSwitch(LogicalAddress, DeviceType, PhysicalAddress) {}

func (a *audioSystemLocalDevice) FlushDelayedMessages() {}

type otherLocalDevice struct{}

// NewOtherLocalDevice returns the LocalDevice variant for a device that is
// neither a TV nor an audio system: every capability is a no-op or returns
// INVALID_PORT_ID.
func NewOtherLocalDevice() LocalDevice {
	return otherLocalDevice{}
}

func (otherLocalDevice) Kind() LocalDeviceKind { return LocalDeviceOther }

func (otherLocalDevice) PortIdOf(PhysicalAddress) PortId { return InvalidPortId }

func (otherLocalDevice) NotifyCecSwitch(LogicalAddress, DeviceType, PhysicalAddress) {}

func (otherLocalDevice) FlushDelayedMessages() {}
