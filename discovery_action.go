package cec

import (
	"context"
	"reflect"

	"github.com/shimmeringbee/callbacks"
	"github.com/shimmeringbee/logwrap"
)

// DiscoveryAction is a lifecycle handle for one discovery run
// (start/cancel), the intake for inbound frames and timer events, and the
// completion dispatch to the caller's callback. Every method is called
// serially by the host's single dispatcher goroutine; the action holds no
// lock of its own.
type DiscoveryAction struct {
	logger      logwrap.Logger
	gateway     BusGateway
	timer       ActionTimer
	cache       MessageCache
	localDevice LocalDevice
	config      DiscoveryConfig

	doneCallback        func([]DeviceInfo)
	discoveredCallbacks callbacks.AdderCaller

	ctx        context.Context
	segmentEnd func()
	runID      RunID

	state                DiscoveryState
	devices              *deviceRecordSet
	processedDeviceCount int
	timeoutRetry         int
}

// DiscoveryActionDeps are the collaborators a DiscoveryAction needs.
// Gateway is required; everything else defaults to a sensible
// implementation when left zero.
type DiscoveryActionDeps struct {
	Logger      logwrap.Logger
	Gateway     BusGateway
	Cache       MessageCache
	LocalDevice LocalDevice
	Config      DiscoveryConfig
	Timer       ActionTimer

	// OnDiscoveryDone is the one-shot completion continuation: invoked
	// exactly once, at wrap-up.
	OnDiscoveryDone func([]DeviceInfo)
}

// NewDiscoveryAction constructs a DiscoveryAction in StateNone, ready for
// start(). If deps.Timer is nil, a host timer wired directly to the action's
// own OnTimer entry point is created; that timer calls OnTimer from its own
// goroutine, not through the host's dispatcher goroutine. Tests typically
// supply a fake ActionTimer instead so they can fire timeouts
// deterministically.
func NewDiscoveryAction(deps DiscoveryActionDeps) *DiscoveryAction {
	if reflect.DeepEqual(deps.Logger, logwrap.Logger{}) {
		deps.Logger = defaultLogger()
	}
	if deps.Cache == nil {
		deps.Cache = NewMessageCache()
	}
	if deps.LocalDevice == nil {
		deps.LocalDevice = NewOtherLocalDevice()
	}
	if deps.Config.TimeoutMSMillis == 0 {
		deps.Config = DefaultDiscoveryConfig()
	}

	a := &DiscoveryAction{
		logger:              deps.Logger,
		gateway:             deps.Gateway,
		cache:               deps.Cache,
		localDevice:         deps.LocalDevice,
		config:              deps.Config,
		doneCallback:        deps.OnDiscoveryDone,
		discoveredCallbacks: callbacks.Create(),
		state:               StateNone,
		devices:             newDeviceRecordSet(nil),
	}

	if deps.Timer != nil {
		a.timer = deps.Timer
	} else {
		a.timer = NewHostActionTimer(a.OnTimer)
	}

	return a
}

// OnDeviceDiscovered registers f to be called every time a device clears
// its final stage. Zero or more invocations per run.
func (a *DiscoveryAction) OnDeviceDiscovered(f func(ctx context.Context, event DeviceDiscoveredEvent) error) {
	a.discoveredCallbacks.Add(f)
}

// State returns the action's current DiscoveryState.
func (a *DiscoveryAction) State() DiscoveryState {
	return a.state
}

// RunID returns the run correlation id assigned at start(). Zero-value
// before the first start().
func (a *DiscoveryAction) RunID() RunID {
	return a.runID
}

// Start clears the device set, requests a bus polling sweep, and returns
// true once the request has been accepted by the BusGateway. Starting an
// action that is not in StateNone is not supported — construct a fresh
// action instead.
func (a *DiscoveryAction) Start(ctx context.Context) (bool, error) {
	if a.state != StateNone {
		return false, ErrAlreadyStarted
	}

	a.runID = newRunID()
	a.ctx, a.segmentEnd = a.logger.Segment(ctx, "CEC device discovery.", logwrap.Datum("RunID", a.runID.String()))

	a.devices = newDeviceRecordSet(nil)
	a.state = StateWaitingForPolling

	a.logger.LogInfo(a.ctx, "Polling CEC bus for devices.")

	if err := a.gateway.PollDevices(a.ctx, a.OnPollComplete, PollReverseOrder|PollRemotesOnly, a.config.DevicePollingRetry); err != nil {
		a.logger.LogError(a.ctx, "Failed to request bus poll.", logwrap.Err(err))
		return false, err
	}

	return true, nil
}

// OnPollComplete is the BusGateway's callback with the ordered list of
// acknowledged logical addresses. An empty list completes discovery
// immediately with an empty inventory.
func (a *DiscoveryAction) OnPollComplete(acked []LogicalAddress) {
	if a.state != StateWaitingForPolling {
		a.logger.LogWarn(a.ctx, "Ignoring poll completion outside of polling stage.", logwrap.Datum("State", a.state.String()))
		return
	}

	a.logger.LogInfo(a.ctx, "Poll complete.", logwrap.Datum("AckedCount", len(acked)))

	if len(acked) == 0 {
		a.devices = newDeviceRecordSet(nil)
		a.wrapUp()
		return
	}

	a.devices = newDeviceRecordSet(acked)
	a.state = StateWaitingForPhysicalAddress
	a.processedDeviceCount = 0

	a.checkAndProceed()
}

// OnCommand is dispatched by the host on every inbound CEC frame. It
// returns false for frames the current stage does not recognise so the
// host can route them elsewhere.
func (a *DiscoveryAction) OnCommand(frame Frame) bool {
	return a.deliverReply(frame)
}

// OnTimer is dispatched by the host when a previously armed ActionTimer
// fires. A stateTag that no longer matches the current state is a stale
// timer from a race the reply side already won, and is ignored.
func (a *DiscoveryAction) OnTimer(stateTag DiscoveryState) {
	if stateTag != a.state {
		a.logger.LogTrace(a.ctx, "Ignoring stale timer.", logwrap.Datum("TimerState", stateTag.String()), logwrap.Datum("CurrentState", a.state.String()))
		return
	}

	record, ok := a.currentTarget()
	if !ok {
		return
	}

	if a.timeoutRetry < a.config.TimeoutRetry {
		a.timeoutRetry++
		a.logger.LogDebug(a.ctx, "Retrying stage query after timeout.", logwrap.Datum("LogicalAddress", record.LogicalAddress), logwrap.Datum("Attempt", a.timeoutRetry))
		a.sendAndArm(record.LogicalAddress)
		return
	}

	a.timeoutRetry = 0
	a.logger.LogWarn(a.ctx, "Device unresponsive after exhausting retries, removing from inventory.", logwrap.Datum("LogicalAddress", record.LogicalAddress), logwrap.Datum("State", a.state.String()))
	a.devices.remove(a.processedDeviceCount)
	a.checkAndProceed()
}

// Cancel moves the action to StateFinished without invoking the done
// callback. Safe to call at any point; a no-op once the action is already
// finished or was never started.
func (a *DiscoveryAction) Cancel() {
	if a.state == StateNone || a.state == StateFinished {
		return
	}

	a.timer.Clear()
	a.state = StateFinished

	if a.segmentEnd != nil {
		a.segmentEnd()
	}
}
