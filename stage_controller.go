package cec

import "github.com/shimmeringbee/logwrap"

// checkAndProceed is the controller's one internal primitive:
//
//  1. an empty device set wraps up immediately;
//  2. a fully-walked stage resets the counter and advances (or wraps up if
//     the stage just finished was VendorId);
//  3. otherwise it issues the stage's query against the device at the
//     current index.
//
// A run of invalid-for-query addresses at the head of the remaining list is
// skipped before a query is issued, rather than leaving each per-stage
// query procedure responsible for remembering to call this and stalling
// forever on an invalid head address.
func (a *DiscoveryAction) checkAndProceed() {
	if a.devices.len() == 0 {
		a.wrapUp()
		return
	}

	for a.processedDeviceCount < a.devices.len() && !a.devices.at(a.processedDeviceCount).LogicalAddress.ValidForQuery() {
		a.logger.LogWarn(a.ctx, "Skipping device with an address that is not valid for query.", logwrap.Datum("LogicalAddress", a.devices.at(a.processedDeviceCount).LogicalAddress))
		a.processedDeviceCount++
	}

	if a.processedDeviceCount >= a.devices.len() {
		a.processedDeviceCount = 0

		if a.state == StateWaitingForVendorId {
			a.wrapUp()
			return
		}

		a.state = nextState(a.state)
		a.logger.LogInfo(a.ctx, "Advancing discovery stage.", logwrap.Datum("Stage", a.state.String()))
		a.checkAndProceed()
		return
	}

	a.issueStageQuery(a.devices.at(a.processedDeviceCount).LogicalAddress)
}

// issueStageQuery is the per-stage query contract: clear any pending timer,
// consult the MessageCache, and either synthesize a local receive from a
// cache hit or send a fresh request and arm a timer.
func (a *DiscoveryAction) issueStageQuery(target LogicalAddress) {
	a.timer.Clear()

	expected := stageExpectedOpcode(a.state)

	if frame, found := a.cache.Get(target, expected); found {
		a.logger.LogTrace(a.ctx, "Message cache hit, synthesizing response.", logwrap.Datum("LogicalAddress", target), logwrap.Datum("Opcode", expected))
		a.deliverReply(frame)
		return
	}

	a.sendAndArm(target)
}

// sendAndArm emits the stage's request frame and arms a fresh timer. Used
// both by the original issue path and by the timeout retry path — the
// retry path skips the cache entirely and always sends a fresh request.
func (a *DiscoveryAction) sendAndArm(target LogicalAddress) {
	opcode := stageRequestOpcode(a.state)

	if err := a.gateway.Send(a.ctx, target, opcode); err != nil {
		a.logger.LogError(a.ctx, "Failed to send stage query.", logwrap.Datum("LogicalAddress", target), logwrap.Datum("Opcode", opcode), logwrap.Err(err))
	}

	a.timer.Arm(a.state, a.config.TimeoutMS)
}

// advanceAfterSuccess resets the retry counter, cancels the timer, moves
// past the current device, and re-drives the controller. Called on every
// successful stage response, including a Feature Abort treated as a
// completion with defaults.
func (a *DiscoveryAction) advanceAfterSuccess() {
	a.timer.Clear()
	a.timeoutRetry = 0
	a.processedDeviceCount++
	a.checkAndProceed()
}

// currentTarget returns the device record at the head of the walk, or
// false if the walk has run off the end (shouldn't happen while a timer is
// armed, but callers still check).
func (a *DiscoveryAction) currentTarget() (*DeviceRecord, bool) {
	if a.processedDeviceCount >= a.devices.len() {
		return nil, false
	}
	return a.devices.at(a.processedDeviceCount), true
}

// deliverReply dispatches an inbound (or cache-synthesized) frame to the
// handler for the current stage. Returns false for a stage/opcode
// combination the controller does not recognise, so on_command can report
// "not consumed" to its host.
func (a *DiscoveryAction) deliverReply(frame Frame) bool {
	switch a.state {
	case StateWaitingForPhysicalAddress:
		return a.handlePhysicalAddressReply(frame)
	case StateWaitingForOsdName:
		return a.handleOsdNameReply(frame)
	case StateWaitingForVendorId:
		return a.handleVendorIdReply(frame)
	default:
		return false
	}
}

// stageRequestOpcode and stageExpectedOpcode are written as exhaustive
// switches with an explicit return in every branch, so a new DiscoveryState
// value can never fall through to the wrong opcode.
func stageRequestOpcode(state DiscoveryState) Opcode {
	switch state {
	case StateWaitingForPhysicalAddress:
		return OpcodeGivePhysicalAddress
	case StateWaitingForOsdName:
		return OpcodeGiveOsdName
	case StateWaitingForVendorId:
		return OpcodeGiveDeviceVendorId
	default:
		return OpcodeFeatureAbort
	}
}

func stageExpectedOpcode(state DiscoveryState) Opcode {
	switch state {
	case StateWaitingForPhysicalAddress:
		return OpcodeReportPhysicalAddress
	case StateWaitingForOsdName:
		return OpcodeSetOsdName
	case StateWaitingForVendorId:
		return OpcodeDeviceVendorId
	default:
		return OpcodeFeatureAbort
	}
}

// handlePhysicalAddressReply applies the Report Physical Address rules.
// Feature Abort is intentionally not handled at this stage — such a frame
// simply falls through to "not consumed" and the stage relies on
// timeout/retry.
func (a *DiscoveryAction) handlePhysicalAddressReply(frame Frame) bool {
	if frame.Opcode != OpcodeReportPhysicalAddress {
		return false
	}

	record, ok := a.currentTarget()
	if !ok {
		return false
	}

	if frame.Source != record.LogicalAddress {
		a.logger.LogWarn(a.ctx, "Dropping Report Physical Address from unexpected source.", logwrap.Datum("Expected", record.LogicalAddress), logwrap.Datum("Actual", frame.Source))
		return true
	}

	if len(frame.Params) < 3 {
		a.logger.LogWarn(a.ctx, "Dropping malformed Report Physical Address payload.", logwrap.Datum("LogicalAddress", frame.Source))
		return true
	}

	physical := newPhysicalAddress(frame.Params[0], frame.Params[1])
	deviceType := DeviceType(frame.Params[2])

	record.PhysicalAddress = physical
	record.DeviceType = deviceType
	record.PortId = a.localDevice.PortIdOf(physical)

	if name, found := a.config.resolveNameForDeviceType(deviceType); found {
		record.DisplayName = name
	} else {
		record.DisplayName = "Unknown"
	}

	a.localDevice.NotifyCecSwitch(record.LogicalAddress, deviceType, physical)

	a.logger.LogDebug(a.ctx, "Resolved physical address.", logwrap.Datum("LogicalAddress", record.LogicalAddress), logwrap.Datum("PhysicalAddress", physical), logwrap.Datum("DeviceType", deviceType))

	a.advanceAfterSuccess()
	return true
}

// handleOsdNameReply applies the Set OSD Name rules: decode verbatim on
// success, fall back to the default-name-by-logical-address on a decode
// failure or a matching Feature Abort.
func (a *DiscoveryAction) handleOsdNameReply(frame Frame) bool {
	record, ok := a.currentTarget()
	if !ok {
		return false
	}

	switch frame.Opcode {
	case OpcodeSetOsdName:
		if frame.Source != record.LogicalAddress {
			a.logger.LogWarn(a.ctx, "Dropping Set OSD Name from unexpected source.", logwrap.Datum("Expected", record.LogicalAddress), logwrap.Datum("Actual", frame.Source))
			return true
		}

		if name, ok := decodeAsciiOsdName(frame.Params); ok {
			record.DisplayName = name
		} else {
			a.logger.LogWarn(a.ctx, "Failed to decode OSD name, using default.", logwrap.Datum("LogicalAddress", record.LogicalAddress))
			record.DisplayName = a.config.resolveNameForLogicalAddress(record.LogicalAddress)
		}

		a.advanceAfterSuccess()
		return true

	case OpcodeFeatureAbort:
		target, ok := FeatureAbortTarget(frame)
		if !ok || target != OpcodeGiveOsdName {
			return false
		}
		if frame.Source != record.LogicalAddress {
			a.logger.LogWarn(a.ctx, "Dropping Feature Abort from unexpected source.", logwrap.Datum("Expected", record.LogicalAddress), logwrap.Datum("Actual", frame.Source))
			return true
		}

		record.DisplayName = a.config.resolveNameForLogicalAddress(record.LogicalAddress)
		a.advanceAfterSuccess()
		return true

	default:
		return false
	}
}

// handleVendorIdReply applies the Device Vendor ID rules, and fires the
// optional per-device discovered event once this — the last — stage
// resolves for the device.
func (a *DiscoveryAction) handleVendorIdReply(frame Frame) bool {
	record, ok := a.currentTarget()
	if !ok {
		return false
	}

	switch frame.Opcode {
	case OpcodeDeviceVendorId:
		if frame.Source != record.LogicalAddress {
			a.logger.LogWarn(a.ctx, "Dropping Device Vendor ID from unexpected source.", logwrap.Datum("Expected", record.LogicalAddress), logwrap.Datum("Actual", frame.Source))
			return true
		}
		if len(frame.Params) < 3 {
			a.logger.LogWarn(a.ctx, "Dropping malformed Device Vendor ID payload.", logwrap.Datum("LogicalAddress", frame.Source))
			return true
		}

		record.VendorId = newVendorId(frame.Params[0], frame.Params[1], frame.Params[2])
		a.finishDevice(record)
		return true

	case OpcodeFeatureAbort:
		target, ok := FeatureAbortTarget(frame)
		if !ok || target != OpcodeGiveDeviceVendorId {
			return false
		}
		if frame.Source != record.LogicalAddress {
			a.logger.LogWarn(a.ctx, "Dropping Feature Abort from unexpected source.", logwrap.Datum("Expected", record.LogicalAddress), logwrap.Datum("Actual", frame.Source))
			return true
		}

		// VendorId already defaults to UnknownVendorId; nothing to set.
		a.finishDevice(record)
		return true

	default:
		return false
	}
}

func (a *DiscoveryAction) finishDevice(record *DeviceRecord) {
	if err := a.discoveredCallbacks.Call(a.ctx, DeviceDiscoveredEvent{RunID: a.runID, Info: record.toDeviceInfo()}); err != nil {
		a.logger.LogError(a.ctx, "Device discovered callback failed.", logwrap.Err(err))
	}
	a.advanceAfterSuccess()
}

// decodeAsciiOsdName validates a Set OSD Name payload: 1 to 14 printable
// US-ASCII bytes, per the real protocol's field width.
func decodeAsciiOsdName(params []byte) (string, bool) {
	if len(params) == 0 || len(params) > 14 {
		return "", false
	}
	for _, b := range params {
		if b < 0x20 || b > 0x7E {
			return "", false
		}
	}
	return string(params), true
}

// wrapUp projects the surviving DeviceRecords into DeviceInfo, invokes the
// done callback exactly once, marks the action Finished, and flushes any
// messages the local device deferred during discovery.
func (a *DiscoveryAction) wrapUp() {
	a.timer.Clear()

	result := a.devices.toDeviceInfoList()

	a.logger.LogInfo(a.ctx, "Discovery run complete.", logwrap.Datum("DeviceCount", len(result)))

	a.localDevice.FlushDelayedMessages()

	a.state = StateFinished

	if a.segmentEnd != nil {
		a.segmentEnd()
	}

	if a.doneCallback != nil {
		a.doneCallback(result)
	}
}
