package cec

import "time"

// DiscoveryReport is the archival snapshot of one finished discovery run:
// enough to reconstruct the inventory a run produced, and when it
// finished, without replaying the bus traffic that produced it.
type DiscoveryReport struct {
	RunID       string
	CompletedAt time.Time
	Devices     []DeviceInfo
}

// NewDiscoveryReport captures a finished run's RunID, completion time, and
// inventory.
func NewDiscoveryReport(runID RunID, completedAt time.Time, devices []DeviceInfo) DiscoveryReport {
	return DiscoveryReport{RunID: runID.String(), CompletedAt: completedAt, Devices: devices}
}
