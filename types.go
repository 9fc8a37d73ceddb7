package cec

// LogicalAddress identifies a device's role on the CEC bus, in [0, 15].
type LogicalAddress uint8

const (
	AddrTV           LogicalAddress = 0
	AddrUnregistered LogicalAddress = 15
)

// ValidForQuery reports whether a is a candidate for a stage query. The TV
// itself and every recorder/player/tuner/audio-system address in between
// are valid; the broadcast/unregistered address is not.
func (a LogicalAddress) ValidForQuery() bool {
	return a >= AddrTV && a < AddrUnregistered
}

// PhysicalAddress is a 16-bit topology coordinate, packed as two
// network-order bytes on the wire.
type PhysicalAddress uint16

// InvalidPhysicalAddress is the sentinel used before a device's physical
// address has been resolved, or when resolution never succeeds.
const InvalidPhysicalAddress PhysicalAddress = 0xFFFF

func newPhysicalAddress(hi, lo byte) PhysicalAddress {
	return PhysicalAddress(uint16(hi)<<8 | uint16(lo))
}

// PortId is a small integer identifying which port of the local device a
// physical address hangs off. INVALID_PORT_ID is used when the local
// device is neither a TV nor an audio system, or lookup fails.
type PortId int32

const InvalidPortId PortId = -1

// DeviceType is the 8-bit code carried in the third byte of a Report
// Physical Address reply.
type DeviceType uint8

const DeviceInactive DeviceType = 0xFF

// VendorId is a 24-bit value, packed as three bytes on the wire.
type VendorId uint32

const UnknownVendorId VendorId = 0xFFFFFF

func newVendorId(b0, b1, b2 byte) VendorId {
	return VendorId(uint32(b0)<<16 | uint32(b1)<<8 | uint32(b2))
}

// DeviceInfo is the wire-independent, immutable projection of a
// DeviceRecord produced at wrap-up.
type DeviceInfo struct {
	LogicalAddress  LogicalAddress
	PhysicalAddress PhysicalAddress
	PortId          PortId
	DeviceType      DeviceType
	VendorId        VendorId
	DisplayName     string
}

// DeviceRecord is the in-progress inventory entry for one acknowledged
// logical address. LogicalAddress is immutable after construction; every
// other field starts at its documented default and is populated, stage by
// stage, from a successful reply, or left at the default when the stage
// never resolves.
type DeviceRecord struct {
	LogicalAddress  LogicalAddress
	PhysicalAddress PhysicalAddress
	PortId          PortId
	DeviceType      DeviceType
	VendorId        VendorId
	DisplayName     string
}

func newDeviceRecord(addr LogicalAddress) *DeviceRecord {
	return &DeviceRecord{
		LogicalAddress:  addr,
		PhysicalAddress: InvalidPhysicalAddress,
		PortId:          InvalidPortId,
		DeviceType:      DeviceInactive,
		VendorId:        UnknownVendorId,
		DisplayName:     "",
	}
}

func (r *DeviceRecord) toDeviceInfo() DeviceInfo {
	return DeviceInfo{
		LogicalAddress:  r.LogicalAddress,
		PhysicalAddress: r.PhysicalAddress,
		PortId:          r.PortId,
		DeviceType:      r.DeviceType,
		VendorId:        r.VendorId,
		DisplayName:     r.DisplayName,
	}
}
