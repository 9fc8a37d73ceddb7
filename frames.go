package cec

// Opcode identifies a CEC message's operation, as carried in the first byte
// of the frame's payload. The Discovery action never builds frames itself —
// it calls the host's message-builder helpers — but it needs to name
// opcodes to match replies against outstanding queries and to recognise
// Feature Abort targets.
type Opcode uint8

const (
	OpcodeFeatureAbort          Opcode = 0x00
	OpcodeGivePhysicalAddress   Opcode = 0x83
	OpcodeReportPhysicalAddress Opcode = 0x84
	OpcodeGiveOsdName           Opcode = 0x46
	OpcodeSetOsdName            Opcode = 0x47
	OpcodeGiveDeviceVendorId    Opcode = 0x8C
	OpcodeDeviceVendorId        Opcode = 0x87
)

// Frame is the wire-independent shape of an inbound or outbound CEC
// message. The byte layout of the underlying frame on the wire is owned by
// the transport; this struct is what the transport hands the action and
// what the action hands back to the host's message-builder helpers.
type Frame struct {
	Opcode Opcode
	Source LogicalAddress
	Params []byte
}

// FeatureAbortTarget returns the opcode a Feature Abort frame is rejecting,
// and whether frame is in fact a Feature Abort with a parameter to read.
func FeatureAbortTarget(frame Frame) (Opcode, bool) {
	if frame.Opcode != OpcodeFeatureAbort || len(frame.Params) < 1 {
		return 0, false
	}
	return Opcode(frame.Params[0]), true
}

// cacheKey identifies one MessageCache slot: the most recent frame observed
// from source carrying opcode.
type cacheKey struct {
	source LogicalAddress
	opcode Opcode
}
