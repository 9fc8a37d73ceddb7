package cec

// DiscoveryState is one of the four discovery stages plus the None and
// Finished bookends. Modelled as an enum with total-function transitions
// (see nextState) rather than scattered conditionals.
type DiscoveryState int

const (
	StateNone DiscoveryState = iota
	StateWaitingForPolling
	StateWaitingForPhysicalAddress
	StateWaitingForOsdName
	StateWaitingForVendorId
	StateFinished
)

func (s DiscoveryState) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateWaitingForPolling:
		return "WaitingForPolling"
	case StateWaitingForPhysicalAddress:
		return "WaitingForPhysicalAddress"
	case StateWaitingForOsdName:
		return "WaitingForOsdName"
	case StateWaitingForVendorId:
		return "WaitingForVendorId"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// nextState returns the stage that follows s once every device has been
// walked, or StateFinished if s was the last query stage.
func nextState(s DiscoveryState) DiscoveryState {
	switch s {
	case StateWaitingForPhysicalAddress:
		return StateWaitingForOsdName
	case StateWaitingForOsdName:
		return StateWaitingForVendorId
	case StateWaitingForVendorId:
		return StateFinished
	default:
		return StateFinished
	}
}
