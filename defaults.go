package cec

// defaultNamesByDeviceType and defaultNamesByLogicalAddress supply the
// fallback display name policy: when a device reports its physical address,
// its display name is set to the name for its device type ("Unknown" for a
// type not in the table); when its OSD name then can't be read (decode
// failure or a matching Feature Abort), the name for its logical address is
// used instead. These are the compiled-in fallbacks; DiscoveryConfig can
// override both tables from YAML (see config.go).
var defaultNamesByDeviceType = map[DeviceType]string{
	0x00: "TV",
	0x01: "Recording Device",
	0x02: "Reserved",
	0x03: "Tuner",
	0x04: "Playback Device",
	0x05: "Audio System",
	0x06: "Pure CEC Switch",
	0x07: "Video Processor",
}

var defaultNamesByLogicalAddress = map[LogicalAddress]string{
	0:  "TV",
	1:  "Recorder 1",
	2:  "Recorder 2",
	3:  "Tuner 1",
	4:  "Playback 1",
	5:  "Audio System",
	6:  "Tuner 2",
	7:  "Tuner 3",
	8:  "Playback 2",
	9:  "Recorder 3",
	10: "Tuner 4",
	11: "Playback 3",
	12: "Reserved 1",
	13: "Reserved 2",
	14: "Free Use",
}

func defaultNameForDeviceType(dt DeviceType) (string, bool) {
	name, found := defaultNamesByDeviceType[dt]
	return name, found
}

func defaultNameForLogicalAddress(addr LogicalAddress) string {
	if name, found := defaultNamesByLogicalAddress[addr]; found {
		return name
	}
	return "Unknown"
}
