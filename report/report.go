// Package report encodes and decodes finished discovery inventories for
// archival or transmission to a low-bandwidth companion device.
package report

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/shimmeringbee/cec"
)

// Encode packs a DiscoveryReport as CBOR. Chosen over JSON because the OSD
// name field is fixed-width US-ASCII and the rest of the record is small
// integers, which CBOR packs tightly.
func Encode(r cec.DiscoveryReport) ([]byte, error) {
	data, err := cbor.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("report: encode: %w", err)
	}
	return data, nil
}

// Decode unpacks a DiscoveryReport previously produced by Encode.
func Decode(data []byte) (cec.DiscoveryReport, error) {
	var r cec.DiscoveryReport
	if err := cbor.Unmarshal(data, &r); err != nil {
		return cec.DiscoveryReport{}, fmt.Errorf("report: decode: %w", err)
	}
	return r, nil
}
