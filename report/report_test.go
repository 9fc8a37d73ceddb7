package report

import (
	"testing"
	"time"

	"github.com/shimmeringbee/cec"
	"github.com/stretchr/testify/assert"
)

func TestEncodeDecode_RoundTripsAPopulatedReport(t *testing.T) {
	original := cec.DiscoveryReport{
		RunID:       "11111111-1111-1111-1111-111111111111",
		CompletedAt: time.Date(2026, 8, 6, 12, 30, 0, 0, time.UTC),
		Devices: []cec.DeviceInfo{
			{LogicalAddress: 4, PhysicalAddress: 0x1000, PortId: 1, DeviceType: 4, VendorId: 0x008045, DisplayName: "Player"},
		},
	}

	data, err := Encode(original)
	assert.NoError(t, err)

	decoded, err := Decode(data)
	assert.NoError(t, err)
	assert.True(t, original.CompletedAt.Equal(decoded.CompletedAt))
	decoded.CompletedAt = original.CompletedAt
	assert.Equal(t, original, decoded)
}

func TestEncodeDecode_RoundTripsAnEmptyBusReport(t *testing.T) {
	original := cec.DiscoveryReport{
		RunID:       "22222222-2222-2222-2222-222222222222",
		CompletedAt: time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC),
	}

	data, err := Encode(original)
	assert.NoError(t, err)

	decoded, err := Decode(data)
	assert.NoError(t, err)
	assert.True(t, original.CompletedAt.Equal(decoded.CompletedAt))
	decoded.CompletedAt = original.CompletedAt
	assert.Equal(t, original, decoded)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0xFF, 0xFF, 0xFF})
	assert.Error(t, err)
}
