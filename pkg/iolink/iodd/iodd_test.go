package iodd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<IODevice>
  <ProfileBody>
    <DeviceIdentity vendorId="0x12345678" deviceId="0x87654321">
      <DeviceName value="ThermoProbe TP-100"/>
    </DeviceIdentity>
    <DeviceFunction>
      <ProcessDataCollection>
        <ProcessData>
          <ProcessDataIn bitLength="16"/>
        </ProcessData>
        <ProcessData>
          <ProcessDataOut bitLength="8"/>
        </ProcessData>
      </ProcessDataCollection>
    </DeviceFunction>
  </ProfileBody>
</IODevice>`

func TestParse(t *testing.T) {
	desc, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), desc.VendorID)
	require.Equal(t, uint32(0x87654321), desc.ProductID)
	require.Equal(t, "ThermoProbe TP-100", desc.ProductName)
	require.Equal(t, 2, desc.ProcessDataIn)
	require.Equal(t, 1, desc.ProcessDataOut)

	id := desc.Identity(3)
	require.Equal(t, uint8(3), id.DeviceID)
	require.Equal(t, uint32(0x12345678), id.VendorID)
	require.Equal(t, uint32(0x87654321), id.ProductID)
}

func TestParseDecimalIDs(t *testing.T) {
	doc := `<IODevice><ProfileBody>
		<DeviceIdentity vendorId="1234" deviceId="5678"/>
	</ProfileBody></IODevice>`
	desc, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, uint32(1234), desc.VendorID)
	require.Equal(t, uint32(5678), desc.ProductID)
	require.Equal(t, 0, desc.ProcessDataIn)
	require.Equal(t, 0, desc.ProcessDataOut)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"not xml", "not xml at all"},
		{"missing vendor id", `<IODevice><ProfileBody><DeviceIdentity deviceId="1"/></ProfileBody></IODevice>`},
		{"bad vendor id", `<IODevice><ProfileBody><DeviceIdentity vendorId="zz" deviceId="1"/></ProfileBody></IODevice>`},
		{"missing device id", `<IODevice><ProfileBody><DeviceIdentity vendorId="1"/></ProfileBody></IODevice>`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.doc))
			require.Error(t, err)
		})
	}
}
