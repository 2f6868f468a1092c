// Package iodd reads IO Device Description files.
package iodd

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fieldtalks/iolink.go/pkg/iolink"
)

// Description is the identity and process data structure extracted
// from a description file. Schema validation is out of scope: only the
// fields below are read, everything else in the document is ignored.
type Description struct {
	VendorID       uint32
	ProductID      uint32
	ProductName    string
	ProcessDataIn  int // bytes
	ProcessDataOut int // bytes
}

// Identity converts the description into a device identity for the
// given address.
func (d *Description) Identity(deviceID uint8) iolink.Identity {
	return iolink.Identity{
		DeviceID:  deviceID,
		VendorID:  d.VendorID,
		ProductID: d.ProductID,
	}
}

type xmlDocument struct {
	XMLName     xml.Name `xml:"IODevice"`
	ProfileBody struct {
		DeviceIdentity struct {
			VendorID string `xml:"vendorId,attr"`
			DeviceID string `xml:"deviceId,attr"`
			DeviceName struct {
				Value string `xml:"value,attr"`
			} `xml:"DeviceName"`
		} `xml:"DeviceIdentity"`
		DeviceFunction struct {
			ProcessDataCollection struct {
				ProcessData []struct {
					In *struct {
						BitLength int `xml:"bitLength,attr"`
					} `xml:"ProcessDataIn"`
					Out *struct {
						BitLength int `xml:"bitLength,attr"`
					} `xml:"ProcessDataOut"`
				} `xml:"ProcessData"`
			} `xml:"ProcessDataCollection"`
		} `xml:"DeviceFunction"`
	} `xml:"ProfileBody"`
}

// Load reads and parses a description file.
func Load(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses a description document.
func Parse(r io.Reader) (*Description, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed description: %v", err)
	}
	ident := doc.ProfileBody.DeviceIdentity
	vendorID, err := parseID(ident.VendorID)
	if err != nil {
		return nil, fmt.Errorf("bad vendor id %q: %v", ident.VendorID, err)
	}
	productID, err := parseID(ident.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("bad device id %q: %v", ident.DeviceID, err)
	}
	desc := &Description{
		VendorID:    vendorID,
		ProductID:   productID,
		ProductName: ident.DeviceName.Value,
	}
	for _, pd := range doc.ProfileBody.DeviceFunction.ProcessDataCollection.ProcessData {
		if pd.In != nil {
			desc.ProcessDataIn += byteLen(pd.In.BitLength)
		}
		if pd.Out != nil {
			desc.ProcessDataOut += byteLen(pd.Out.BitLength)
		}
	}
	return desc, nil
}

// parseID accepts decimal or 0x-prefixed hex identifiers.
func parseID(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("missing")
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func byteLen(bits int) int {
	return (bits + 7) / 8
}
