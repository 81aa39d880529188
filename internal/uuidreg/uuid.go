// Package uuidreg implements the 16-bit <-> 128-bit BLE UUID conversions
// and the static name tables used for diagnostics. Grounded on the
// bleBaseUUID/uint16ToUuid128/fmtUuidName trio in the indBikeSim C
// original, re-expressed with the go-ble/ble Property/UUID conventions
// already used by the BLE CLI this repo grew out of.
package uuidreg

import "fmt"

// Uuid16 is a 16-bit Bluetooth SIG-assigned UUID.
type Uuid16 uint16

// Uuid128 is a full 128-bit UUID, stored exactly as it appears on the wire.
type Uuid128 [16]byte

// baseUUID is the BLE base UUID: 00000000-0000-1000-8000-00805f9b34fb.
// A Uuid128 is a lifted Uuid16 iff it matches this pattern everywhere
// except bytes [2..3].
var baseUUID = Uuid128{
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00,
	0x10, 0x00,
	0x80, 0x00,
	0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb,
}

// FromU16 lifts a 16-bit UUID into its 128-bit form by embedding it into
// the BLE base UUID at bytes [2..3], high byte first.
func FromU16(u Uuid16) Uuid128 {
	out := baseUUID
	out[2] = byte(u >> 8)
	out[3] = byte(u)
	return out
}

// ToU16 lowers a 128-bit UUID to its 16-bit form, if it is one.
func ToU16(u Uuid128) (Uuid16, bool) {
	for i, b := range baseUUID {
		if i == 2 || i == 3 {
			continue
		}
		if u[i] != b {
			return 0, false
		}
	}
	return Uuid16(u[2])<<8 | Uuid16(u[3]), true
}

// Equal reports whether two 128-bit UUIDs are byte-exact equal.
func Equal(a, b Uuid128) bool { return a == b }

// String renders a Uuid128 in canonical dashed hex form.
func (u Uuid128) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		u[0], u[1], u[2], u[3], u[4], u[5], u[6], u[7],
		u[8], u[9], u[10], u[11], u[12], u[13], u[14], u[15])
}

// names maps the 16-bit UUIDs this emulator cares about to a
// human-readable name, used only for diagnostics (logging, --dissect).
var names = map[Uuid16]string{
	0x1800: "Generic Access Service",
	0x1801: "Generic Attribute Service",
	0x180A: "Device Information Service",
	0x180D: "Heart Rate Service",
	0x180F: "Battery Service",
	0x1814: "Running Speed & Cadence Service",
	0x1816: "Cycling Speed & Cadence Service",
	0x1818: "Cycling Power Service",
	0x181C: "User Data Service",
	0x1826: "Fitness Machine Service",

	0x2A00: "Device Name",
	0x2A01: "Device Appearance",
	0x2A19: "Battery Level",
	0x2A24: "Model Number",
	0x2A25: "Serial Number",
	0x2A26: "Firmware Revision",
	0x2A27: "Hardware Revision",
	0x2A28: "Software Revision",
	0x2A29: "Manufacturer Name",
	0x2A37: "Heart Rate Measurement",
	0x2A38: "Body Sensor Location",
	0x2A53: "Running Speed & Cadence Measurement",
	0x2A54: "Running Speed & Cadence Feature",
	0x2A55: "Speed & Cadence Control Point",
	0x2A5B: "Cycling Speed & Cadence Measurement",
	0x2A5C: "Cycling Speed & Cadence Feature",
	0x2A5D: "Sensor Location",
	0x2A63: "Cycling Power Measurement",
	0x2A65: "Cycling Power Feature",
	0x2A66: "Cycling Power Control Point",
	0x2A98: "Weight",
	0x2ACC: "Fitness Machine Feature",
	0x2AD2: "Indoor Bike Data",
	0x2AD3: "Training Status",
	0x2AD6: "Supported Resistance Level Range",
	0x2AD8: "Supported Power Range",
	0x2AD9: "Fitness Machine Control Point",
	0x2ADA: "Fitness Machine Status",

	0x2902: "Client Characteristic Configuration",
}

// vendorNames is the parallel table for 128-bit UUIDs that have no
// 16-bit short form: vendor-specific extensions referenced by name only.
var vendorNames = map[Uuid128]string{
	mustParseVendor("0af2d5f0-f641-4a48-8f3c-1c53f51f0f03"): "Cycling Power Service Extension",
	mustParseVendor("6e400001-b5a3-f393-e0a9-e50e24dcca9e"): "GEM Firmware Update",
	mustParseVendor("726f5f0e-32ea-11ec-8d3d-0242ac130003"): "Fitness Equipment",
	mustParseVendor("a026ee0d-0a7d-4ab3-97fa-f1500f9feb8b"): "Fitness Machine",
}

func mustParseVendor(s string) Uuid128 {
	var out Uuid128
	n, err := fmt.Sscanf(s, "%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		&out[0], &out[1], &out[2], &out[3], &out[4], &out[5], &out[6], &out[7],
		&out[8], &out[9], &out[10], &out[11], &out[12], &out[13], &out[14], &out[15])
	if err != nil || n != 16 {
		panic(fmt.Sprintf("uuidreg: bad vendor literal %q: %v", s, err))
	}
	return out
}

// Name returns a fixed human-readable name for u, or "???" if unknown.
// Used only for diagnostics; never on the protocol-decision hot path.
func Name(u Uuid128) string {
	if u16, ok := ToU16(u); ok {
		if n, ok := names[u16]; ok {
			return n
		}
	}
	if n, ok := vendorNames[u]; ok {
		return n
	}
	return "???"
}
