package dirconproto

// FMCP opcodes (Fitness Machine Control Point), grounded on the FMCP_*
// defines in indBikeSim's ftms.h. Only the subset spec.md names is
// handled; the rest are recognized as "other" (OpCodeNotSupported).
const (
	FmcpRequestControl        uint8 = 0x00
	FmcpReset                 uint8 = 0x01
	FmcpSetTargetSpeed        uint8 = 0x02
	FmcpSetTargetInclination  uint8 = 0x03
	FmcpSetTargetResistance   uint8 = 0x04
	FmcpSetTargetPower        uint8 = 0x05
	FmcpSetTargetHeartRate    uint8 = 0x06
	FmcpStartOrResume         uint8 = 0x07
	FmcpStopOrPause           uint8 = 0x08
	FmcpSetIndoorBikeSimParms uint8 = 0x11
	FmcpSetWheelCircumference uint8 = 0x12
)

// FmcpResponseCode is the fixed response-code byte (0x80) that begins
// every FMCP notification body, per FTMS 4.16.2.22.
const FmcpResponseCode uint8 = 0x80

// FMCP result codes (spec §8 scenario 5 pins Success=0x01,
// ControlNotPermitted=0x05).
const (
	FmcpResultSuccess              uint8 = 0x01
	FmcpResultOpCodeNotSupported   uint8 = 0x02
	FmcpResultInvalidParameter     uint8 = 0x03
	FmcpResultOperationFailed      uint8 = 0x04
	FmcpResultControlNotPermitted  uint8 = 0x05
)

// Fitness Machine Feature bits (FTMS 4.3.1.1), 32-bit little-endian on
// the wire. Only the bits this emulator advertises are named.
const (
	FmFeatureCadence       uint32 = 1 << 1
	FmFeatureHeartRate     uint32 = 1 << 10
	FmFeaturePowerMeasure  uint32 = 1 << 14
)

// Target Setting Feature bits (FTMS 4.3.1.2).
const (
	TsFeaturePower           uint32 = 1 << 3
	TsFeatureIndoorBikeSim   uint32 = 1 << 13
)

// Indoor Bike Data flags (FTMS 4.9.1.1), 16-bit little-endian.
const (
	IbdFlagInstantaneousCadence uint16 = 1 << 2
	IbdFlagInstantaneousPower   uint16 = 1 << 6
	IbdFlagHeartRate            uint16 = 1 << 9
)
