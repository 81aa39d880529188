package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/srg/dirconsim/pkg/config"
)

// powerRangeValue is a pflag.Value that parses and validates
// --supported-power-range (min,max,inc) at flag-parse time rather than
// deferring to buildConfig, the idiomatic pflag.Var pattern the cobra
// ecosystem uses for structured flag values.
type powerRangeValue struct {
	raw string
}

func (v *powerRangeValue) String() string { return v.raw }
func (v *powerRangeValue) Type() string   { return "min,max,inc" }
func (v *powerRangeValue) Set(s string) error {
	if _, _, _, err := parsePowerRange(s); err != nil {
		return err
	}
	v.raw = s
	return nil
}

var _ pflag.Value = (*powerRangeValue)(nil)

var (
	flagActivity           string
	flagCadenceRPM         uint16
	flagSpeedKph           uint16
	flagPower              uint16
	flagHeartRate          uint8
	flagPowerRange         = &powerRangeValue{raw: "0,1500,1"}
	flagTCPPort            int
	flagIPAddress          string
	flagNoMDNS             bool
	flagLogLevel           string
	flagLogDest            string
	flagDissect            string
	flagHexDump            bool
)

func registerFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()

	cmd.Flags().StringVar(&flagActivity, "activity", def.ActivityPath, "Path to an activity track file (CSV: timestamp,cadence,heartRate,power,speed)")
	cmd.Flags().Uint16Var(&flagCadenceRPM, "cadence", 0, "Constant cadence, in RPM (stored x2 per FTMS half-rpm unit)")
	cmd.Flags().Uint16Var(&flagSpeedKph, "speed", 0, "Constant speed, in kph (stored x100)")
	cmd.Flags().Uint16Var(&flagPower, "power", def.Power, "Constant power, in watts")
	cmd.Flags().Uint8Var(&flagHeartRate, "heart-rate", def.HeartRate, "Constant heart rate, in bpm")
	cmd.Flags().Var(flagPowerRange, "supported-power-range", "Supported power range as min,max,inc")
	cmd.Flags().IntVar(&flagTCPPort, "tcp-port", def.TCPPort, "DIRCON TCP listen port (1024-49151)")
	cmd.Flags().StringVar(&flagIPAddress, "ip-address", def.IPAddress, "Bind IPv4 address (default: first non-loopback interface)")
	cmd.Flags().BoolVar(&flagNoMDNS, "no-mdns", def.NoMDNS, "Disable the mDNS advertisement/discovery agent")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", def.LogLevel, "Log level: none, info, trace, debug")
	cmd.Flags().StringVar(&flagLogDest, "log-dest", def.LogDest, "Log destination: console, file, both")
	cmd.Flags().StringVar(&flagDissect, "dissect", def.Dissect, "Dissect and log frames matching this message id, or \"all\"")
	cmd.Flags().BoolVar(&flagHexDump, "hex-dump", def.HexDump, "Include a hex dump of each dissected frame")
}

// buildConfig validates and assembles a config.Config from the parsed flags.
func buildConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.ActivityPath = flagActivity
	cfg.CadenceHalfRPM = flagCadenceRPM * 2
	cfg.SpeedCentiKph = flagSpeedKph * 100
	cfg.Power = flagPower
	cfg.HeartRate = flagHeartRate
	cfg.TCPPort = flagTCPPort
	cfg.IPAddress = flagIPAddress
	cfg.NoMDNS = flagNoMDNS
	cfg.LogLevel = flagLogLevel
	cfg.LogDest = flagLogDest
	cfg.Dissect = flagDissect
	cfg.HexDump = flagHexDump

	if cfg.TCPPort < 1024 || cfg.TCPPort > 49151 {
		return nil, fmt.Errorf("%w: --tcp-port must be in 1024..49151, got %d", ErrInvalidFlag, cfg.TCPPort)
	}

	min, max, inc, err := parsePowerRange(flagPowerRange.raw)
	if err != nil {
		return nil, err
	}
	cfg.PowerRangeMin = min
	cfg.PowerRangeMax = max
	cfg.PowerRangeInc = inc

	return cfg, nil
}

func parsePowerRange(s string) (min, max int16, inc uint16, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: expected min,max,inc, got %q", ErrInvalidFlag, s)
	}
	minV, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 16)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrInvalidFlag, err)
	}
	maxV, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 16)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrInvalidFlag, err)
	}
	incV, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 16)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: %s", ErrInvalidFlag, err)
	}
	return int16(minV), int16(maxV), uint16(incV), nil
}
