// Package config holds the emulator's ambient configuration plus
// logger construction, grounded on the BLE CLI's pkg/config/config.go
// (same DefaultConfig + NewLogger shape) and its cmd/blim/logging.go
// precedence rules.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
)

// Config holds every flag named in spec §6.
type Config struct {
	ActivityPath   string `default:""`
	CadenceHalfRPM uint16 `default:"0"`
	SpeedCentiKph  uint16 `default:"0"`
	Power          uint16 `default:"0"`
	HeartRate      uint8  `default:"0"`

	PowerRangeMin int16  `default:"0"`
	PowerRangeMax int16  `default:"1500"`
	PowerRangeInc uint16 `default:"1"`

	TCPPort   int    `default:"36866"`
	IPAddress string `default:""`
	NoMDNS    bool   `default:"false"`

	LogLevel string `default:"none"`
	LogDest  string `default:"console"`

	Dissect string `default:""`
	HexDump bool   `default:"false"`
}

// DefaultConfig returns the documented flag defaults (spec §6), populated
// from the struct's `default:` tags the same way the teacher seeds its
// own Config zero value.
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// logLevel maps the --log-level flag's four values onto logrus levels.
// "none" maps to PanicLevel, the same "effectively silent" trick the
// teacher's configureLogger uses for its own silent default.
func (c *Config) logLevel() (logrus.Level, error) {
	switch c.LogLevel {
	case "none", "":
		return logrus.PanicLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "trace":
		return logrus.TraceLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (must be none, info, trace, or debug)", c.LogLevel)
	}
}

// NewLogger builds a logrus.Logger per --log-level/--log-dest.
func (c *Config) NewLogger(logFilePath string) (*logrus.Logger, error) {
	level, err := c.logLevel()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	out, err := c.destWriter(logFilePath)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(out)

	return logger, nil
}

func (c *Config) destWriter(logFilePath string) (io.Writer, error) {
	switch c.LogDest {
	case "console", "":
		return os.Stdout, nil
	case "file":
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return f, nil
	case "both":
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return io.MultiWriter(os.Stdout, f), nil
	default:
		return nil, fmt.Errorf("invalid log destination: %s (must be console, file, or both)", c.LogDest)
	}
}
