package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadActivityFile parses an activity track file into samples in the
// order the rows appear in the file; rows are not sorted by timestamp.
// The format is opaque per spec §1; this
// emulator accepts a plain CSV with one TrkPt per row:
// timestampUnixSec,cadenceRPM,heartRateBPM,powerWatts,speedMetersPerSec
// grounded on the field set of TrkPt in trkpt.h from the indBikeSim C
// original. A header row is tolerated and skipped if its first field
// does not parse as an integer.
func LoadActivityFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open activity file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	r.TrimLeadingSpace = true

	var samples []Sample
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("telemetry: parse activity file: %w", err)
		}

		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			if first {
				first = false
				continue // header row
			}
			return nil, fmt.Errorf("telemetry: invalid timestamp %q: %w", record[0], err)
		}
		first = false

		cadenceRPM, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("telemetry: invalid cadence %q: %w", record[1], err)
		}
		heartRate, err := strconv.ParseUint(record[2], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("telemetry: invalid heart rate %q: %w", record[2], err)
		}
		power, err := strconv.ParseUint(record[3], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("telemetry: invalid power %q: %w", record[3], err)
		}
		speedMps, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("telemetry: invalid speed %q: %w", record[4], err)
		}

		samples = append(samples, Sample{
			TimestampSec:   ts,
			SpeedCentiKph:  uint16(speedMps * 3.6 * 100),
			CadenceHalfRPM: uint16(cadenceRPM * 2),
			Power:          uint16(power),
			HeartRate:      uint8(heartRate),
		})
	}

	return samples, nil
}
