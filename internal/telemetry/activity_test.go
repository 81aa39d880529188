package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadActivityFileParsesRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ride.csv")
	writeFile(t, path, "timestamp,cadence,heartRate,power,speed\n"+
		"1000,80,120,180,8.0\n"+
		"1001,82,121,185,8.1\n")

	samples, err := LoadActivityFile(path)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	require.Equal(t, int64(1000), samples[0].TimestampSec)
	require.Equal(t, uint16(160), samples[0].CadenceHalfRPM)
	require.Equal(t, uint8(120), samples[0].HeartRate)
	require.Equal(t, uint16(180), samples[0].Power)
	require.Equal(t, uint16(2880), samples[0].SpeedCentiKph)
}

func TestLoadActivityFileWithoutHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ride.csv")
	writeFile(t, path, "1000,80,120,180,8.0\n")

	samples, err := LoadActivityFile(path)
	require.NoError(t, err)
	require.Len(t, samples, 1)
}

func TestLoadActivityFileRejectsMissingFile(t *testing.T) {
	_, err := LoadActivityFile("/nonexistent/path.csv")
	require.Error(t, err)
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
