package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePowerRange(t *testing.T) {
	min, max, inc, err := parsePowerRange("0,1500,1")
	require.NoError(t, err)
	assert.Equal(t, int16(0), min)
	assert.Equal(t, int16(1500), max)
	assert.Equal(t, uint16(1), inc)
}

func TestParsePowerRangeRejectsWrongFieldCount(t *testing.T) {
	_, _, _, err := parsePowerRange("0,1500")
	require.Error(t, err)
}

func TestParsePowerRangeRejectsNonNumeric(t *testing.T) {
	_, _, _, err := parsePowerRange("a,b,c")
	require.Error(t, err)
}

func TestPowerRangeValueSetRejectsInvalid(t *testing.T) {
	v := &powerRangeValue{}
	require.Error(t, v.Set("bogus"))
}

func TestPowerRangeValueSetAccepts(t *testing.T) {
	v := &powerRangeValue{}
	require.NoError(t, v.Set("10,2000,5"))
	assert.Equal(t, "10,2000,5", v.String())
}

func TestBuildConfigRejectsOutOfRangePort(t *testing.T) {
	orig := flagTCPPort
	defer func() { flagTCPPort = orig }()

	flagTCPPort = 80
	flagPowerRange = &powerRangeValue{raw: "0,1500,1"}

	_, err := buildConfig()
	require.Error(t, err)
}

func TestBuildConfigAppliesUnitScaling(t *testing.T) {
	origCadence, origSpeed, origPort := flagCadenceRPM, flagSpeedKph, flagTCPPort
	defer func() {
		flagCadenceRPM, flagSpeedKph, flagTCPPort = origCadence, origSpeed, origPort
	}()

	flagCadenceRPM = 90
	flagSpeedKph = 30
	flagTCPPort = 36866
	flagPowerRange = &powerRangeValue{raw: "0,1500,1"}

	cfg, err := buildConfig()
	require.NoError(t, err)
	assert.Equal(t, uint16(180), cfg.CadenceHalfRPM)
	assert.Equal(t, uint16(3000), cfg.SpeedCentiKph)
}
