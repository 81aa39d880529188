package mdnsresponder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdvertiseTimerBurstThenPeriodic(t *testing.T) {
	at := NewAdvertiseTimer()
	now := time.Now()

	fire, isResp := at.Due(now)
	require.True(t, fire)
	require.False(t, isResp)
	at.RecordSent()

	// Too soon for the second probe.
	fire, _ = at.Due(now.Add(100 * time.Millisecond))
	require.False(t, fire)

	fire, isResp = at.Due(now.Add(InitialBurstSpacing))
	require.True(t, fire)
	require.False(t, isResp)
	at.RecordSent()

	fire, isResp = at.Due(now.Add(2 * InitialBurstSpacing))
	require.True(t, fire)
	require.False(t, isResp)
	at.RecordSent()

	// Fourth call: the one-time advertisement response.
	fire, isResp = at.Due(now.Add(2 * InitialBurstSpacing))
	require.True(t, fire)
	require.True(t, isResp)
	at.RecordSent()

	// Not due again until AdvertiseInterval has passed.
	fire, _ = at.Due(now.Add(3 * time.Second))
	require.False(t, fire)

	fire, isResp = at.Due(now.Add(2*InitialBurstSpacing + AdvertiseInterval))
	require.True(t, fire)
	require.False(t, isResp)
}
