package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueDrainsForwardOnlyInOrder(t *testing.T) {
	q := NewQueue([]Sample{
		{TimestampSec: 1, Power: 100},
		{TimestampSec: 2, Power: 150},
		{TimestampSec: 3, Power: 200},
	})
	require.Equal(t, 3, q.Len())

	s1, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, uint16(100), s1.Power)
	require.Equal(t, 2, q.Len())

	s2, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, uint16(150), s2.Power)

	s3, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, uint16(200), s3.Power)

	_, ok = q.Next()
	require.False(t, ok)
	require.Equal(t, 0, q.Len())
}

func TestEmptyQueueAlwaysExhausted(t *testing.T) {
	q := NewQueue(nil)
	_, ok := q.Next()
	require.False(t, ok)
}
