// Package telemetry implements the lazy, finite, forward-only sequence
// of bike samples consumed by the notification scheduler: either a
// fixed configured value, or the next record drained from a parsed
// activity file. Grounded on trkpt.h/trkpt.c (the TrkPt FIFO) in the
// indBikeSim C original, and on the BLE CLI's
// internal/lua/ringchan.go pattern of wrapping a channel as a
// producer-drained queue -- here via github.com/hedzr/go-ringbuf/v2,
// which (unlike RingChannel's overwrite-oldest semantics) gives the
// plain bounded FIFO this component needs.
package telemetry

import (
	ringbuf "github.com/hedzr/go-ringbuf/v2"
)

// Sample is one telemetry record: a monotonic timestamp plus the four
// metrics an Indoor-Bike-Data notification carries (spec §3).
type Sample struct {
	TimestampSec int64
	SpeedCentiKph   uint16 // kph x 100
	CadenceHalfRPM  uint16 // rpm x 2
	Power           uint16 // watts
	HeartRate       uint8  // bpm
}

// Source is the external collaborator's contract: a stream of samples
// whose format is opaque to the emulator core (spec §1).
type Source interface {
	// Next returns the next sample and true, or the zero value and
	// false if the stream is exhausted.
	Next() (Sample, bool)
	// Len reports how many samples remain.
	Len() int
}

// Queue is a finite FIFO of samples loaded once at init from an
// activity file and drained one sample per 1 Hz tick.
type Queue struct {
	rb ringbuf.RingBuffer[Sample]
}

// NewQueue builds a Queue pre-loaded with samples, sized to hold them all.
func NewQueue(samples []Sample) *Queue {
	capacity := len(samples)
	if capacity == 0 {
		capacity = 1
	}
	rb := ringbuf.New[Sample](uint32(capacity))
	for _, s := range samples {
		_, _ = rb.Enqueue(s)
	}
	return &Queue{rb: rb}
}

// Next drains and returns the head sample, if any.
func (q *Queue) Next() (Sample, bool) {
	v, ok := q.rb.Dequeue()
	if !ok {
		return Sample{}, false
	}
	return v, true
}

// Len reports the number of samples remaining in the queue.
func (q *Queue) Len() int { return int(q.rb.Size()) }

var _ Source = (*Queue)(nil)
