package exchange

import "sync/atomic"

// Metrics tracks per-adapter translation counters. The unknown-status
// counter exists so silent protocol drift stays detectable even though
// unmapped statuses pass through as data rather than errors.
type Metrics struct {
	frames          atomic.Int64
	droppedFrames   atomic.Int64
	unknownStatuses atomic.Int64
}

// RecordFrame counts one handled frame.
func (m *Metrics) RecordFrame() {
	m.frames.Add(1)
}

// RecordDropped counts one malformed or unrecognized frame dropped.
func (m *Metrics) RecordDropped() {
	m.droppedFrames.Add(1)
}

// RecordUnknownStatus counts one order status passed through untranslated.
func (m *Metrics) RecordUnknownStatus() {
	m.unknownStatuses.Add(1)
}

// Snapshot returns a point-in-time capture of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Frames:          m.frames.Load(),
		DroppedFrames:   m.droppedFrames.Load(),
		UnknownStatuses: m.unknownStatuses.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of adapter counters.
type MetricsSnapshot struct {
	// Frames is the number of frames handled.
	Frames int64
	// DroppedFrames is the number of frames dropped as malformed or unrecognized.
	DroppedFrames int64
	// UnknownStatuses is the number of order statuses passed through untranslated.
	UnknownStatuses int64
}
