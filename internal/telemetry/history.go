// Package telemetry keeps the rolling latency history behind the dashboard
// and derives the aggregates and graph series shown from it.
package telemetry

import (
	"math"

	"github.com/rileyhilliard/netcloak/internal/latency"
)

// DefaultHistorySize is the number of samples retained.
const DefaultHistorySize = 100

// History is a bounded, insertion-ordered buffer of successful latency
// averages. Unreachable samples are not stored. It is not safe for
// concurrent use; the session owns it and mutates it from one goroutine.
type History struct {
	buf *ringBuffer
}

// Stats are aggregates over the current history contents.
// Avg, Min, and Max are meaningless when Count is zero.
type Stats struct {
	Avg   float64
	Min   float64
	Max   float64
	Count int
}

// Valid reports whether the stats cover at least one sample.
func (s Stats) Valid() bool {
	return s.Count > 0
}

// NewHistory creates a history holding up to size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{buf: newRingBuffer(size)}
}

// Record appends the sample's average, evicting the oldest value at capacity.
// Unreachable samples are ignored.
func (h *History) Record(r latency.Result) {
	if !r.Reachable {
		return
	}
	h.buf.push(r.Avg)
}

// Clear empties the history.
func (h *History) Clear() {
	h.buf.reset()
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return h.buf.count
}

// Cap returns the maximum number of stored samples.
func (h *History) Cap() int {
	return h.buf.size
}

// Values returns a copy of the stored samples, oldest first.
func (h *History) Values() []float64 {
	return h.buf.getAll()
}

// Stats computes mean, min, and max over the stored samples.
func (h *History) Stats() Stats {
	values := h.buf.getAll()
	if len(values) == 0 {
		return Stats{}
	}

	s := Stats{Min: math.Inf(1), Max: math.Inf(-1), Count: len(values)}
	var sum float64
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Avg = sum / float64(len(values))
	return s
}

// Series returns the last width samples scaled to row buckets in
// [0, height-1], where height-1 is the bottom row and 0 the top. The lowest
// sample lands on the bottom row; when all samples are equal the range is
// taken as 1 so every point sits on the bottom row.
func (h *History) Series(width, height int) []int {
	if width <= 0 || height <= 0 {
		return nil
	}
	return Scale(h.buf.getLast(width), height)
}

// Scale maps values to row buckets the same way Series does.
func Scale(values []float64, height int) []int {
	if len(values) == 0 || height <= 0 {
		return nil
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	valueRange := maxVal - minVal
	if valueRange == 0 {
		valueRange = 1.0
	}

	top := float64(height - 1)
	buckets := make([]int, 0, len(values))
	for _, v := range values {
		bucket := int(math.Floor(top - ((v-minVal)/valueRange)*top))
		if bucket < 0 || bucket > height-1 {
			continue
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

// push adds a value, overwriting the oldest one when full.
func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// reset drops all values and zeroes the storage.
func (r *ringBuffer) reset() {
	for i := range r.data {
		r.data[i] = 0
	}
	r.head = 0
	r.count = 0
}

// getLast returns the last count values in chronological order (oldest first).
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}

	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)

	// head is the next write position, so the newest value is at head-1
	start := (r.head - count + r.size) % r.size

	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}

	return result
}

// getAll returns all stored values in chronological order.
func (r *ringBuffer) getAll() []float64 {
	return r.getLast(r.count)
}
