package telemetry

import (
	"testing"

	"github.com/rileyhilliard/netcloak/internal/latency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(avg float64) latency.Result {
	return latency.Result{Min: avg, Avg: avg, Max: avg, Reachable: true}
}

func fill(h *History, values ...float64) {
	for _, v := range values {
		h.Record(sample(v))
	}
}

func TestNewHistory(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultHistorySize},
		{"negative size", -1, DefaultHistorySize},
		{"custom size", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(tt.size)
			assert.Equal(t, tt.expected, h.Cap())
			assert.Equal(t, 0, h.Len())
		})
	}
}

func TestRecord_SkipsUnreachable(t *testing.T) {
	h := NewHistory(0)

	h.Record(sample(20))
	h.Record(latency.Unreachable())
	h.Record(sample(30))

	assert.Equal(t, []float64{20, 30}, h.Values())
}

func TestRecord_UsesAverage(t *testing.T) {
	h := NewHistory(0)
	h.Record(latency.Result{Min: 10, Avg: 15, Max: 40, Reachable: true})
	assert.Equal(t, []float64{15}, h.Values())
}

func TestRecord_EvictsOldestAtCapacity(t *testing.T) {
	h := NewHistory(DefaultHistorySize)

	for i := 0; i < 150; i++ {
		h.Record(sample(float64(i)))
		require.LessOrEqual(t, h.Len(), DefaultHistorySize)
	}

	values := h.Values()
	require.Len(t, values, 100)
	for i, v := range values {
		assert.Equal(t, float64(i+50), v, "position %d", i)
	}
}

func TestRecord_EvictsExactlyOne(t *testing.T) {
	h := NewHistory(3)
	fill(h, 1, 2, 3)
	assert.Equal(t, []float64{1, 2, 3}, h.Values())

	h.Record(sample(4))
	assert.Equal(t, []float64{2, 3, 4}, h.Values())
}

func TestClear(t *testing.T) {
	h := NewHistory(5)
	fill(h, 1, 2, 3, 4, 5, 6)

	h.Clear()

	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.Values())
	assert.False(t, h.Stats().Valid())

	fill(h, 9)
	assert.Equal(t, []float64{9}, h.Values(), "no stale data after clear")
}

func TestStats(t *testing.T) {
	h := NewHistory(0)

	empty := h.Stats()
	assert.False(t, empty.Valid())
	assert.Equal(t, 0, empty.Count)

	fill(h, 50, 100, 150)
	s := h.Stats()
	assert.True(t, s.Valid())
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 100, s.Avg, 1e-9)
	assert.Equal(t, 50.0, s.Min)
	assert.Equal(t, 150.0, s.Max)
}

func TestSeries_SingleSampleAtBottom(t *testing.T) {
	h := NewHistory(0)
	fill(h, 42)

	assert.Equal(t, []int{7}, h.Series(10, 8))
}

func TestSeries_ConstantSeriesAtBottom(t *testing.T) {
	h := NewHistory(0)
	fill(h, 10, 10, 10)

	assert.Equal(t, []int{7, 7, 7}, h.Series(10, 8))
}

func TestSeries_Scaling(t *testing.T) {
	h := NewHistory(0)
	fill(h, 0, 50, 100)

	// min at bottom (7), max at top (0), midpoint floor(7 - 3.5) = 3
	assert.Equal(t, []int{7, 3, 0}, h.Series(10, 8))
}

func TestSeries_WidthBound(t *testing.T) {
	h := NewHistory(0)
	fill(h, 1, 2, 3, 4, 5, 100, 200)

	series := h.Series(2, 8)
	require.Len(t, series, 2)
	assert.Equal(t, []int{7, 0}, series, "scaled over the visible window only")
}

func TestSeries_DoesNotMutate(t *testing.T) {
	h := NewHistory(0)
	fill(h, 5, 6, 7)

	first := h.Series(10, 8)
	second := h.Series(10, 8)

	assert.Equal(t, first, second)
	assert.Equal(t, []float64{5, 6, 7}, h.Values())
}

func TestSeries_Degenerate(t *testing.T) {
	h := NewHistory(0)
	assert.Nil(t, h.Series(10, 8), "empty history")

	fill(h, 1, 2)
	assert.Nil(t, h.Series(0, 8))
	assert.Nil(t, h.Series(10, 0))
	assert.Equal(t, []int{0, 0}, h.Series(10, 1), "a single row holds every point")
}

func TestSeries_AllBucketsInRange(t *testing.T) {
	h := NewHistory(0)
	fill(h, 12.5, 99.1, 0.3, 47.7, 300, 18, 18, 250.25)

	for height := 1; height <= 12; height++ {
		for _, b := range h.Series(60, height) {
			assert.GreaterOrEqual(t, b, 0)
			assert.LessOrEqual(t, b, height-1)
		}
	}
}

func TestRingBuffer_Wraparound(t *testing.T) {
	r := newRingBuffer(4)
	for i := 1; i <= 6; i++ {
		r.push(float64(i))
	}

	assert.Equal(t, []float64{3, 4, 5, 6}, r.getAll())
	assert.Equal(t, []float64{5, 6}, r.getLast(2))
	assert.Nil(t, r.getLast(0))
}
