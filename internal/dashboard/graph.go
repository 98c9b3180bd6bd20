package dashboard

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// GraphGlyph marks one sample in the latency graph.
const GraphGlyph = "▄"

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderGraph draws scaled row buckets as a height-row plot, one column per
// bucket. Bucket 0 is the top row and height-1 the bottom row. The min and
// max of values are printed underneath.
func RenderGraph(buckets []int, values []float64, width, height int) string {
	if len(buckets) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	if len(buckets) > width {
		buckets = buckets[len(buckets)-width:]
	}

	rows := make([][]string, height)
	for r := range rows {
		rows[r] = make([]string, len(buckets))
		for c := range rows[r] {
			rows[r][c] = " "
		}
	}
	for c, b := range buckets {
		if b < 0 || b >= height {
			continue
		}
		rows[b][c] = GraphGlyph
	}

	lines := make([]string, 0, height+1)
	for _, row := range rows {
		lines = append(lines, GraphStyle.Render(strings.Join(row, "")))
	}
	lines = append(lines, graphLabels(values, width))
	return strings.Join(lines, "\n")
}

// graphLabels renders "<min>ms" at the left edge and "<max>ms" at the right.
func graphLabels(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}

	left := fmt.Sprintf("%.0fms", minVal)
	right := fmt.Sprintf("%.0fms", maxVal)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return MutedStyle.Render(left + strings.Repeat(" ", gap) + right)
}

// GraphWidth is the graph width for a terminal of cols columns, capped at
// maxWidth.
func GraphWidth(cols, maxWidth int) int {
	if cols <= 0 {
		return maxWidth
	}
	w := cols - 10
	if w > maxWidth {
		w = maxWidth
	}
	if w < 1 {
		w = 1
	}
	return w
}

// RenderSparkline renders the most recent width values as a single line of
// block characters, colored by the last value against t.
func RenderSparkline(data []float64, width int, t Thresholds) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	var sb strings.Builder
	sb.Grow(len(data) * 4)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		level := 0
		if valueRange > 0 {
			level = int((v - minVal) / valueRange * float64(numLevels-1))
			if level < 0 {
				level = 0
			} else if level >= numLevels {
				level = numLevels - 1
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return lipgloss.NewStyle().Foreground(t.LatencyColor(data[len(data)-1])).Render(sb.String())
}
