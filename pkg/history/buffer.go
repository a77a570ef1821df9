package history

import (
	"slices"
	"sync"
	"time"

	"github.com/charlie0129/bmslink/pkg/types"
)

// DefaultCapacity is the number of samples kept for the live chart.
const DefaultCapacity = 40

// Buffer records the last N cell voltage samples in insertion order.
type Buffer struct {
	MaxRecordCount int

	samples []types.HistorySample
	// seriesCount follows the cell count of the newest sample.
	seriesCount int
	mu          *sync.Mutex
}

// NewBuffer returns a Buffer holding at most maxRecordCount samples.
func NewBuffer(maxRecordCount int) *Buffer {
	if maxRecordCount <= 0 {
		maxRecordCount = DefaultCapacity
	}
	return &Buffer{
		MaxRecordCount: maxRecordCount,
		samples:        make([]types.HistorySample, 0, maxRecordCount),
		mu:             &sync.Mutex{},
	}
}

// AddRecordNow appends cells stamped with the current time.
func (b *Buffer) AddRecordNow(cells []float64) {
	b.Append(types.HistorySample{
		// Round to strip the monotonic clock reading.
		Timestamp:    time.Now().Round(0),
		CellVoltages: cells,
	})
}

// Append adds s, evicting the oldest sample first when full. The number of
// series grows or shrinks to the cell count of s.
func (b *Buffer) Append(s types.HistorySample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s.Timestamp = s.Timestamp.Round(0)
	s.CellVoltages = slices.Clone(s.CellVoltages)

	if len(b.samples) >= b.MaxRecordCount {
		// Shift rather than overwrite in place so the order never changes.
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:len(b.samples)-1]
	}
	b.samples = append(b.samples, s)
	b.seriesCount = len(s.CellVoltages)
}

// Clear removes every sample.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = make([]types.HistorySample, 0, b.MaxRecordCount)
	b.seriesCount = 0
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Samples returns a copy of the samples, oldest first.
func (b *Buffer) Samples() []types.HistorySample {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]types.HistorySample, len(b.samples))
	for i, s := range b.samples {
		out[i] = types.HistorySample{
			Timestamp:    s.Timestamp,
			CellVoltages: slices.Clone(s.CellVoltages),
		}
	}
	return out
}

// Series is a chart-ready view of the buffer. Datasets[c][i] is the value
// of cell c at Labels[i], or nil when sample i had no such cell.
type Series struct {
	Labels   []time.Time  `json:"labels"`
	Datasets [][]*float64 `json:"datasets"`
}

// Series returns the chart view. Series beyond the newest sample's cell
// count are dropped.
func (b *Buffer) Series() Series {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := Series{
		Labels:   make([]time.Time, len(b.samples)),
		Datasets: make([][]*float64, b.seriesCount),
	}
	for c := range out.Datasets {
		out.Datasets[c] = make([]*float64, len(b.samples))
	}
	for i, s := range b.samples {
		out.Labels[i] = s.Timestamp
		for c := 0; c < b.seriesCount && c < len(s.CellVoltages); c++ {
			v := s.CellVoltages[c]
			out.Datasets[c][i] = &v
		}
	}
	return out
}
