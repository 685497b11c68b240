package fetcher

import (
	"github.com/vertextoedge/index-mirror/internal/util/throughput"
)

// SpeedTracker holds the MB/s samples of the transfers completed in the
// current run. It has a single owner and is not safe for concurrent use.
type SpeedTracker struct {
	samples []float64
}

// NewSpeedTracker creates an empty tracker
func NewSpeedTracker() *SpeedTracker {
	return &SpeedTracker{}
}

// Add appends a sample
func (s *SpeedTracker) Add(mbps float64) {
	s.samples = append(s.samples, mbps)
}

// Average returns the running mean, 0 when no sample exists
func (s *SpeedTracker) Average() float64 {
	return throughput.AverageSpeed(s.samples)
}

// Len returns the number of samples
func (s *SpeedTracker) Len() int {
	return len(s.samples)
}

// Reset drops all samples
func (s *SpeedTracker) Reset() {
	s.samples = nil
}
