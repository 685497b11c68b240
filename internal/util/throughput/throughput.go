// Package throughput converts transfer measurements into speeds and
// operator-facing time estimates.
package throughput

import (
	"fmt"
	"math"
	"time"
)

const bytesPerMB = 1024 * 1024

// BytesToMB converts a byte count to megabytes (MiB).
func BytesToMB(bytes int64) float64 {
	return float64(bytes) / bytesPerMB
}

// SpeedMBps returns the transfer speed in MB/s.
// A zero or negative elapsed time yields 0 rather than dividing by zero.
func SpeedMBps(bytes int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return BytesToMB(bytes) / secs
}

// AverageSpeed returns the arithmetic mean of the samples, or 0 if empty.
func AverageSpeed(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// FormatDuration renders a number of seconds as HH:MM:SS.
// Fractions are truncated and hours are not wrapped at 24.
// Negative inputs and values outside the int64 range render as zero.
func FormatDuration(seconds float64) string {
	if !inRange(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	hours := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, mins, secs)
}

// Estimate returns the HH:MM:SS time to move sizeBytes at avgMBps.
// ok is false when no estimate can be made.
func Estimate(sizeBytes int64, avgMBps float64) (string, bool) {
	if sizeBytes <= 0 || avgMBps <= 0 {
		return "", false
	}
	secs := BytesToMB(sizeBytes) / avgMBps
	if !inRange(secs) {
		return "", false
	}
	return FormatDuration(secs), true
}

// inRange reports whether seconds is finite and converts to int64 exactly
// enough for formatting.
func inRange(seconds float64) bool {
	return !math.IsNaN(seconds) && !math.IsInf(seconds, 0) && math.Abs(seconds) < math.MaxInt64
}
