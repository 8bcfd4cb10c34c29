// Package stats summarises block-time deltas.
package stats

import (
	"math"
	"sort"
	"time"
)

// BlockTimes summarises the gaps between consecutive blocks.
type BlockTimes struct {
	Count    int
	Min, Max time.Duration
	Mean     time.Duration
	P50, P95 time.Duration
}

// SummarizeBlockTimes computes min, max, mean and tail percentiles over the
// non-nil deltas. The first row of a report has no delta, so nil entries are
// skipped rather than counted as zero.
//
// Percentiles use the nearest-rank method: with few samples P95 equals Max,
// which is what an operator expects from a short window.
func SummarizeBlockTimes(deltas []*time.Duration) BlockTimes {
	samples := make([]time.Duration, 0, len(deltas))
	for _, d := range deltas {
		if d != nil {
			samples = append(samples, *d)
		}
	}
	if len(samples) == 0 {
		return BlockTimes{}
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	var total time.Duration
	for _, s := range samples {
		total += s
	}

	return BlockTimes{
		Count: len(samples),
		Min:   samples[0],
		Max:   samples[len(samples)-1],
		Mean:  total / time.Duration(len(samples)),
		P50:   Percentile(samples, 0.50),
		P95:   Percentile(samples, 0.95),
	}
}

// Percentile returns the value at percentile p (0..1) of an ascending slice.
//
// Formula: index = ceil(n * p) - 1, clamped to [0, n-1]
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}

	return sorted[index]
}
