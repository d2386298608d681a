package swap

import (
	"fmt"
	"math"
	"sort"
)

// ════════════════════════════════════════════════════════════════════
// Rate Series Statistics
// ════════════════════════════════════════════════════════════════════

// RateStats summarizes a rate window the way the policy layer and the
// reports consume it.
type RateStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P95    float64 `json:"p95"`
}

// ComputeRateStats computes summary statistics over an annualized rate
// series. The series must be non-empty.
func ComputeRateStats(series []float64) (RateStats, error) {
	if len(series) == 0 {
		return RateStats{}, fmt.Errorf("rate stats: %w", ErrNoData)
	}

	s := RateStats{
		Count:  len(series),
		Mean:   mean(series),
		StdDev: stddev(series),
		Min:    series[0],
		Max:    series[0],
	}
	for _, v := range series {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)
	s.Median = percentile(sorted, 50)
	s.P95 = percentile(sorted, 95)
	return s, nil
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func stddev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	m := mean(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1)) // sample stddev
}

// percentile computes the p-th percentile of pre-sorted data using
// linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func maxOf(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m := data[0]
	for _, v := range data {
		if v > m {
			m = v
		}
	}
	return m
}
