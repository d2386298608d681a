package swap

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Rate Series Normalization
// ════════════════════════════════════════════════════════════════════

// Sentinel errors shared across the package.
var (
	// ErrNoData is returned when an operation needs a non-empty rate
	// series and none is available.
	ErrNoData = errors.New("no rate data available")

	// ErrNoSafeRate is returned when the safety search cannot verify
	// any fixed rate within its search bounds.
	ErrNoSafeRate = errors.New("no safe fixed rate found within search bounds")

	// ErrUnknownPolicy is returned for an unrecognized rate policy name.
	ErrUnknownPolicy = errors.New("unknown fixed-rate policy")
)

// RateObservation is one normalized point of a market's rate history.
// Rates are annualized decimal fractions (0.05 = 5%), never percents.
type RateObservation struct {
	Timestamp    int64   `json:"timestamp"` // unix seconds
	BorrowAnnual float64 `json:"borrow_annual"`
	SupplyAnnual float64 `json:"supply_annual"`
}

// Normalize converts raw rate points into a chronologically ascending
// series of decimal-fraction observations.
//
// Sources disagree on units: some report 0.05, others 5.0 for the same
// five percent. The detection rule is the mean across the whole series —
// if the mean borrow rate exceeds 1.0 the series is taken to be in
// percent and every value is divided by 100. The rule is a heuristic: it
// misreads a genuine >100%-mean series, which does not occur on the
// markets this tool targets.
func Normalize(points []models.RatePoint) ([]RateObservation, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("normalize: %w", ErrNoData)
	}

	// Source order is not trusted; sort oldest first. Stable so
	// duplicate timestamps keep their input order.
	sorted := make([]models.RatePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	sum := 0.0
	for _, p := range sorted {
		sum += p.BorrowRate
	}
	scale := 1.0
	if sum/float64(len(sorted)) > 1.0 {
		scale = 1.0 / 100.0
	}

	obs := make([]RateObservation, len(sorted))
	for i, p := range sorted {
		obs[i] = RateObservation{
			Timestamp:    p.Timestamp,
			BorrowAnnual: p.BorrowRate * scale,
			SupplyAnnual: p.SupplyRate * scale,
		}
	}
	return obs, nil
}

// Window returns the most recent n observations (the full series when n
// exceeds its length or is non-positive).
func Window(obs []RateObservation, n int) []RateObservation {
	if n <= 0 || n >= len(obs) {
		return obs
	}
	return obs[len(obs)-n:]
}

// BorrowSeries extracts the borrow-rate column.
func BorrowSeries(obs []RateObservation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.BorrowAnnual
	}
	return out
}

// SupplySeries extracts the supply-rate column.
func SupplySeries(obs []RateObservation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.SupplyAnnual
	}
	return out
}

// DailyRate converts an annualized rate to its daily compounding
// equivalent: (1 + annual)^(1/365) - 1.
func DailyRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/365.0) - 1
}
