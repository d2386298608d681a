package swap

import (
	"fmt"
	"math/rand"
)

// ════════════════════════════════════════════════════════════════════
// Floating Rate Forecast — mean-reverting AR(1)
// ════════════════════════════════════════════════════════════════════

// ForecastConfig tunes the mean-reverting projection.
type ForecastConfig struct {
	Horizon     int     // number of future days to project
	FallbackPhi float64 // persistence used when autocorrelation is undefined (default: 0.8)
	ShockStdDev float64 // stddev of the per-step Gaussian shock; 0 disables
	Seed        int64   // RNG seed for the shock term, fixed for reproducibility
}

// DefaultForecastConfig returns the standard projection settings:
// 30-day horizon, 0.8 fallback persistence, no stochastic shock.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Horizon:     30,
		FallbackPhi: 0.8,
	}
}

// Forecast projects an annualized rate series forward by cfg.Horizon
// days using a mean-reverting AR(1) recursion:
//
//	next = mu + phi*(cur - mu) [+ shock]
//
// where mu is the historical mean and phi the lag-1 autocorrelation of
// the series, clipped to [-0.99, 0.99]. Projected rates are clamped to
// be non-negative. With a fixed Seed the output is deterministic for
// identical inputs.
//
// This is a smoothing heuristic, not a validated econometric model; it
// produces a plausible reversion path for what-if simulation, nothing
// more.
func Forecast(series []float64, cfg ForecastConfig) ([]float64, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("forecast: %w", ErrNoData)
	}
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("forecast: horizon must be positive, got %d", cfg.Horizon)
	}
	if cfg.FallbackPhi == 0 {
		cfg.FallbackPhi = DefaultForecastConfig().FallbackPhi
	}

	mu := mean(series)
	phi := lag1Autocorr(series, mu, cfg.FallbackPhi)

	var rng *rand.Rand
	if cfg.ShockStdDev > 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}

	out := make([]float64, 0, cfg.Horizon)
	cur := series[len(series)-1]
	for i := 0; i < cfg.Horizon; i++ {
		next := mu + phi*(cur-mu)
		if rng != nil {
			next += rng.NormFloat64() * cfg.ShockStdDev
		}
		if next < 0 {
			next = 0 // rates cannot go negative in this model
		}
		out = append(out, next)
		cur = next
	}
	return out, nil
}

// lag1Autocorr estimates the lag-1 autocorrelation of the series around
// mu. Falls back to the configured persistence when the series is too
// short or the denominator degenerates (e.g., a constant series).
func lag1Autocorr(series []float64, mu, fallback float64) float64 {
	if len(series) < 2 {
		return fallback
	}

	var num, den float64
	for i := 1; i < len(series); i++ {
		num += (series[i] - mu) * (series[i-1] - mu)
	}
	for i := 0; i < len(series)-1; i++ {
		d := series[i] - mu
		den += d * d
	}
	if den == 0 {
		return fallback
	}

	phi := num / den
	// Clip to keep the recursion from extrapolating explosively.
	if phi > 0.99 {
		phi = 0.99
	}
	if phi < -0.99 {
		phi = -0.99
	}
	return phi
}
