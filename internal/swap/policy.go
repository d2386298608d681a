package swap

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ════════════════════════════════════════════════════════════════════
// Fixed Rate Policies
// ════════════════════════════════════════════════════════════════════

// Policy names a fixed-rate selection strategy. Which policy fits a
// given market is the caller's call — none of them bounds future
// out-of-sample rates, and only the safety search certifies anything,
// and only against the exact series it ran on.
type Policy string

const (
	// PolicyStatOffset suggests mean + k*stddev over the history
	// window. A starting point for a user-editable rate, not a bound.
	PolicyStatOffset Policy = "stat_offset"

	// PolicyMaxMargin suggests max observed (or forecast) rate plus a
	// fixed margin, dominating every rate in the window.
	PolicyMaxMargin Policy = "max_margin"

	// PolicySafeSearch bisects for the minimal fixed rate whose
	// replayed cashflow never erodes past the position's safety buffer.
	PolicySafeSearch Policy = "safe_search"
)

// ParsePolicy resolves a policy from its CLI/API spelling.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")) {
	case PolicyStatOffset:
		return PolicyStatOffset, nil
	case PolicyMaxMargin:
		return PolicyMaxMargin, nil
	case PolicySafeSearch:
		return PolicySafeSearch, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// SelectorConfig carries the tuning knobs for all three policies.
type SelectorConfig struct {
	Policy           Policy
	OffsetK          float64 // stddev multiplier for stat_offset (default: 0.5)
	Margin           float64 // absolute margin for max_margin (default: 0.0005 = 5 bps)
	BisectIterations int     // bisection refinement steps (default: 48)
	DoubleAttempts   int     // cap on upper-bound doubling (default: 60)
	WindowDays       int     // base window for the multi-window sweep (default: horizon)
	MultiWindow      bool    // sweep every multiple of WindowDays up to full history
}

// DefaultSelectorConfig returns the conventional knob settings.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Policy:           PolicyStatOffset,
		OffsetK:          0.5,
		Margin:           0.0005,
		BisectIterations: 48,
		DoubleAttempts:   60,
	}
}

// Selector derives a fixed annual rate from a floating-rate series
// under the configured policy.
type Selector struct {
	cfg SelectorConfig
}

// NewSelector creates a selector, backfilling zero-valued knobs with
// defaults.
func NewSelector(cfg SelectorConfig) *Selector {
	def := DefaultSelectorConfig()
	if cfg.Policy == "" {
		cfg.Policy = def.Policy
	}
	if cfg.OffsetK == 0 {
		cfg.OffsetK = def.OffsetK
	}
	if cfg.Margin == 0 {
		cfg.Margin = def.Margin
	}
	if cfg.BisectIterations <= 0 {
		cfg.BisectIterations = def.BisectIterations
	}
	if cfg.DoubleAttempts <= 0 {
		cfg.DoubleAttempts = def.DoubleAttempts
	}
	return &Selector{cfg: cfg}
}

// Suggest runs the configured policy over the series. borrow and sizing
// are only consulted by the safety search; the statistical policies
// ignore them.
func (s *Selector) Suggest(series []float64, borrow float64, sizing Sizing) (float64, error) {
	switch s.cfg.Policy {
	case PolicyStatOffset:
		return SuggestStatOffset(series, s.cfg.OffsetK)
	case PolicyMaxMargin:
		return SuggestMaxMargin(series, s.cfg.Margin)
	case PolicySafeSearch:
		return MinSafeRate(series, borrow, sizing, s.cfg)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s.cfg.Policy)
}

// ────────────────────────────────────────────────────────────────────
// Statistical offset
// ────────────────────────────────────────────────────────────────────

// SuggestStatOffset returns mean + k*stddev of the series, floored at
// zero. With the conventional k=0.5 this lands modestly above the
// average observed rate.
func SuggestStatOffset(series []float64, k float64) (float64, error) {
	if len(series) == 0 {
		return 0, fmt.Errorf("stat offset: %w", ErrNoData)
	}
	rate := mean(series) + k*stddev(series)
	if rate < 0 {
		rate = 0
	}
	return rate, nil
}

// ────────────────────────────────────────────────────────────────────
// Max plus margin
// ────────────────────────────────────────────────────────────────────

// SuggestMaxMargin returns the window maximum plus margin, so the
// result strictly exceeds every rate in the window when margin > 0.
// Feed it a forecast series to dominate projected rather than
// historical rates.
func SuggestMaxMargin(series []float64, margin float64) (float64, error) {
	if len(series) == 0 {
		return 0, fmt.Errorf("max margin: %w", ErrNoData)
	}
	if margin < 0 || math.IsNaN(margin) || math.IsInf(margin, 0) {
		return 0, fmt.Errorf("max margin: margin must be a non-negative fraction, got %v", margin)
	}
	return maxOf(series) + margin, nil
}

// ────────────────────────────────────────────────────────────────────
// Liquidation-safety bisection search
// ────────────────────────────────────────────────────────────────────

// MinSafeRate finds the minimal annual fixed rate such that replaying
// the day-by-day cashflow over the series never drives the cumulative
// net cashflow below the position's safety buffer
// (max_borrow - liquidation_threshold, normally negative).
//
// The search brackets with an upper bound of max(series)+1.0, doubled
// until verified safe (capped at cfg.DoubleAttempts, after which
// ErrNoSafeRate is returned), then bisects cfg.BisectIterations times.
// The returned rate is always one the predicate verified.
//
// With cfg.MultiWindow set, the search repeats over every
// cfg.WindowDays-multiple suffix of the series plus the full series,
// and the most conservative (largest) per-window rate wins. Windows are
// independent replays over shared read-only input and run concurrently.
func MinSafeRate(series []float64, borrow float64, sizing Sizing, cfg SelectorConfig) (float64, error) {
	if len(series) == 0 {
		return 0, fmt.Errorf("safe search: %w", ErrNoData)
	}
	if borrow <= 0 || math.IsNaN(borrow) || math.IsInf(borrow, 0) {
		return 0, fmt.Errorf("safe search: borrow amount must be positive, got %v", borrow)
	}
	if cfg.BisectIterations <= 0 {
		cfg.BisectIterations = DefaultSelectorConfig().BisectIterations
	}
	if cfg.DoubleAttempts <= 0 {
		cfg.DoubleAttempts = DefaultSelectorConfig().DoubleAttempts
	}

	if !cfg.MultiWindow {
		return minSafeRateWindow(series, borrow, sizing.SafetyBuffer(), cfg)
	}

	base := cfg.WindowDays
	if base <= 0 || base > len(series) {
		base = len(series)
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		best float64
	)
	for _, w := range windowMultiples(base, len(series)) {
		window := series[len(series)-w:]
		g.Go(func() error {
			rate, err := minSafeRateWindow(window, borrow, sizing.SafetyBuffer(), cfg)
			if err != nil {
				return fmt.Errorf("window %dd: %w", len(window), err)
			}
			mu.Lock()
			if rate > best {
				best = rate
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return best, nil
}

// minSafeRateWindow runs the bracketing + bisection over one window.
func minSafeRateWindow(series []float64, borrow, buffer float64, cfg SelectorConfig) (float64, error) {
	safe := func(rate float64) bool {
		return minCumulativeNet(series, rate, borrow) >= buffer
	}

	lo := 0.0
	hi := maxOf(series) + 1.0
	ok := false
	for i := 0; i < cfg.DoubleAttempts; i++ {
		if safe(hi) {
			ok = true
			break
		}
		hi *= 2
	}
	if !ok {
		return 0, fmt.Errorf("safe search: %w (upper bound %.4g after %d doublings)", ErrNoSafeRate, hi, cfg.DoubleAttempts)
	}

	for i := 0; i < cfg.BisectIterations; i++ {
		mid := (lo + hi) / 2
		if safe(mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}

// minCumulativeNet replays the engine's net-cashflow accumulation (flat
// fixed notional) and returns the lowest cumulative value seen after
// any day.
func minCumulativeNet(series []float64, fixedAnnual, borrow float64) float64 {
	fixedDaily := DailyRate(fixedAnnual)
	outstanding := borrow
	cumulative := 0.0
	lowest := math.Inf(1)
	for _, annual := range series {
		floatingDaily := DailyRate(annual)
		cumulative += borrow*fixedDaily - outstanding*floatingDaily
		outstanding *= 1 + floatingDaily
		if cumulative < lowest {
			lowest = cumulative
		}
	}
	return lowest
}

// windowMultiples lists base, 2*base, ... up to total, always including
// total itself.
func windowMultiples(base, total int) []int {
	if base <= 0 || base >= total {
		return []int{total}
	}
	var out []int
	for w := base; w < total; w += base {
		out = append(out, w)
	}
	return append(out, total)
}
