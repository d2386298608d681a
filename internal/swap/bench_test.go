package swap

import (
	"math/rand"
	"testing"
)

// benchSeries creates a seeded pseudo-random annualized rate series
// drifting around 4%.
func benchSeries(n int) []float64 {
	rng := rand.New(rand.NewSource(42))
	out := make([]float64, n)
	rate := 0.04
	for i := range out {
		rate += (rng.Float64() - 0.5) * 0.002
		if rate < 0.001 {
			rate = 0.001
		}
		out[i] = rate
	}
	return out
}

func benchSizing() Sizing {
	return Sizing{CollateralValue: 35000, MaxBorrow: 28875, LiquidationThreshold: 31325}
}

// ── Engine Benchmarks ──

func BenchmarkEngineRun_30(b *testing.B) {
	e := NewEngine(Config{FixedAnnual: 0.05, BorrowAmount: 10000, CollateralValue: 35000, LiquidationThreshold: 31325})
	series := benchSeries(30)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Run(series); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngineRun_365(b *testing.B) {
	e := NewEngine(Config{FixedAnnual: 0.05, BorrowAmount: 10000, CollateralValue: 35000, LiquidationThreshold: 31325})
	series := benchSeries(365)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Run(series); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngineRun_730(b *testing.B) {
	e := NewEngine(Config{FixedAnnual: 0.05, BorrowAmount: 10000, CollateralValue: 35000, LiquidationThreshold: 31325})
	series := benchSeries(730)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Run(series); err != nil {
			b.Fatal(err)
		}
	}
}

// ── Safety Search Benchmarks ──

func BenchmarkMinSafeRate_90(b *testing.B) {
	series := benchSeries(90)
	sz := benchSizing()
	cfg := DefaultSelectorConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MinSafeRate(series, 20000, sz, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMinSafeRate_365(b *testing.B) {
	series := benchSeries(365)
	sz := benchSizing()
	cfg := DefaultSelectorConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MinSafeRate(series, 20000, sz, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMinSafeRate_MultiWindow365(b *testing.B) {
	series := benchSeries(365)
	sz := benchSizing()
	cfg := DefaultSelectorConfig()
	cfg.MultiWindow = true
	cfg.WindowDays = 30
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MinSafeRate(series, 20000, sz, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

// ── Forecast Benchmarks ──

func BenchmarkForecast_180(b *testing.B) {
	series := benchSeries(365)
	cfg := ForecastConfig{Horizon: 180, FallbackPhi: 0.8}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Forecast(series, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

// ── Statistics Benchmarks ──

func BenchmarkComputeRateStats_730(b *testing.B) {
	series := benchSeries(730)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ComputeRateStats(series); err != nil {
			b.Fatal(err)
		}
	}
}
