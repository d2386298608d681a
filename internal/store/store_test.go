package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

func samplePoints() []models.RatePoint {
	return []models.RatePoint{
		{Timestamp: 1700000000, BorrowRate: 0.050, SupplyRate: 0.040},
		{Timestamp: 1700086400, BorrowRate: 0.052, SupplyRate: 0.041},
		{Timestamp: 1700172800, BorrowRate: 0.049, SupplyRate: 0.039},
	}
}

// ── Memory store ──

func TestMemorySaveAndLoad(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	n, err := s.SaveRates(ctx, "usdc-mainnet", samplePoints())
	if err != nil {
		t.Fatalf("SaveRates error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 points written, got %d", n)
	}

	points, err := s.LoadRates(ctx, "usdc-mainnet", 1700000000, 1700172800)
	if err != nil {
		t.Fatalf("LoadRates error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	// Ascending by timestamp.
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp <= points[i-1].Timestamp {
			t.Errorf("points not ascending at index %d", i)
		}
	}
}

func TestMemoryUpsert(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, err := s.SaveRates(ctx, "usdc-mainnet", samplePoints()); err != nil {
		t.Fatalf("SaveRates error: %v", err)
	}
	// Re-save the first point with a changed rate; count must not grow.
	updated := []models.RatePoint{{Timestamp: 1700000000, BorrowRate: 0.060, SupplyRate: 0.045}}
	if _, err := s.SaveRates(ctx, "usdc-mainnet", updated); err != nil {
		t.Fatalf("SaveRates error: %v", err)
	}

	cov, err := s.Coverage(ctx, "usdc-mainnet")
	if err != nil {
		t.Fatalf("Coverage error: %v", err)
	}
	if cov.Points != 3 {
		t.Errorf("expected 3 points after upsert, got %d", cov.Points)
	}

	points, err := s.LoadRates(ctx, "usdc-mainnet", 1700000000, 1700000000)
	if err != nil {
		t.Fatalf("LoadRates error: %v", err)
	}
	if points[0].BorrowRate != 0.060 {
		t.Errorf("upsert did not replace the rate: got %v", points[0].BorrowRate)
	}
}

func TestMemoryWindowFilter(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	if _, err := s.SaveRates(ctx, "usdc-mainnet", samplePoints()); err != nil {
		t.Fatalf("SaveRates error: %v", err)
	}

	points, err := s.LoadRates(ctx, "usdc-mainnet", 1700086400, 1700172800)
	if err != nil {
		t.Fatalf("LoadRates error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points in window, got %d", len(points))
	}
	if points[0].Timestamp != 1700086400 {
		t.Errorf("window start = %d, want 1700086400", points[0].Timestamp)
	}
}

func TestMemoryEmptyWindow(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	if _, err := s.SaveRates(ctx, "usdc-mainnet", samplePoints()); err != nil {
		t.Fatalf("SaveRates error: %v", err)
	}

	_, err := s.LoadRates(ctx, "usdc-mainnet", 1800000000, 1900000000)
	if !errors.Is(err, ErrNoRates) {
		t.Errorf("expected ErrNoRates, got %v", err)
	}
}

func TestMemoryUnknownMarket(t *testing.T) {
	s := NewMemory()
	_, err := s.LoadRates(context.Background(), "weth-mainnet", 0, 1800000000)
	if !errors.Is(err, ErrNoRates) {
		t.Errorf("expected ErrNoRates for unknown market, got %v", err)
	}
}

func TestMemoryEmptyMarketName(t *testing.T) {
	s := NewMemory()
	if _, err := s.SaveRates(context.Background(), "", samplePoints()); err == nil {
		t.Error("expected error for empty market name")
	}
}

func TestMemoryCoverage(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	cov, err := s.Coverage(ctx, "usdc-mainnet")
	if err != nil {
		t.Fatalf("Coverage error: %v", err)
	}
	if cov.Points != 0 || cov.From != 0 || cov.To != 0 {
		t.Errorf("empty coverage should be zeros, got %+v", cov)
	}

	if _, err := s.SaveRates(ctx, "usdc-mainnet", samplePoints()); err != nil {
		t.Fatalf("SaveRates error: %v", err)
	}
	cov, err = s.Coverage(ctx, "usdc-mainnet")
	if err != nil {
		t.Fatalf("Coverage error: %v", err)
	}
	if cov.Points != 3 {
		t.Errorf("points = %d, want 3", cov.Points)
	}
	if cov.From != 1700000000 || cov.To != 1700172800 {
		t.Errorf("range = [%d, %d], want [1700000000, 1700172800]", cov.From, cov.To)
	}
}

func TestMemoryMarketsIsolated(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	if _, err := s.SaveRates(ctx, "usdc-mainnet", samplePoints()); err != nil {
		t.Fatalf("SaveRates error: %v", err)
	}
	if _, err := s.SaveRates(ctx, "weth-mainnet", samplePoints()[:1]); err != nil {
		t.Fatalf("SaveRates error: %v", err)
	}

	cov, _ := s.Coverage(ctx, "weth-mainnet")
	if cov.Points != 1 {
		t.Errorf("weth coverage = %d points, want 1", cov.Points)
	}
	cov, _ = s.Coverage(ctx, "usdc-mainnet")
	if cov.Points != 3 {
		t.Errorf("usdc coverage = %d points, want 3", cov.Points)
	}
}

func TestMemoryClose(t *testing.T) {
	s := NewMemory()
	if err := s.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}

// ── Postgres store ──

func TestNewPostgresEmptyDSN(t *testing.T) {
	if _, err := NewPostgres(""); err == nil {
		t.Error("expected error for empty DSN")
	}
}
