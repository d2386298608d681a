package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// Memory is an in-memory RateStore, used when no database is configured
// and as the reference implementation in tests.
type Memory struct {
	mu      sync.RWMutex
	markets map[string]map[int64]models.RatePoint // market -> timestamp -> point
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{markets: make(map[string]map[int64]models.RatePoint)}
}

// SaveRates upserts points keyed by timestamp.
func (m *Memory) SaveRates(_ context.Context, market string, points []models.RatePoint) (int, error) {
	if market == "" {
		return 0, fmt.Errorf("empty market name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byTS, ok := m.markets[market]
	if !ok {
		byTS = make(map[int64]models.RatePoint, len(points))
		m.markets[market] = byTS
	}
	for _, p := range points {
		byTS[p.Timestamp] = p
	}
	return len(points), nil
}

// LoadRates returns archived points inside [from, to], ascending.
func (m *Memory) LoadRates(_ context.Context, market string, from, to int64) ([]models.RatePoint, error) {
	m.mu.RLock()
	byTS := m.markets[market]
	out := make([]models.RatePoint, 0, len(byTS))
	for ts, p := range byTS {
		if ts >= from && ts <= to {
			out = append(out, p)
		}
	}
	m.mu.RUnlock()

	if len(out) == 0 {
		return nil, fmt.Errorf("market %s window [%d, %d]: %w", market, from, to, ErrNoRates)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// Coverage reports the archived range for a market.
func (m *Memory) Coverage(_ context.Context, market string) (*Coverage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cov := &Coverage{Market: market}
	for ts := range m.markets[market] {
		if cov.Points == 0 || ts < cov.From {
			cov.From = ts
		}
		if cov.Points == 0 || ts > cov.To {
			cov.To = ts
		}
		cov.Points++
	}
	return cov, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
