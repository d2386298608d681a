// Package store archives fetched rate history so repeated runs can work
// offline from previously fetched observations.
package store

import (
	"context"
	"errors"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// ErrNoRates is returned when a market has no archived observations in
// the requested window.
var ErrNoRates = errors.New("no archived rates for market")

// Coverage describes what the archive holds for one market.
type Coverage struct {
	Market string `json:"market"`
	Points int    `json:"points"`
	From   int64  `json:"from"` // unix seconds, 0 when empty
	To     int64  `json:"to"`   // unix seconds, 0 when empty
}

// RateStore persists daily rate observations per market. Implementations
// upsert on (market, timestamp) so refetching a window is idempotent.
type RateStore interface {
	// SaveRates upserts the given points and reports how many were written.
	SaveRates(ctx context.Context, market string, points []models.RatePoint) (int, error)

	// LoadRates returns archived points with from <= timestamp <= to,
	// ascending. ErrNoRates when the window is empty.
	LoadRates(ctx context.Context, market string, from, to int64) ([]models.RatePoint, error)

	// Coverage reports the archived range for a market.
	Coverage(ctx context.Context, market string) (*Coverage, error)

	// Close releases any underlying resources.
	Close() error
}
