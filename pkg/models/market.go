// Package models defines the core data structures shared across the
// swap simulator: lending markets, raw rate points, collateral asset
// parameters, and spot prices.
package models

import (
	"math"
	"time"
)

// Market identifies a Compound v3 (Comet) lending market and the
// collateral asset the simulation borrows against.
type Market struct {
	Name             string `json:"name"`              // e.g., "USDC Mainnet"
	Comet            string `json:"comet"`             // Comet proxy address, 0x-prefixed
	BaseSymbol       string `json:"base_symbol"`       // borrowed asset, e.g., "USDC"
	CollateralSymbol string `json:"collateral_symbol"` // e.g., "WETH"
	Collateral       string `json:"collateral"`        // collateral token address
	PriceID          string `json:"price_id"`          // quote-API identifier, e.g., "ethereum"
	SubgraphID       string `json:"subgraph_id"`       // rate-history subgraph deployment ID
}

// RatePoint is one raw observation from a rate-history source, before
// normalization. Rates may arrive as fractions (0.05) or percentages
// (5.0) depending on the source; the normalizer decides.
type RatePoint struct {
	Timestamp  int64   `json:"timestamp"` // unix seconds
	BorrowRate float64 `json:"borrow_rate"`
	SupplyRate float64 `json:"supply_rate"`
}

// Time returns the observation timestamp as a UTC time.
func (p RatePoint) Time() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}

// SpotPrice is a single collateral price quote in USD.
type SpotPrice struct {
	PriceUSD  float64   `json:"price_usd"`
	Source    string    `json:"source"` // "coingecko", "manual", ...
	FetchedAt time.Time `json:"fetched_at"`
}

// AssetInfo carries the collateral risk parameters for one asset in a
// Comet market. Factors are decimal fractions in [0,1], already
// descaled from the on-chain 1e18 fixed-point representation.
type AssetInfo struct {
	Asset                     string  `json:"asset"` // token address
	BorrowCollateralFactor    float64 `json:"borrow_collateral_factor"`
	LiquidateCollateralFactor float64 `json:"liquidate_collateral_factor"`
	LiquidationFactor         float64 `json:"liquidation_factor"`
	Source                    string  `json:"source"` // "onchain", "manual"
}

// LiquidationPenalty returns the haircut applied on liquidation,
// 1 - liquidationFactor.
func (a AssetInfo) LiquidationPenalty() float64 {
	return 1 - a.LiquidationFactor
}

// Valid reports whether all three factors are finite fractions in [0,1].
func (a AssetInfo) Valid() bool {
	for _, f := range []float64{a.BorrowCollateralFactor, a.LiquidateCollateralFactor, a.LiquidationFactor} {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 1 {
			return false
		}
	}
	return true
}

// GovernancePost is one item from a protocol governance feed.
type GovernancePost struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// MarketSnapshot bundles everything a simulation needs about one
// market, fetched from the collaborator sources in one pass.
type MarketSnapshot struct {
	Market    Market           `json:"market"`
	Rates     []RatePoint      `json:"rates"`
	Price     *SpotPrice       `json:"price,omitempty"`
	Asset     *AssetInfo       `json:"asset,omitempty"`
	Posts     []GovernancePost `json:"posts,omitempty"`
	FetchedAt time.Time        `json:"fetched_at"`
	Warnings  []string         `json:"warnings,omitempty"` // non-fatal fetch failures
}
