package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/config"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// Aggregator fans out to the configured sources and assembles a
// MarketSnapshot. Rate history is the one input the simulator cannot run
// without; everything else degrades to a warning.
type Aggregator struct {
	rates   RateHistorySource
	price   SpotPriceSource
	factors CollateralFactorSource
	forum   *Forum
}

// NewAggregator wires the default sources from configuration. Manual
// price or factor overrides in the position section replace the live
// sources, matching how operators work around dead endpoints.
func NewAggregator(cfg *config.Config) *Aggregator {
	snapshotTTL := time.Duration(cfg.Cache.SnapshotTTL) * time.Second
	priceTTL := time.Duration(cfg.Cache.PriceTTL) * time.Second

	a := &Aggregator{
		rates: NewGraph(cfg.Data.GatewayURL, cfg.Data.GraphAPIKey, snapshotTTL),
		forum: NewForum(cfg.Data.ForumFeedURL),
	}

	if cfg.Position.ManualPrice > 0 {
		a.price = NewStaticPrice(cfg.Position.ManualPrice)
	} else {
		a.price = NewCoinGecko(cfg.Data.PriceURL, priceTTL)
	}

	if cfg.Position.ManualLiquidateCF > 0 {
		a.factors = NewStaticAssetInfo(
			cfg.Position.ManualBorrowCF,
			cfg.Position.ManualLiquidateCF,
			cfg.Position.ManualLiquidationFactor,
		)
	} else {
		a.factors = NewCometRPC(cfg.Data.RPCURL)
	}

	return a
}

// NewAggregatorWithSources wires explicit sources, mainly for tests.
func NewAggregatorWithSources(rates RateHistorySource, price SpotPriceSource, factors CollateralFactorSource, forum *Forum) *Aggregator {
	return &Aggregator{rates: rates, price: price, factors: factors, forum: forum}
}

// Rates returns the rate history source for direct access.
func (a *Aggregator) Rates() RateHistorySource { return a.rates }

// Price returns the spot price source for direct access.
func (a *Aggregator) Price() SpotPriceSource { return a.price }

// Factors returns the collateral factor source for direct access.
func (a *Aggregator) Factors() CollateralFactorSource { return a.factors }

// ForumSource returns the governance feed source for direct access.
func (a *Aggregator) ForumSource() *Forum { return a.forum }

// FetchSnapshot fetches rates, price, collateral factors, and forum posts
// concurrently. A rate history failure fails the whole snapshot; the other
// sources record warnings and leave their fields nil.
func (a *Aggregator) FetchSnapshot(ctx context.Context, market models.Market, lookbackDays int) (*models.MarketSnapshot, error) {
	snap := &models.MarketSnapshot{
		Market:    market,
		FetchedAt: time.Now().UTC(),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	// 1. Rate history — required.
	g.Go(func() error {
		points, err := a.rates.RateHistory(gctx, market, lookbackDays)
		if err != nil {
			return fmt.Errorf("rate history: %w", err)
		}
		mu.Lock()
		snap.Rates = points
		mu.Unlock()
		return nil
	})

	// 2. Spot price — optional.
	g.Go(func() error {
		price, err := a.price.SpotPrice(gctx, market.PriceID)
		if err != nil {
			mu.Lock()
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("price: %v", err))
			mu.Unlock()
			return nil // non-fatal
		}
		mu.Lock()
		snap.Price = price
		mu.Unlock()
		return nil
	})

	// 3. Collateral factors — optional.
	g.Go(func() error {
		info, err := a.factors.AssetInfo(gctx, market)
		if err != nil {
			mu.Lock()
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("collateral factors: %v", err))
			mu.Unlock()
			return nil
		}
		mu.Lock()
		snap.Asset = info
		mu.Unlock()
		return nil
	})

	// 4. Governance posts — optional.
	g.Go(func() error {
		posts, err := a.forum.MarketPosts(gctx, market, 10)
		if err != nil {
			mu.Lock()
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("forum feed: %v", err))
			mu.Unlock()
			return nil
		}
		mu.Lock()
		snap.Posts = posts
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", market.Name, err)
	}

	return snap, nil
}
