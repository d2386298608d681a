package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// StaticPrice is a SpotPriceSource that always returns a fixed price.
// Used when the operator supplies a manual price instead of a live quote.
type StaticPrice struct {
	price float64
}

// NewStaticPrice creates a manual price source.
func NewStaticPrice(priceUSD float64) *StaticPrice {
	return &StaticPrice{price: priceUSD}
}

// Name returns the data source name.
func (s *StaticPrice) Name() string { return "manual" }

// SpotPrice returns the configured price regardless of the asset id.
func (s *StaticPrice) SpotPrice(_ context.Context, _ string) (*models.SpotPrice, error) {
	if s.price <= 0 {
		return nil, fmt.Errorf("manual price: %w", ErrPriceUnavailable)
	}
	return &models.SpotPrice{
		PriceUSD:  s.price,
		Source:    s.Name(),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// StaticAssetInfo is a CollateralFactorSource with operator-supplied
// factors, for when no RPC endpoint is reachable.
type StaticAssetInfo struct {
	borrowCF          float64
	liquidateCF       float64
	liquidationFactor float64
}

// NewStaticAssetInfo creates a manual collateral factor source.
func NewStaticAssetInfo(borrowCF, liquidateCF, liquidationFactor float64) *StaticAssetInfo {
	return &StaticAssetInfo{
		borrowCF:          borrowCF,
		liquidateCF:       liquidateCF,
		liquidationFactor: liquidationFactor,
	}
}

// Name returns the data source name.
func (s *StaticAssetInfo) Name() string { return "manual" }

// AssetInfo returns the configured factors for any market.
func (s *StaticAssetInfo) AssetInfo(_ context.Context, market models.Market) (*models.AssetInfo, error) {
	info := &models.AssetInfo{
		Asset:                     market.Collateral,
		BorrowCollateralFactor:    s.borrowCF,
		LiquidateCollateralFactor: s.liquidateCF,
		LiquidationFactor:         s.liquidationFactor,
		Source:                    s.Name(),
	}
	if !info.Valid() {
		return nil, fmt.Errorf("manual factors out of range: %+v", *info)
	}
	return info, nil
}
