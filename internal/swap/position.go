package swap

import (
	"fmt"
	"math"
)

// ════════════════════════════════════════════════════════════════════
// Position Sizing
// ════════════════════════════════════════════════════════════════════

// Position describes the collateral side of a prospective borrow.
// Factors are decimal fractions in [0,1].
type Position struct {
	CollateralAmount          float64 `json:"collateral_amount"`
	CollateralPriceUSD        float64 `json:"collateral_price_usd"`
	BorrowCollateralFactor    float64 `json:"borrow_collateral_factor"`
	LiquidateCollateralFactor float64 `json:"liquidate_collateral_factor"`
	LiquidationPenalty        float64 `json:"liquidation_penalty"`
}

// Sizing is the derived borrow capacity of a Position.
type Sizing struct {
	CollateralValue      float64 `json:"collateral_value"`
	MaxBorrow            float64 `json:"max_borrow"`
	LiquidationThreshold float64 `json:"liquidation_threshold"`
}

// SafetyBuffer is the cumulative-cashflow slack between the borrow cap
// and the liquidation threshold. Normally negative: the protocol caps
// borrowing below the level at which it liquidates.
func (s Sizing) SafetyBuffer() float64 {
	return s.MaxBorrow - s.LiquidationThreshold
}

// Size derives collateral value, borrow capacity, and liquidation
// threshold. Pure arithmetic; the only failure mode is invalid input.
//
// A position whose liquidate factor sits below its borrow factor is
// degenerate but accepted — some markets have misconfigured or exotic
// parameters and the caller may still want the numbers.
func (p Position) Size() (Sizing, error) {
	for name, v := range map[string]float64{
		"collateral_amount":    p.CollateralAmount,
		"collateral_price_usd": p.CollateralPriceUSD,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sizing{}, fmt.Errorf("position: %s is not finite", name)
		}
		if v < 0 {
			return Sizing{}, fmt.Errorf("position: %s is negative", name)
		}
	}
	for name, f := range map[string]float64{
		"borrow_collateral_factor":    p.BorrowCollateralFactor,
		"liquidate_collateral_factor": p.LiquidateCollateralFactor,
	} {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 1 {
			return Sizing{}, fmt.Errorf("position: %s must be a fraction in [0,1], got %v", name, f)
		}
	}

	value := p.CollateralAmount * p.CollateralPriceUSD
	return Sizing{
		CollateralValue:      value,
		MaxBorrow:            value * p.BorrowCollateralFactor,
		LiquidationThreshold: value * p.LiquidateCollateralFactor,
	}, nil
}
