// Package swap implements a day-by-day cashflow simulator comparing a
// fixed-rate payment stream against floating-rate borrow interest on a
// Compound v3 style lending position, with liquidation-breach
// detection, rate normalization, fixed-rate selection policies, and a
// mean-reverting rate forecast.
package swap

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
)

// ════════════════════════════════════════════════════════════════════
// Engine Configuration
// ════════════════════════════════════════════════════════════════════

// Config holds all parameters for one simulation run.
type Config struct {
	FixedAnnual          float64 // fixed leg annual rate, decimal fraction
	BorrowAmount         float64 // borrowed principal in USD
	CollateralValue      float64 // collateral market value in USD
	LiquidationThreshold float64 // debt level at which the position liquidates, USD

	// CompoundFixedNotional makes the fixed leg pay on the compounded
	// floating balance instead of the flat original principal. The flat
	// convention is the default: a rate swap overlay has a fixed
	// notional, it does not track the hedged debt's drift.
	CompoundFixedNotional bool

	// BreachOnCumulativeNet switches the liquidation check to the
	// cumulative-net-cashflow form: breach when
	// borrow - cumulative_net > threshold. This conflates swap P&L with
	// real debt and is kept only for parity with older models; the
	// default compares compounded debt against the threshold directly.
	BreachOnCumulativeNet bool
}

// ════════════════════════════════════════════════════════════════════
// Engine — Day-by-Day Cashflow Simulation
// ════════════════════════════════════════════════════════════════════

// Engine runs fixed-vs-floating simulations. Safe for reuse; runs are
// serialized.
type Engine struct {
	cfg Config
	mu  sync.Mutex
}

// NewEngine creates an engine with the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run walks the floating-rate sequence one day at a time and returns
// the full ledger plus a run summary. floating carries one annualized
// rate per simulated day; its length is the horizon.
//
// Per day: both legs accrue on the current balance, net cashflow is
// fixed payment minus floating interest, then the debt compounds by the
// floating daily rate. A liquidation breach is recorded on first
// occurrence but never halts the run — the ledger always covers the
// full horizon.
func (e *Engine) Run(floating []float64) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(floating) == 0 {
		return nil, fmt.Errorf("simulate: %w", ErrNoData)
	}
	if err := e.validate(floating); err != nil {
		return nil, err
	}

	fixedDaily := DailyRate(e.cfg.FixedAnnual)
	outstanding := e.cfg.BorrowAmount
	cumulative := 0.0
	totalFixed := 0.0
	totalFloating := 0.0
	maxDebt := outstanding
	firstBreach := 0

	days := make([]SimulationDay, 0, len(floating))
	for i, annual := range floating {
		floatingDaily := DailyRate(annual)

		// Accrual precedes compounding: interest is charged on the
		// balance carried into the day.
		floatingInterest := outstanding * floatingDaily

		notional := e.cfg.BorrowAmount
		if e.cfg.CompoundFixedNotional {
			notional = outstanding
		}
		fixedPayment := notional * fixedDaily

		net := fixedPayment - floatingInterest
		cumulative += net
		totalFixed += fixedPayment
		totalFloating += floatingInterest

		outstanding *= 1 + floatingDaily
		if outstanding > maxDebt {
			maxDebt = outstanding
		}

		breached := outstanding > e.cfg.LiquidationThreshold
		if e.cfg.BreachOnCumulativeNet {
			breached = e.cfg.BorrowAmount-cumulative > e.cfg.LiquidationThreshold
		}
		if breached && firstBreach == 0 {
			firstBreach = i + 1
		}

		days = append(days, SimulationDay{
			Day:                  i + 1,
			FloatingAnnual:       annual,
			FloatingDaily:        floatingDaily,
			FixedDaily:           fixedDaily,
			FloatingInterest:     floatingInterest,
			FixedPayment:         fixedPayment,
			NetCashflow:          net,
			CumulativeNet:        cumulative,
			OutstandingDebt:      outstanding,
			LiquidationThreshold: e.cfg.LiquidationThreshold,
			LoanToValue:          loanToValue(outstanding, e.cfg.CollateralValue),
			Breached:             breached,
		})
	}

	return &Result{
		Days: days,
		Summary: Summary{
			HorizonDays:       len(days),
			FixedAnnual:       e.cfg.FixedAnnual,
			FixedDaily:        fixedDaily,
			BorrowAmount:      e.cfg.BorrowAmount,
			FinalDebt:         outstanding,
			FinalLTV:          loanToValue(outstanding, e.cfg.CollateralValue),
			CumulativeNet:     cumulative,
			TotalFixedPaid:    totalFixed,
			TotalFloatingPaid: totalFloating,
			MaxDebt:           maxDebt,
			Breached:          firstBreach > 0,
			FirstBreachDay:    firstBreach,
		},
	}, nil
}

func (e *Engine) validate(floating []float64) error {
	checks := []struct {
		name      string
		v         float64
		allowZero bool
	}{
		{"fixed_annual", e.cfg.FixedAnnual, true},
		{"borrow_amount", e.cfg.BorrowAmount, false},
		{"collateral_value", e.cfg.CollateralValue, true},
		{"liquidation_threshold", e.cfg.LiquidationThreshold, true},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return fmt.Errorf("simulate: %s is not finite", c.name)
		}
		if c.v < 0 || (!c.allowZero && c.v == 0) {
			return fmt.Errorf("simulate: %s must be positive, got %v", c.name, c.v)
		}
	}
	for i, r := range floating {
		if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
			return fmt.Errorf("simulate: floating rate at day %d is invalid: %v", i+1, r)
		}
	}
	return nil
}

// loanToValue returns debt/collateral, or +Inf as the explicit
// "undefined" sentinel when there is no collateral value.
func loanToValue(debt, collateralValue float64) float64 {
	if collateralValue <= 0 {
		return math.Inf(1)
	}
	return debt / collateralValue
}

// ════════════════════════════════════════════════════════════════════
// Ledger Types
// ════════════════════════════════════════════════════════════════════

// SimulationDay is one immutable row of the output ledger.
type SimulationDay struct {
	Day                  int     `json:"day"` // 1-based
	FloatingAnnual       float64 `json:"floating_annual"`
	FloatingDaily        float64 `json:"floating_daily"`
	FixedDaily           float64 `json:"fixed_daily"`
	FloatingInterest     float64 `json:"floating_interest"`
	FixedPayment         float64 `json:"fixed_payment"`
	NetCashflow          float64 `json:"net_cashflow"`
	CumulativeNet        float64 `json:"cumulative_net"`
	OutstandingDebt      float64 `json:"outstanding_debt"`
	LiquidationThreshold float64 `json:"liquidation_threshold"`
	LoanToValue          float64 `json:"loan_to_value"` // +Inf when collateral value is zero
	Breached             bool    `json:"breached"`
}

// MarshalJSON emits the undefined-LTV sentinel as null; JSON has no
// representation for infinity.
func (d SimulationDay) MarshalJSON() ([]byte, error) {
	type alias SimulationDay
	out := struct {
		alias
		LoanToValue *float64 `json:"loan_to_value"`
	}{alias: alias(d)}
	if !math.IsInf(d.LoanToValue, 0) && !math.IsNaN(d.LoanToValue) {
		v := d.LoanToValue
		out.LoanToValue = &v
	}
	return json.Marshal(out)
}

// Result is the full outcome of one simulation run.
type Result struct {
	Days    []SimulationDay `json:"days"`
	Summary Summary         `json:"summary"`
}

// Summary aggregates a run for display without walking the ledger.
type Summary struct {
	HorizonDays       int     `json:"horizon_days"`
	FixedAnnual       float64 `json:"fixed_annual"`
	FixedDaily        float64 `json:"fixed_daily"`
	BorrowAmount      float64 `json:"borrow_amount"`
	FinalDebt         float64 `json:"final_debt"`
	FinalLTV          float64 `json:"final_ltv"` // +Inf when collateral value is zero
	CumulativeNet     float64 `json:"cumulative_net"`
	TotalFixedPaid    float64 `json:"total_fixed_paid"`
	TotalFloatingPaid float64 `json:"total_floating_interest"`
	MaxDebt           float64 `json:"max_debt"`
	Breached          bool    `json:"breached"`
	FirstBreachDay    int     `json:"first_breach_day"` // 0 = no breach
}

// MarshalJSON emits the undefined-LTV sentinel as null, as for
// SimulationDay.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	out := struct {
		alias
		FinalLTV *float64 `json:"final_ltv"`
	}{alias: alias(s)}
	if !math.IsInf(s.FinalLTV, 0) && !math.IsNaN(s.FinalLTV) {
		v := s.FinalLTV
		out.FinalLTV = &v
	}
	return json.Marshal(out)
}
