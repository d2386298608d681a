// swapsim — fixed-vs-floating swap cashflow simulator for Compound v3
// borrow positions.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Doshir1/compound-fixed-rate-swap/api"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/config"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/datasource"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/report"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/swap"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "swapsim",
	Short: "swapsim — fixed vs floating swap simulator for Compound v3",
	Long: `swapsim simulates a fixed-rate payment stream against floating-rate
borrow interest on a Compound v3 (Comet) position, day by day, and flags
when the compounding debt would breach the liquidation threshold.

Rate history comes from The Graph, spot prices from CoinGecko, and
collateral factors straight from the Comet contract; all three accept
manual overrides in the config.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("market", "", "market preset override (e.g. usdc-mainnet)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(positionCmd)
	rootCmd.AddCommand(saferateCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Shared helpers ---

// activeMarket resolves the market for a command: the --market preset
// when given, otherwise the configured market.
func activeMarket(cmd *cobra.Command) (models.Market, error) {
	name, _ := cmd.Flags().GetString("market")
	if name == "" {
		return cfg.Market.Model(), nil
	}
	m, ok := config.FindMarket(name)
	if !ok {
		return models.Market{}, fmt.Errorf("unknown market preset %q", name)
	}
	return m, nil
}

// fetchSeries fetches and normalizes the market's borrow-rate history.
func fetchSeries(ctx context.Context, agg *datasource.Aggregator, market models.Market) ([]swap.RateObservation, error) {
	points, err := agg.Rates().RateHistory(ctx, market, cfg.Data.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("rate history for %s: %w", market.Name, err)
	}
	return swap.Normalize(points)
}

// commandContext returns a context bounded by the configured request timeout.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(cfg.Data.RequestTimeoutSec)*time.Second)
}

// resolvePosition assembles the position from config, preferring manual
// overrides and falling back to the live price and factor sources.
func resolvePosition(ctx context.Context, agg *datasource.Aggregator, market models.Market) (swap.Position, error) {
	pos := swap.Position{CollateralAmount: cfg.Position.CollateralAmount}

	price, err := agg.Price().SpotPrice(ctx, market.PriceID)
	if err != nil {
		return pos, fmt.Errorf("spot price: %w (set position.manual_price to proceed offline)", err)
	}
	pos.CollateralPriceUSD = price.PriceUSD

	info, err := agg.Factors().AssetInfo(ctx, market)
	if err != nil {
		return pos, fmt.Errorf("collateral factors: %w (set position.manual_* to proceed offline)", err)
	}
	pos.BorrowCollateralFactor = info.BorrowCollateralFactor
	pos.LiquidateCollateralFactor = info.LiquidateCollateralFactor
	pos.LiquidationPenalty = info.LiquidationPenalty()
	return pos, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("swapsim %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Rates Command ---

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Show borrow-rate history statistics for a market",
	RunE: func(cmd *cobra.Command, args []string) error {
		market, err := activeMarket(cmd)
		if err != nil {
			return err
		}
		window, _ := cmd.Flags().GetInt("window")

		ctx, cancel := commandContext()
		defer cancel()

		agg := datasource.NewAggregator(cfg)
		obs, err := fetchSeries(ctx, agg, market)
		if err != nil {
			return err
		}
		obs = swap.Window(obs, window)

		stats, err := swap.ComputeRateStats(swap.BorrowSeries(obs))
		if err != nil {
			return err
		}

		fmt.Printf("Borrow rates — %s (%d observations, %s → %s)\n",
			market.Name, stats.Count,
			utils.FormatDay(obs[0].Timestamp), utils.FormatDay(obs[len(obs)-1].Timestamp))
		fmt.Printf("  Mean:    %s\n", utils.FormatRate(stats.Mean))
		fmt.Printf("  Median:  %s\n", utils.FormatRate(stats.Median))
		fmt.Printf("  Std Dev: %s\n", utils.FormatRate(stats.StdDev))
		fmt.Printf("  Min:     %s\n", utils.FormatRate(stats.Min))
		fmt.Printf("  Max:     %s\n", utils.FormatRate(stats.Max))
		fmt.Printf("  P95:     %s\n", utils.FormatRate(stats.P95))
		return nil
	},
}

func init() {
	ratesCmd.Flags().Int("window", 0, "restrict to the most recent N observations (0 = full lookback)")
}

// --- Position Command ---

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Size the configured collateral position",
	RunE: func(cmd *cobra.Command, args []string) error {
		market, err := activeMarket(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		agg := datasource.NewAggregator(cfg)
		pos, err := resolvePosition(ctx, agg, market)
		if err != nil {
			return err
		}
		sizing, err := pos.Size()
		if err != nil {
			return err
		}

		fmt.Printf("Position — %s (%s collateral)\n", market.Name, market.CollateralSymbol)
		fmt.Printf("  Collateral:            %.4f @ %s\n", pos.CollateralAmount, utils.FormatUSD(pos.CollateralPriceUSD))
		fmt.Printf("  Collateral value:      %s\n", utils.FormatUSD(sizing.CollateralValue))
		fmt.Printf("  Borrow CF:             %s\n", utils.FormatRate(pos.BorrowCollateralFactor))
		fmt.Printf("  Liquidate CF:          %s\n", utils.FormatRate(pos.LiquidateCollateralFactor))
		fmt.Printf("  Liquidation penalty:   %s\n", utils.FormatRate(pos.LiquidationPenalty))
		fmt.Printf("  Max borrow:            %s\n", utils.FormatUSD(sizing.MaxBorrow))
		fmt.Printf("  Liquidation threshold: %s\n", utils.FormatUSD(sizing.LiquidationThreshold))
		fmt.Printf("  Safety buffer:         %s\n", utils.FormatUSD(sizing.SafetyBuffer()))
		return nil
	},
}

// --- Safe Rate Command ---

var saferateCmd = &cobra.Command{
	Use:   "saferate",
	Short: "Suggest a fixed annual rate from the market's history",
	Long: `Suggest a fixed annual rate using one of three policies:

  stat_offset  mean + k*stddev of the window (a starting point, not a bound)
  max_margin   max observed rate plus a margin (dominates the window)
  safe_search  minimal rate whose replayed cashflow never erodes past the
               position's safety buffer (requires price and factor data)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		market, err := activeMarket(cmd)
		if err != nil {
			return err
		}
		policyName, _ := cmd.Flags().GetString("policy")
		if policyName == "" {
			policyName = cfg.Simulation.Policy
		}
		policy, err := swap.ParsePolicy(policyName)
		if err != nil {
			return err
		}
		borrow, _ := cmd.Flags().GetFloat64("borrow")
		if borrow <= 0 {
			borrow = cfg.Simulation.BorrowAmount
		}
		multiWindow, _ := cmd.Flags().GetBool("multi-window")

		ctx, cancel := commandContext()
		defer cancel()

		agg := datasource.NewAggregator(cfg)
		obs, err := fetchSeries(ctx, agg, market)
		if err != nil {
			return err
		}
		series := swap.BorrowSeries(obs)

		var sizing swap.Sizing
		if policy == swap.PolicySafeSearch {
			pos, err := resolvePosition(ctx, agg, market)
			if err != nil {
				return err
			}
			sizing, err = pos.Size()
			if err != nil {
				return err
			}
		}

		selector := swap.NewSelector(swap.SelectorConfig{
			Policy:           policy,
			OffsetK:          cfg.Simulation.OffsetK,
			Margin:           cfg.Simulation.Margin,
			BisectIterations: cfg.Simulation.BisectIterations,
			DoubleAttempts:   cfg.Simulation.DoubleAttempts,
			WindowDays:       cfg.Simulation.HorizonDays,
			MultiWindow:      multiWindow,
		})
		rate, err := selector.Suggest(series, borrow, sizing)
		if err != nil {
			if errors.Is(err, swap.ErrNoSafeRate) {
				return fmt.Errorf("%w — the position cannot be made safe against this history at any searched rate", err)
			}
			return err
		}

		fmt.Printf("Suggested fixed rate — %s, %s policy\n", market.Name, policy)
		fmt.Printf("  Fixed annual: %s\n", utils.FormatRate(rate))
		fmt.Printf("  Window:       %d observations\n", len(series))
		if policy == swap.PolicySafeSearch {
			fmt.Printf("  Borrow:       %s (buffer %s)\n", utils.FormatUSD(borrow), utils.FormatUSD(sizing.SafetyBuffer()))
		}
		return nil
	},
}

func init() {
	saferateCmd.Flags().String("policy", "", "rate policy: stat_offset, max_margin, safe_search (default: configured)")
	saferateCmd.Flags().Float64("borrow", 0, "borrow amount in USD (default: configured)")
	saferateCmd.Flags().Bool("multi-window", false, "sweep every horizon-multiple window and take the most conservative rate")
}

// --- Forecast Command ---

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project the floating rate forward (mean-reverting heuristic)",
	RunE: func(cmd *cobra.Command, args []string) error {
		market, err := activeMarket(cmd)
		if err != nil {
			return err
		}
		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			days = cfg.Simulation.HorizonDays
		}

		ctx, cancel := commandContext()
		defer cancel()

		agg := datasource.NewAggregator(cfg)
		obs, err := fetchSeries(ctx, agg, market)
		if err != nil {
			return err
		}
		series := swap.BorrowSeries(obs)

		projected, err := swap.Forecast(series, swap.ForecastConfig{
			Horizon:     days,
			FallbackPhi: cfg.Forecast.FallbackPhi,
			ShockStdDev: cfg.Forecast.ShockStdDev,
			Seed:        cfg.Forecast.Seed,
		})
		if err != nil {
			return err
		}

		last := series[len(series)-1]
		fmt.Printf("Rate forecast — %s, %d days (heuristic mean reversion, not a validated model)\n", market.Name, days)
		fmt.Printf("  Last observed: %s\n", utils.FormatRate(last))
		fmt.Printf("  Day 1:         %s\n", utils.FormatRate(projected[0]))
		if days > 1 {
			fmt.Printf("  Day %-3d        %s\n", days, utils.FormatRate(projected[len(projected)-1]))
		}
		stats, err := swap.ComputeRateStats(projected)
		if err != nil {
			return err
		}
		fmt.Printf("  Path mean:     %s (min %s, max %s)\n",
			utils.FormatRate(stats.Mean), utils.FormatRate(stats.Min), utils.FormatRate(stats.Max))
		return nil
	},
}

func init() {
	forecastCmd.Flags().Int("days", 0, "forecast horizon in days (default: configured horizon)")
}

// --- Simulate Command ---

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the day-by-day fixed-vs-floating cashflow simulation",
	Long: `Run the cashflow simulation over the configured horizon. The fixed
leg pays on the flat original borrow amount; the floating leg accrues and
compounds on the drifting debt. A liquidation breach is reported but never
stops the run.

Without --fixed the rate comes from the configured policy over the
fetched history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		market, err := activeMarket(cmd)
		if err != nil {
			return err
		}
		fixed, _ := cmd.Flags().GetFloat64("fixed")
		borrow, _ := cmd.Flags().GetFloat64("borrow")
		if borrow <= 0 {
			borrow = cfg.Simulation.BorrowAmount
		}
		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			days = cfg.Simulation.HorizonDays
		}
		useForecast, _ := cmd.Flags().GetBool("use-forecast")
		csvPath, _ := cmd.Flags().GetString("csv")
		htmlPath, _ := cmd.Flags().GetString("html")
		pdfPath, _ := cmd.Flags().GetString("pdf")

		ctx, cancel := commandContext()
		defer cancel()

		agg := datasource.NewAggregator(cfg)
		obs, err := fetchSeries(ctx, agg, market)
		if err != nil {
			return err
		}
		history := swap.BorrowSeries(obs)

		pos, err := resolvePosition(ctx, agg, market)
		if err != nil {
			return err
		}
		sizing, err := pos.Size()
		if err != nil {
			return err
		}

		stats, err := swap.ComputeRateStats(history)
		if err != nil {
			return err
		}

		// Fixed rate: explicit flag wins, otherwise the configured policy.
		policies := comparePolicies(history, borrow, sizing)
		if fixed <= 0 {
			policy, err := swap.ParsePolicy(cfg.Simulation.Policy)
			if err != nil {
				return err
			}
			for _, row := range policies {
				if row.Policy == policy {
					if row.Err != nil {
						return fmt.Errorf("policy %s: %w", policy, row.Err)
					}
					fixed = row.Rate
				}
			}
		}

		// Floating leg: forecast path or the most recent history window.
		floating := history
		if useForecast {
			floating, err = swap.Forecast(history, swap.ForecastConfig{
				Horizon:     days,
				FallbackPhi: cfg.Forecast.FallbackPhi,
				ShockStdDev: cfg.Forecast.ShockStdDev,
				Seed:        cfg.Forecast.Seed,
			})
			if err != nil {
				return err
			}
		} else {
			if days > len(floating) {
				days = len(floating)
			}
			floating = floating[len(floating)-days:]
		}

		engine := swap.NewEngine(swap.Config{
			FixedAnnual:           fixed,
			BorrowAmount:          borrow,
			CollateralValue:       sizing.CollateralValue,
			LiquidationThreshold:  sizing.LiquidationThreshold,
			CompoundFixedNotional: cfg.Simulation.CompoundFixedNotional,
			BreachOnCumulativeNet: cfg.Simulation.BreachOnCumulativeNet,
		})
		result, err := engine.Run(floating)
		if err != nil {
			return err
		}

		in := &report.Input{
			Market:       market,
			Position:     &pos,
			Sizing:       &sizing,
			Stats:        &stats,
			Observations: obs,
			Policies:     policies,
			Result:       result,
		}
		text, err := report.GenerateText(in, report.DefaultReportConfig())
		if err != nil {
			return err
		}
		fmt.Println(text)

		if csvPath != "" {
			if err := report.SaveLedgerCSV(csvPath, result.Days); err != nil {
				return err
			}
			fmt.Printf("Ledger written to %s (%d rows)\n", csvPath, len(result.Days))
		}
		if htmlPath != "" {
			html, err := report.GenerateHTML(in, report.DefaultReportConfig())
			if err != nil {
				return err
			}
			if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", htmlPath, err)
			}
			fmt.Printf("HTML report written to %s\n", htmlPath)
		}
		if pdfPath != "" {
			html, err := report.GenerateHTML(in, report.DefaultReportConfig())
			if err != nil {
				return err
			}
			pdfCfg := report.DefaultPDFConfig()
			pdfCfg.OutputPath = pdfPath
			if err := report.GeneratePDF(html, pdfCfg); err != nil {
				return err
			}
			if report.IsPDFSupported() {
				fmt.Printf("PDF report written to %s\n", pdfPath)
			} else {
				fmt.Printf("No PDF engine found (wkhtmltopdf/chromium); HTML written alongside %s\n", pdfPath)
			}
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().Float64("fixed", 0, "fixed annual rate as a decimal fraction (default: from configured policy)")
	simulateCmd.Flags().Float64("borrow", 0, "borrow amount in USD (default: configured)")
	simulateCmd.Flags().Int("days", 0, "simulation horizon in days (default: configured)")
	simulateCmd.Flags().Bool("use-forecast", false, "simulate over a forecast path instead of replaying history")
	simulateCmd.Flags().String("csv", "", "write the per-day ledger to a CSV file")
	simulateCmd.Flags().String("html", "", "write an HTML report (charts included) to a file")
	simulateCmd.Flags().String("pdf", "", "write a PDF report via wkhtmltopdf/chromium (falls back to HTML)")
}

// comparePolicies runs all three fixed-rate policies for the report's
// comparison table. Individual policy failures render as notes.
func comparePolicies(series []float64, borrow float64, sizing swap.Sizing) []report.PolicyRow {
	rows := make([]report.PolicyRow, 0, 3)
	for _, p := range []swap.Policy{swap.PolicyStatOffset, swap.PolicyMaxMargin, swap.PolicySafeSearch} {
		selector := swap.NewSelector(swap.SelectorConfig{
			Policy:           p,
			OffsetK:          cfg.Simulation.OffsetK,
			Margin:           cfg.Simulation.Margin,
			BisectIterations: cfg.Simulation.BisectIterations,
			DoubleAttempts:   cfg.Simulation.DoubleAttempts,
		})
		rate, err := selector.Suggest(series, borrow, sizing)
		rows = append(rows, report.PolicyRow{Policy: p, Rate: rate, Err: err})
	}
	return rows
}

// --- Feed Command ---

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show recent governance forum posts for the market",
	RunE: func(cmd *cobra.Command, args []string) error {
		market, err := activeMarket(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := commandContext()
		defer cancel()

		agg := datasource.NewAggregator(cfg)
		posts, err := agg.ForumSource().MarketPosts(ctx, market, limit)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			fmt.Printf("No recent posts matching %s\n", market.Name)
			return nil
		}
		for _, p := range posts {
			fmt.Printf("[%s] %s\n  %s\n", p.Published.UTC().Format("02 Jan 2006"), p.Title, p.Link)
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().Int("limit", 10, "maximum posts to show")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		srv.SetVersion(version)
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting swapsim API server on %s (market: %s)\n", addr, cfg.Market.Name)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  swapsim — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:  %s (%s)\n", version, commit)
		fmt.Printf("  Time:     %s\n", utils.FormatDateTimeUTC(time.Now()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Market:      %s (%s vs %s)\n", cfg.Market.Name, cfg.Market.BaseSymbol, cfg.Market.CollateralSymbol)
		fmt.Printf("    Lookback:    %d days\n", cfg.Data.LookbackDays)
		fmt.Printf("    Horizon:     %d days\n", cfg.Simulation.HorizonDays)
		fmt.Printf("    Policy:      %s\n", cfg.Simulation.Policy)
		fmt.Printf("    Store:       %s\n", storageLabel(cfg.Store.DatabaseURL, "postgres", "in-memory"))
		fmt.Printf("    Cache:       %s\n", storageLabel(cfg.Cache.RedisAddr, "redis", "in-memory"))
		fmt.Printf("    API Server:  %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  Credentials:")
		for _, k := range config.CheckSecrets(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func storageLabel(value, configured, fallback string) string {
	if value != "" {
		return configured
	}
	return fallback
}
