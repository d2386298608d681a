// Package report renders simulation results as markdown summaries,
// plain-text terminal reports, and CSV ledgers.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/swap"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator — Orchestrates section rendering
// ════════════════════════════════════════════════════════════════════

// ReportFormat specifies the output format.
type ReportFormat string

const (
	FormatMarkdown ReportFormat = "markdown"
	FormatText     ReportFormat = "text"
)

// ReportSection identifies a section to include/exclude.
type ReportSection string

const (
	SectionPosition   ReportSection = "position"
	SectionRates      ReportSection = "rates"
	SectionPolicies   ReportSection = "policies"
	SectionSimulation ReportSection = "simulation"
	SectionFeed       ReportSection = "feed"
)

// AllSections returns all report sections in display order.
func AllSections() []ReportSection {
	return []ReportSection{
		SectionPosition,
		SectionRates,
		SectionPolicies,
		SectionSimulation,
		SectionFeed,
	}
}

// ReportConfig controls report generation behaviour.
type ReportConfig struct {
	Format      ReportFormat    // output format (default: markdown)
	Sections    []ReportSection // sections to include (default: all)
	Title       string          // custom report title (optional)
	GeneratedAt time.Time       // report timestamp (optional, default: now)
}

// DefaultReportConfig returns sensible defaults.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Format:   FormatMarkdown,
		Sections: AllSections(),
	}
}

// hasSection returns true if the section is included in the config.
func (rc ReportConfig) hasSection(s ReportSection) bool {
	for _, sec := range rc.Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// ════════════════════════════════════════════════════════════════════
// Report Input — What a run produced
// ════════════════════════════════════════════════════════════════════

// PolicyRow is one fixed-rate policy outcome for the comparison table.
// Err carries a policy that could not produce a rate (for example the
// safety search exhausting its bounds); the row still renders.
type PolicyRow struct {
	Policy swap.Policy
	Rate   float64
	Err    error
}

// Input collects everything a run can feed into a report. Nil or empty
// parts simply drop their sections.
type Input struct {
	Market       models.Market
	Position     *swap.Position
	Sizing       *swap.Sizing
	Stats        *swap.RateStats        // borrow-rate window statistics
	Observations []swap.RateObservation // raw history, drives the rate chart
	Policies     []PolicyRow
	Result       *swap.Result
	Posts        []models.GovernancePost
}

// ════════════════════════════════════════════════════════════════════
// Report Data — Flattened for rendering
// ════════════════════════════════════════════════════════════════════

// ReportData is the display model: every number pre-formatted.
type ReportData struct {
	// Header
	Title       string
	MarketName  string
	Pair        string // e.g. "borrow USDC against WETH"
	Comet       string
	GeneratedAt string

	// Position
	Collateral      string
	CollateralValue string
	BorrowCF        string
	LiquidateCF     string
	Penalty         string
	MaxBorrow       string
	LiqThreshold    string
	SafetyBuffer    string

	// Rate statistics
	RateCount  string
	RateMean   string
	RateMedian string
	RateStdDev string
	RateMin    string
	RateMax    string
	RateP95    string

	// Policy comparison
	PolicyRows []PolicyDisplayRow

	// Simulation summary
	HorizonDays   string
	FixedAnnual   string
	BorrowAmount  string
	FinalDebt     string
	FinalLTV      string
	CumulativeNet string
	TotalFixed    string
	TotalFloating string
	MaxDebt       string
	BreachNote    string
	Breached      bool

	// Governance feed
	FeedRows []FeedRow

	// Section visibility flags
	ShowPosition   bool
	ShowRates      bool
	ShowPolicies   bool
	ShowSimulation bool
	ShowFeed       bool
}

// PolicyDisplayRow is a flattened policy outcome.
type PolicyDisplayRow struct {
	Name string
	Rate string
	Note string
}

// FeedRow is a flattened governance post.
type FeedRow struct {
	Title     string
	Published string
	Link      string
}

// ════════════════════════════════════════════════════════════════════
// Generate Report
// ════════════════════════════════════════════════════════════════════

// Generate renders the report in the configured format.
func Generate(in *Input, cfg ReportConfig) (string, error) {
	if in == nil {
		return "", fmt.Errorf("report input is nil")
	}
	data := buildReportData(in, cfg)
	switch cfg.Format {
	case FormatText:
		return renderTextReport(data), nil
	case FormatMarkdown, "":
		return renderMarkdownReport(data), nil
	}
	return "", fmt.Errorf("unsupported report format %q", cfg.Format)
}

// GenerateMarkdown renders a markdown summary report.
func GenerateMarkdown(in *Input, cfg ReportConfig) (string, error) {
	cfg.Format = FormatMarkdown
	return Generate(in, cfg)
}

// GenerateText renders a plain-text report (terminal / CLI friendly).
func GenerateText(in *Input, cfg ReportConfig) (string, error) {
	cfg.Format = FormatText
	return Generate(in, cfg)
}

// ════════════════════════════════════════════════════════════════════
// Internal — Build display data
// ════════════════════════════════════════════════════════════════════

func buildReportData(in *Input, cfg ReportConfig) ReportData {
	at := cfg.GeneratedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	data := ReportData{
		Title:       cfg.Title,
		MarketName:  in.Market.Name,
		Comet:       in.Market.Comet,
		GeneratedAt: utils.FormatDateTimeUTC(at),

		ShowPosition:   cfg.hasSection(SectionPosition) && in.Position != nil && in.Sizing != nil,
		ShowRates:      cfg.hasSection(SectionRates) && in.Stats != nil,
		ShowPolicies:   cfg.hasSection(SectionPolicies) && len(in.Policies) > 0,
		ShowSimulation: cfg.hasSection(SectionSimulation) && in.Result != nil,
		ShowFeed:       cfg.hasSection(SectionFeed) && len(in.Posts) > 0,
	}

	if in.Market.BaseSymbol != "" {
		data.Pair = fmt.Sprintf("borrow %s against %s", in.Market.BaseSymbol, in.Market.CollateralSymbol)
	}
	if data.Title == "" {
		name := data.MarketName
		if name == "" {
			name = "Compound v3"
		}
		data.Title = fmt.Sprintf("%s — Fixed vs Floating Swap Report", name)
	}

	if data.ShowPosition {
		p, s := in.Position, in.Sizing
		symbol := in.Market.CollateralSymbol
		if symbol == "" {
			symbol = "units"
		}
		data.Collateral = fmt.Sprintf("%.4f %s @ %s", p.CollateralAmount, symbol, utils.FormatUSD(p.CollateralPriceUSD))
		data.CollateralValue = utils.FormatUSD(s.CollateralValue)
		data.BorrowCF = utils.FormatRate(p.BorrowCollateralFactor)
		data.LiquidateCF = utils.FormatRate(p.LiquidateCollateralFactor)
		data.Penalty = utils.FormatRate(p.LiquidationPenalty)
		data.MaxBorrow = utils.FormatUSD(s.MaxBorrow)
		data.LiqThreshold = utils.FormatUSD(s.LiquidationThreshold)
		data.SafetyBuffer = utils.FormatUSD(s.SafetyBuffer())
	}

	if data.ShowRates {
		st := in.Stats
		data.RateCount = fmt.Sprintf("%d", st.Count)
		data.RateMean = utils.FormatRate(st.Mean)
		data.RateMedian = utils.FormatRate(st.Median)
		data.RateStdDev = utils.FormatRate(st.StdDev)
		data.RateMin = utils.FormatRate(st.Min)
		data.RateMax = utils.FormatRate(st.Max)
		data.RateP95 = utils.FormatRate(st.P95)
	}

	if data.ShowPolicies {
		data.PolicyRows = make([]PolicyDisplayRow, len(in.Policies))
		for i, row := range in.Policies {
			out := PolicyDisplayRow{Name: formatPolicy(row.Policy)}
			if row.Err != nil {
				out.Rate = "—"
				out.Note = row.Err.Error()
			} else {
				out.Rate = utils.FormatRate(row.Rate)
			}
			data.PolicyRows[i] = out
		}
	}

	if data.ShowSimulation {
		sum := in.Result.Summary
		data.HorizonDays = fmt.Sprintf("%d", sum.HorizonDays)
		data.FixedAnnual = utils.FormatRate(sum.FixedAnnual)
		data.BorrowAmount = utils.FormatUSD(sum.BorrowAmount)
		data.FinalDebt = utils.FormatUSD(sum.FinalDebt)
		data.FinalLTV = utils.FormatLTV(sum.FinalLTV)
		data.CumulativeNet = utils.FormatUSD(sum.CumulativeNet)
		data.TotalFixed = utils.FormatUSD(sum.TotalFixedPaid)
		data.TotalFloating = utils.FormatUSD(sum.TotalFloatingPaid)
		data.MaxDebt = utils.FormatUSD(sum.MaxDebt)
		data.Breached = sum.Breached
		if sum.Breached {
			data.BreachNote = fmt.Sprintf("Debt first crossed the liquidation threshold on day %d of %d. The run continued to the full horizon; in production the position would have been liquidated.", sum.FirstBreachDay, sum.HorizonDays)
		} else {
			data.BreachNote = fmt.Sprintf("Debt stayed below the liquidation threshold for all %d days.", sum.HorizonDays)
		}
	}

	if data.ShowFeed {
		data.FeedRows = make([]FeedRow, len(in.Posts))
		for i, post := range in.Posts {
			data.FeedRows[i] = FeedRow{
				Title:     post.Title,
				Published: post.Published.UTC().Format("02 Jan 2006"),
				Link:      post.Link,
			}
		}
	}

	return data
}

func formatPolicy(p swap.Policy) string {
	switch p {
	case swap.PolicyStatOffset:
		return "Statistical Offset"
	case swap.PolicyMaxMargin:
		return "Max + Margin"
	case swap.PolicySafeSearch:
		return "Liquidation-Safe Search"
	default:
		return string(p)
	}
}

// ════════════════════════════════════════════════════════════════════
// Markdown renderer
// ════════════════════════════════════════════════════════════════════

func renderMarkdownReport(d ReportData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", d.Title))
	sb.WriteString(fmt.Sprintf("_Generated %s_\n\n", d.GeneratedAt))
	if d.MarketName != "" {
		line := fmt.Sprintf("**Market:** %s", d.MarketName)
		if d.Pair != "" {
			line += " — " + d.Pair
		}
		sb.WriteString(line + "\n")
		if d.Comet != "" {
			sb.WriteString(fmt.Sprintf("**Comet:** `%s`\n", d.Comet))
		}
		sb.WriteString("\n")
	}

	if d.ShowPosition {
		sb.WriteString("## Position\n\n")
		sb.WriteString("| | |\n|---|---|\n")
		sb.WriteString(fmt.Sprintf("| Collateral | %s |\n", d.Collateral))
		sb.WriteString(fmt.Sprintf("| Collateral value | %s |\n", d.CollateralValue))
		sb.WriteString(fmt.Sprintf("| Borrow collateral factor | %s |\n", d.BorrowCF))
		sb.WriteString(fmt.Sprintf("| Liquidate collateral factor | %s |\n", d.LiquidateCF))
		sb.WriteString(fmt.Sprintf("| Liquidation penalty | %s |\n", d.Penalty))
		sb.WriteString(fmt.Sprintf("| Max borrow | %s |\n", d.MaxBorrow))
		sb.WriteString(fmt.Sprintf("| Liquidation threshold | %s |\n", d.LiqThreshold))
		sb.WriteString(fmt.Sprintf("| Safety buffer | %s |\n\n", d.SafetyBuffer))
	}

	if d.ShowRates {
		sb.WriteString("## Borrow Rate History\n\n")
		sb.WriteString("| Observations | Mean | Median | Std Dev | Min | Max | P95 |\n")
		sb.WriteString("|---|---|---|---|---|---|---|\n")
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s |\n\n",
			d.RateCount, d.RateMean, d.RateMedian, d.RateStdDev, d.RateMin, d.RateMax, d.RateP95))
	}

	if d.ShowPolicies {
		sb.WriteString("## Fixed Rate Policies\n\n")
		sb.WriteString("| Policy | Suggested Rate | Note |\n|---|---|---|\n")
		for _, row := range d.PolicyRows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", row.Name, row.Rate, row.Note))
		}
		sb.WriteString("\n")
	}

	if d.ShowSimulation {
		sb.WriteString("## Simulation\n\n")
		sb.WriteString("| | |\n|---|---|\n")
		sb.WriteString(fmt.Sprintf("| Horizon | %s days |\n", d.HorizonDays))
		sb.WriteString(fmt.Sprintf("| Fixed annual rate | %s |\n", d.FixedAnnual))
		sb.WriteString(fmt.Sprintf("| Borrowed | %s |\n", d.BorrowAmount))
		sb.WriteString(fmt.Sprintf("| Final debt | %s |\n", d.FinalDebt))
		sb.WriteString(fmt.Sprintf("| Max debt | %s |\n", d.MaxDebt))
		sb.WriteString(fmt.Sprintf("| Final LTV | %s |\n", d.FinalLTV))
		sb.WriteString(fmt.Sprintf("| Total fixed paid | %s |\n", d.TotalFixed))
		sb.WriteString(fmt.Sprintf("| Total floating interest | %s |\n", d.TotalFloating))
		sb.WriteString(fmt.Sprintf("| Cumulative net cashflow | %s |\n\n", d.CumulativeNet))
		if d.Breached {
			sb.WriteString(fmt.Sprintf("⚠️ **Liquidation breach.** %s\n\n", d.BreachNote))
		} else {
			sb.WriteString(fmt.Sprintf("✅ %s\n\n", d.BreachNote))
		}
	}

	if d.ShowFeed {
		sb.WriteString("## Governance Feed\n\n")
		for _, row := range d.FeedRows {
			sb.WriteString(fmt.Sprintf("- [%s](%s) — %s\n", row.Title, row.Link, row.Published))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString("_Simulation output for research purposes. Not financial advice; historical and projected rates do not bound future borrow rates._\n")

	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", d.GeneratedAt))
	sb.WriteString(line + "\n\n")

	if d.MarketName != "" {
		sb.WriteString(fmt.Sprintf("  %s", d.MarketName))
		if d.Pair != "" {
			sb.WriteString(fmt.Sprintf(" — %s", d.Pair))
		}
		sb.WriteString("\n")
		if d.Comet != "" {
			sb.WriteString(fmt.Sprintf("  Comet: %s\n", d.Comet))
		}
		sb.WriteString(thinLine + "\n")
	}

	if d.ShowPosition {
		sb.WriteString("\n  ■ POSITION SIZING\n")
		sb.WriteString(fmt.Sprintf("    %-28s %s\n", "Collateral", d.Collateral))
		sb.WriteString(fmt.Sprintf("    %-28s %s\n", "Collateral value", d.CollateralValue))
		sb.WriteString(fmt.Sprintf("    %-28s %s\n", "Borrow collateral factor", d.BorrowCF))
		sb.WriteString(fmt.Sprintf("    %-28s %s\n", "Liquidate collateral factor", d.LiquidateCF))
		sb.WriteString(fmt.Sprintf("    %-28s %s\n", "Liquidation penalty", d.Penalty))
		sb.WriteString(fmt.Sprintf("    %-28s %s\n", "Max borrow", d.MaxBorrow))
		sb.WriteString(fmt.Sprintf("    %-28s %s\n", "Liquidation threshold", d.LiqThreshold))
		sb.WriteString(fmt.Sprintf("    %-28s %s\n", "Safety buffer", d.SafetyBuffer))
		sb.WriteString(thinLine + "\n")
	}

	if d.ShowRates {
		sb.WriteString("\n  ■ BORROW RATE HISTORY\n")
		sb.WriteString(fmt.Sprintf("    %s observations\n", d.RateCount))
		sb.WriteString(fmt.Sprintf("    Mean: %s | Median: %s | Std Dev: %s\n", d.RateMean, d.RateMedian, d.RateStdDev))
		sb.WriteString(fmt.Sprintf("    Min: %s | Max: %s | P95: %s\n", d.RateMin, d.RateMax, d.RateP95))
		sb.WriteString(thinLine + "\n")
	}

	if d.ShowPolicies {
		sb.WriteString("\n  ■ FIXED RATE POLICIES\n")
		for _, row := range d.PolicyRows {
			if row.Note != "" {
				sb.WriteString(fmt.Sprintf("    %-26s %s (%s)\n", row.Name, row.Rate, row.Note))
			} else {
				sb.WriteString(fmt.Sprintf("    %-26s %s\n", row.Name, row.Rate))
			}
		}
		sb.WriteString(thinLine + "\n")
	}

	if d.ShowSimulation {
		sb.WriteString("\n  ★ SIMULATION\n")
		sb.WriteString(fmt.Sprintf("    Horizon: %s days | Fixed: %s | Borrowed: %s\n", d.HorizonDays, d.FixedAnnual, d.BorrowAmount))
		sb.WriteString(fmt.Sprintf("    Final debt: %s (max %s) | Final LTV: %s\n", d.FinalDebt, d.MaxDebt, d.FinalLTV))
		sb.WriteString(fmt.Sprintf("    Fixed paid: %s | Floating interest: %s\n", d.TotalFixed, d.TotalFloating))
		sb.WriteString(fmt.Sprintf("    Cumulative net cashflow: %s\n", d.CumulativeNet))
		if d.Breached {
			sb.WriteString(fmt.Sprintf("\n    ⚠ BREACH: %s\n", d.BreachNote))
		} else {
			sb.WriteString(fmt.Sprintf("\n    %s\n", d.BreachNote))
		}
		sb.WriteString(thinLine + "\n")
	}

	if d.ShowFeed {
		sb.WriteString("\n  ■ GOVERNANCE FEED\n")
		for _, row := range d.FeedRows {
			sb.WriteString(fmt.Sprintf("    [%s] %s\n", row.Published, row.Title))
			sb.WriteString(fmt.Sprintf("      %s\n", row.Link))
		}
		sb.WriteString(thinLine + "\n")
	}

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  Simulation output for research purposes. Not financial advice;\n")
	sb.WriteString("  historical and projected rates do not bound future borrow rates.\n")
	sb.WriteString(line + "\n")

	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Utility: Timestamp
// ════════════════════════════════════════════════════════════════════

// ReportTimestamp returns the current UTC time formatted for report headers.
func ReportTimestamp() string {
	return utils.FormatDateTimeUTC(time.Now())
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
