package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/swap"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator — Pure Go, Zero Dependencies
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// ════════════════════════════════════════════════════════════════════
// Line Chart
// ════════════════════════════════════════════════════════════════════

// LineChartSeries represents a named data series for line charts.
type LineChartSeries struct {
	Name   string
	Values []float64
	Color  string // hex color (optional, auto-assigned if empty)
	Dashed bool   // render as a dashed line (thresholds, references)
}

// yFormatter renders an axis value; defaults to %.2f.
type yFormatter func(float64) string

// LineChart generates an SVG line chart with one or more series.
// Labels are optional X-axis labels corresponding to data points.
func LineChart(series []LineChartSeries, labels []string, cfg ChartConfig) string {
	return lineChart(series, labels, cfg, nil)
}

func lineChart(series []LineChartSeries, labels []string, cfg ChartConfig, fmtY yFormatter) string {
	if len(series) == 0 {
		return emptySVG(cfg, "No data")
	}

	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Line Chart"
	}
	if fmtY == nil {
		fmtY = func(v float64) string { return fmt.Sprintf("%.2f", v) }
	}

	px, py, pw, ph := cfg.plotArea()

	// Find global min/max
	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	maxLen := 0
	for _, s := range series {
		if len(s.Values) > maxLen {
			maxLen = len(s.Values)
		}
		for _, v := range s.Values {
			if !math.IsNaN(v) && !math.IsInf(v, 0) && v < minVal {
				minVal = v
			}
			if !math.IsNaN(v) && !math.IsInf(v, 0) && v > maxVal {
				maxVal = v
			}
		}
	}
	if maxLen == 0 {
		return emptySVG(cfg, "No data points")
	}

	vRange := maxVal - minVal
	if vRange < 1e-9 {
		vRange = 1
	}
	minVal -= vRange * 0.05
	maxVal += vRange * 0.05
	vRange = maxVal - minVal

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Y-axis grid
	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, escapeXML(fmtY(val))))
	}

	// Draw series
	defaultColors := []string{"#2196f3", "#ff9800", "#4caf50", "#e91e63", "#9c27b0", "#00bcd4"}
	denom := float64(maxLen - 1)
	if denom < 1 {
		denom = 1
	}
	for si, s := range series {
		color := s.Color
		if color == "" {
			color = defaultColors[si%len(defaultColors)]
		}

		var pathParts []string
		for i, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			cx := float64(px) + float64(i)*float64(pw)/denom
			ratio := (v - minVal) / vRange
			cy := float64(py+ph) - ratio*float64(ph)
			cmd := "L"
			if len(pathParts) == 0 {
				cmd = "M"
			}
			pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, cx, cy))
		}
		if len(pathParts) > 1 {
			dash := ""
			if s.Dashed {
				dash = ` stroke-dasharray="6,4"`
			}
			sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"%s/>`,
				strings.Join(pathParts, " "), color, dash))
		}

		// Legend
		ly := py + 10 + si*16
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			px+10, ly, px+30, ly, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+35, ly+4, cfg.TextColor, escapeXML(s.Name)))
	}

	// X-axis labels
	if len(labels) > 0 {
		interval := maxLen / 6
		if interval < 1 {
			interval = 1
		}
		for i := 0; i < len(labels) && i < maxLen; i += interval {
			cx := float64(px) + float64(i)*float64(pw)/denom
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
				cx, py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i])))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Rate History Chart
// ════════════════════════════════════════════════════════════════════

// RateHistoryChart generates an SVG chart of the borrow (and supply)
// rate history with the chosen fixed rate drawn as a dashed reference
// line. Rates are plotted in percent.
func RateHistoryChart(obs []swap.RateObservation, fixedAnnual float64, cfg ChartConfig) string {
	if len(obs) == 0 {
		return emptySVG(cfg, "No rate history")
	}
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Borrow Rate History"
	}

	borrow := make([]float64, len(obs))
	supply := make([]float64, len(obs))
	labels := make([]string, len(obs))
	hasSupply := false
	for i, o := range obs {
		borrow[i] = o.BorrowAnnual * 100
		supply[i] = o.SupplyAnnual * 100
		if o.SupplyAnnual > 0 {
			hasSupply = true
		}
		labels[i] = dayLabel(o.Timestamp)
	}

	series := []LineChartSeries{
		{Name: "Borrow APR", Values: borrow, Color: "#2196f3"},
	}
	if hasSupply {
		series = append(series, LineChartSeries{Name: "Supply APR", Values: supply, Color: "#4caf50"})
	}
	if fixedAnnual > 0 {
		fixed := make([]float64, len(obs))
		for i := range fixed {
			fixed[i] = fixedAnnual * 100
		}
		series = append(series, LineChartSeries{Name: "Fixed leg", Values: fixed, Color: "#e91e63", Dashed: true})
	}

	return lineChart(series, labels, cfg, percentAxis)
}

// ════════════════════════════════════════════════════════════════════
// Debt vs Liquidation Threshold Chart
// ════════════════════════════════════════════════════════════════════

// DebtChart generates an SVG chart of outstanding debt against the
// liquidation threshold over the simulation horizon. A breach day, if
// any, is marked with a vertical line.
func DebtChart(days []swap.SimulationDay, cfg ChartConfig) string {
	if len(days) == 0 {
		return emptySVG(cfg, "No simulation data")
	}
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Outstanding Debt vs Liquidation Threshold"
	}

	debt := make([]float64, len(days))
	threshold := make([]float64, len(days))
	labels := make([]string, len(days))
	breachIdx := -1
	for i, d := range days {
		debt[i] = d.OutstandingDebt
		threshold[i] = d.LiquidationThreshold
		labels[i] = fmt.Sprintf("d%d", d.Day)
		if d.Breached && breachIdx < 0 {
			breachIdx = i
		}
	}

	svg := lineChart([]LineChartSeries{
		{Name: "Debt", Values: debt, Color: "#2196f3"},
		{Name: "Liquidation threshold", Values: threshold, Color: "#ef5350", Dashed: true},
	}, labels, cfg, usdAxis)

	if breachIdx >= 0 {
		svg = overlayBreachMarker(svg, breachIdx, len(days), days[breachIdx].Day, cfg)
	}
	return svg
}

// overlayBreachMarker injects a vertical breach marker before the
// closing svg tag.
func overlayBreachMarker(svg string, idx, n, day int, cfg ChartConfig) string {
	px, py, pw, ph := cfg.plotArea()
	denom := float64(n - 1)
	if denom < 1 {
		denom = 1
	}
	x := float64(px) + float64(idx)*float64(pw)/denom
	marker := fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#ef5350" stroke-width="1.5" stroke-dasharray="2,3"/><text x="%.1f" y="%d" font-size="10" fill="#ef5350" text-anchor="middle">breach d%d</text>`,
		x, py, x, py+ph, x, py-4, day)
	return strings.Replace(svg, "</svg>", marker+"</svg>", 1)
}

// ════════════════════════════════════════════════════════════════════
// Cumulative Net Cashflow Chart
// ════════════════════════════════════════════════════════════════════

// CashflowChart generates an SVG chart of the cumulative net cashflow
// (floating interest avoided minus fixed payments) with a zero line.
func CashflowChart(days []swap.SimulationDay, cfg ChartConfig) string {
	if len(days) == 0 {
		return emptySVG(cfg, "No simulation data")
	}
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Cumulative Net Cashflow"
	}

	net := make([]float64, len(days))
	zero := make([]float64, len(days))
	labels := make([]string, len(days))
	for i, d := range days {
		net[i] = d.CumulativeNet
		labels[i] = fmt.Sprintf("d%d", d.Day)
	}

	return lineChart([]LineChartSeries{
		{Name: "Cumulative net", Values: net, Color: "#4caf50"},
		{Name: "Break-even", Values: zero, Color: "#999999", Dashed: true},
	}, labels, cfg, usdAxis)
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func percentAxis(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func usdAxis(v float64) string {
	if math.Abs(v) >= 1000 {
		return fmt.Sprintf("$%.1fk", v/1000)
	}
	return fmt.Sprintf("$%.0f", v)
}

func dayLabel(unixSec int64) string {
	return time.Unix(unixSec, 0).UTC().Format("02 Jan")
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
