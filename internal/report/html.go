package report

import (
	"fmt"
	"html/template"
	"strings"
)

// ════════════════════════════════════════════════════════════════════
// HTML Report
// ════════════════════════════════════════════════════════════════════

// htmlReportData extends the display model with rendered chart SVGs and
// the verdict banner. Charts are template.HTML so the markup survives
// template escaping.
type htmlReportData struct {
	ReportData

	Verdict      string
	VerdictClass string

	RateChart     template.HTML
	DebtChart     template.HTML
	CashflowChart template.HTML
}

// GenerateHTML renders the full HTML report, including inline SVG
// charts when the input carries rate observations or a simulation
// ledger.
func GenerateHTML(in *Input, cfg ReportConfig) (string, error) {
	if in == nil {
		return "", fmt.Errorf("report input is nil")
	}

	data := htmlReportData{ReportData: buildReportData(in, cfg)}

	if in.Result != nil {
		if in.Result.Summary.Breached {
			data.Verdict = "LIQUIDATION BREACH"
			data.VerdictClass = "breach"
		} else {
			data.Verdict = "POSITION HELD"
			data.VerdictClass = "safe"
		}
	}

	chartCfg := DefaultChartConfig()
	if len(in.Observations) > 0 {
		fixed := 0.0
		if in.Result != nil {
			fixed = in.Result.Summary.FixedAnnual
		}
		data.RateChart = template.HTML(RateHistoryChart(in.Observations, fixed, chartCfg))
	}
	if in.Result != nil && len(in.Result.Days) > 0 {
		data.DebtChart = template.HTML(DebtChart(in.Result.Days, chartCfg))
		data.CashflowChart = template.HTML(CashflowChart(in.Result.Days, chartCfg))
	}

	tmpl, err := template.New("report").Parse(ReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing report template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering report template: %w", err)
	}
	return sb.String(), nil
}
