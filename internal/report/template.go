package report

// ReportTemplate is the HTML template for the simulation report.
// It is embedded as a Go constant — no external file dependencies.
const ReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1, h2, h3 { font-weight: 600; }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 16px 0 8px; }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Header */
  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .header-left h1 { color: var(--accent); }
  .header-right { text-align: right; }
  .market-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    font-size: 1.1rem;
    margin-right: 8px;
  }
  .comet-addr { font-family: ui-monospace, monospace; font-size: 0.8rem; }

  /* Metric bar */
  .metric-bar {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(150px, 1fr));
    gap: 8px;
    background: var(--section-bg);
    padding: 12px;
    border-radius: 8px;
    margin-bottom: 16px;
  }
  .metric-item { text-align: center; }
  .metric-item .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
  .metric-item .value { font-size: 1rem; font-weight: 600; }
  .positive { color: var(--green); }
  .negative { color: var(--red); }

  /* Verdict box */
  .verdict-box {
    display: flex;
    align-items: center;
    gap: 16px;
    padding: 16px;
    border-radius: 8px;
    margin: 12px 0;
  }
  .verdict-box.safe { background: #dcfce7; border-left: 5px solid var(--green); }
  .verdict-box.breach { background: #fef2f2; border-left: 5px solid var(--red); }
  .verdict-label { font-size: 1.4rem; font-weight: 700; }
  .verdict-box.safe .verdict-label { color: var(--green); }
  .verdict-box.breach .verdict-label { color: var(--red); }

  /* Tables */
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }

  /* Chart container */
  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }

  .section { margin: 20px 0; }
  .section-summary {
    background: var(--section-bg);
    padding: 12px;
    border-radius: 6px;
    margin: 8px 0;
    font-size: 0.95rem;
    line-height: 1.7;
  }

  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div class="header-left">
    <h1><span class="market-badge">{{.MarketName}}</span> Fixed vs Floating Swap</h1>
    <p class="muted">{{.Pair}}{{if .Comet}} · Comet <span class="comet-addr">{{.Comet}}</span>{{end}}</p>
  </div>
  <div class="header-right">
    <p class="muted">{{.GeneratedAt}}</p>
  </div>
</div>

<!-- ═══════ POSITION BAR ═══════ -->
{{if .ShowPosition}}
<div class="metric-bar">
  <div class="metric-item">
    <div class="label">Collateral</div>
    <div class="value">{{.Collateral}}</div>
  </div>
  <div class="metric-item">
    <div class="label">Collateral Value</div>
    <div class="value">{{.CollateralValue}}</div>
  </div>
  <div class="metric-item">
    <div class="label">Max Borrow</div>
    <div class="value">{{.MaxBorrow}}</div>
  </div>
  <div class="metric-item">
    <div class="label">Liq. Threshold</div>
    <div class="value">{{.LiqThreshold}}</div>
  </div>
  <div class="metric-item">
    <div class="label">Safety Buffer</div>
    <div class="value">{{.SafetyBuffer}}</div>
  </div>
  <div class="metric-item">
    <div class="label">Liq. Penalty</div>
    <div class="value">{{.Penalty}}</div>
  </div>
</div>
{{end}}

<!-- ═══════ SIMULATION VERDICT ═══════ -->
{{if .ShowSimulation}}
<div class="section">
  <h2>Simulation</h2>
  <div class="verdict-box {{.VerdictClass}}">
    <div>
      <div class="verdict-label">{{.Verdict}}</div>
      <div class="muted">{{.HorizonDays}} days · fixed {{.FixedAnnual}} on {{.BorrowAmount}}</div>
    </div>
  </div>
  <div class="section-summary">{{.BreachNote}}</div>

  <table>
    <thead><tr><th>Final Debt</th><th>Max Debt</th><th>Final LTV</th><th>Fixed Paid</th><th>Floating Interest</th><th>Net Cashflow</th></tr></thead>
    <tbody>
      <tr>
        <td>{{.FinalDebt}}</td>
        <td>{{.MaxDebt}}</td>
        <td>{{.FinalLTV}}</td>
        <td>{{.TotalFixed}}</td>
        <td>{{.TotalFloating}}</td>
        <td>{{.CumulativeNet}}</td>
      </tr>
    </tbody>
  </table>

  {{if .DebtChart}}
  <div class="chart-container">{{.DebtChart}}</div>
  {{end}}
  {{if .CashflowChart}}
  <div class="chart-container">{{.CashflowChart}}</div>
  {{end}}
</div>
{{end}}

<!-- ═══════ RATE HISTORY ═══════ -->
{{if .ShowRates}}
<div class="section">
  <h2>Borrow Rate History</h2>
  <table>
    <thead><tr><th>Observations</th><th>Mean</th><th>Median</th><th>Std Dev</th><th>Min</th><th>Max</th><th>P95</th></tr></thead>
    <tbody>
      <tr>
        <td>{{.RateCount}}</td>
        <td>{{.RateMean}}</td>
        <td>{{.RateMedian}}</td>
        <td>{{.RateStdDev}}</td>
        <td>{{.RateMin}}</td>
        <td>{{.RateMax}}</td>
        <td>{{.RateP95}}</td>
      </tr>
    </tbody>
  </table>
  {{if .RateChart}}
  <div class="chart-container">{{.RateChart}}</div>
  {{end}}
</div>
{{end}}

<!-- ═══════ FIXED RATE POLICIES ═══════ -->
{{if .ShowPolicies}}
<div class="section">
  <h2>Fixed Rate Policies</h2>
  <table>
    <thead><tr><th>Policy</th><th>Suggested Rate</th><th>Note</th></tr></thead>
    <tbody>
    {{range .PolicyRows}}
    <tr>
      <td>{{.Name}}</td>
      <td>{{.Rate}}</td>
      <td class="muted">{{.Note}}</td>
    </tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

<!-- ═══════ GOVERNANCE FEED ═══════ -->
{{if .ShowFeed}}
<div class="section">
  <h2>Governance Feed</h2>
  <table>
    <thead><tr><th>Date</th><th>Post</th></tr></thead>
    <tbody>
    {{range .FeedRows}}
    <tr>
      <td>{{.Published}}</td>
      <td><a href="{{.Link}}">{{.Title}}</a></td>
    </tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  <p><strong>Disclaimer:</strong> Simulation output for research purposes only. It does not constitute
  financial advice. Historical and projected rates do not bound future borrow rates, and a real
  position would be liquidated at the first breach rather than simulated through it.</p>
  <p>Generated {{.GeneratedAt}}</p>
</div>

</body>
</html>`
