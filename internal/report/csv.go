package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/swap"
)

// ════════════════════════════════════════════════════════════════════
// CSV Ledger Export
// ════════════════════════════════════════════════════════════════════

// ledgerHeader is the CSV column order, matching the ledger row fields.
var ledgerHeader = []string{
	"day",
	"floating_annual",
	"floating_daily",
	"fixed_daily",
	"floating_interest",
	"fixed_payment",
	"net_cashflow",
	"cumulative_net",
	"outstanding_debt",
	"liquidation_threshold",
	"loan_to_value",
	"breached",
}

// WriteLedgerCSV writes the per-day simulation ledger to w as CSV with
// a header row. The undefined-LTV sentinel becomes an empty cell.
func WriteLedgerCSV(w io.Writer, days []swap.SimulationDay) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, d := range days {
		row := []string{
			strconv.Itoa(d.Day),
			formatFloat(d.FloatingAnnual),
			formatFloat(d.FloatingDaily),
			formatFloat(d.FixedDaily),
			formatFloat(d.FloatingInterest),
			formatFloat(d.FixedPayment),
			formatFloat(d.NetCashflow),
			formatFloat(d.CumulativeNet),
			formatFloat(d.OutstandingDebt),
			formatFloat(d.LiquidationThreshold),
			formatLTVCell(d.LoanToValue),
			strconv.FormatBool(d.Breached),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %d: %w", d.Day, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LedgerCSV renders the ledger as a CSV string.
func LedgerCSV(days []swap.SimulationDay) (string, error) {
	var sb strings.Builder
	if err := WriteLedgerCSV(&sb, days); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// SaveLedgerCSV writes the ledger to a file, creating or truncating it.
func SaveLedgerCSV(path string, days []swap.SimulationDay) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteLedgerCSV(f, days); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatFloat renders the shortest decimal that round-trips, without
// exponent notation, so spreadsheets read the values as numbers.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatLTVCell(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return ""
	}
	return formatFloat(v)
}
