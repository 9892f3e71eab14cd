package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/ledger"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show worked time and banked hours per ISO week",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.Close()

	records := a.ledger.Records()
	weeks := ledger.WeeklySummaries(records, a.ledger.Location())
	overall := ledger.Summarize(records)

	if err := printReport(cmd.OutOrStdout(), reportFormat, weeks, overall); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

func printReport(w io.Writer, format string, weeks []ledger.WeekSummary, overall ledger.Summary) error {
	switch format {
	case "csv":
		fmt.Fprintln(w, "week,days,worked_minutes,expected_minutes,balance_minutes")
		for _, wk := range weeks {
			fmt.Fprintf(w, "%s,%d,%d,%d,%d\n", wk.Week, wk.Days, wk.WorkedMinutes, wk.ExpectedMinutes, wk.BalanceMinutes)
		}
	case "json":
		data, err := json.MarshalIndent(struct {
			Weeks   []ledger.WeekSummary `json:"weeks"`
			Overall ledger.Summary       `json:"overall"`
			Bank    string               `json:"bancoHoras"`
		}{weeks, overall, timecalc.FormatBankMinutes(overall.BalanceMinutes)}, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	default: // md
		fmt.Fprintln(w, "Week        Days  Worked    Balance")
		fmt.Fprintln(w, "------------------------------------")
		for _, wk := range weeks {
			fmt.Fprintf(w, "%-12s%-6d%-10s%s\n", wk.Week, wk.Days,
				timecalc.FormatMinutes(wk.WorkedMinutes), timecalc.FormatBankMinutes(wk.BalanceMinutes))
		}
		fmt.Fprintln(w, "------------------------------------")
		fmt.Fprintf(w, "%-12s%-6d%-10s%s\n", "Total", overall.Days,
			timecalc.FormatMinutes(overall.WorkedMinutes), timecalc.FormatBankMinutes(overall.BalanceMinutes))
	}
	return nil
}
