package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/ledger"
	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's record and the bank of hours",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.Close()

	rec, ok := a.ledger.Today()
	printStatus(cmd.OutOrStdout(), rec, ok, ledger.Summarize(a.ledger.Records()), a.ledger.Bank())
	return nil
}

func printStatus(w io.Writer, rec model.PunchRecord, ok bool, s ledger.Summary, bank string) {
	if !ok {
		fmt.Fprintln(w, "No punches today.")
	} else {
		fmt.Fprintf(w, "Today (%s):\n", rec.Date)
		fmt.Fprintf(w, "  In:    %s\n", rec.ClockIn)
		fmt.Fprintf(w, "  Out:   %s\n", rec.ClockOut)
		fmt.Fprintf(w, "  Break: %s\n", rec.Break)
		fmt.Fprintf(w, "  Total: %s\n", rec.Total)
	}
	fmt.Fprintf(w, "Bank: %s (%d days, %s worked)\n", bank, s.Days, timecalc.FormatMinutes(s.WorkedMinutes))
}
