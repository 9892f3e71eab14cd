package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/ledger"
	"github.com/Tiliavir/punch/internal/model"
	"github.com/Tiliavir/punch/internal/timecalc"
)

var (
	listWeek bool
	listAll  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List punch records (today by default)",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's records")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Show the whole ledger")
}

func runList(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.Close()

	now := time.Now().In(a.ledger.Location())
	printList(cmd.OutOrStdout(), selectRecords(a.ledger.Records(), now, listWeek, listAll))
	return nil
}

// selectRecords narrows records to the day of now, its week, or nothing
// when all is set.
func selectRecords(records []model.PunchRecord, now time.Time, week, all bool) []model.PunchRecord {
	switch {
	case all:
		return records
	case week:
		from, to := timecalc.WeekRange(now)
		return ledger.InRange(records, from, to)
	default:
		day := timecalc.StartOfDay(now)
		return ledger.InRange(records, day, day)
	}
}

// printList prints records as an aligned table, most recent first.
func printList(w io.Writer, records []model.PunchRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	fmt.Fprintf(w, "%-12s%-8s%-8s%-8s%-8s%s\n", "Date", "In", "Out", "Break", "Total", "Bank")
	for _, r := range records {
		fmt.Fprintf(w, "%-12s%-8s%-8s%-8s%-8s%s\n", r.Date, r.ClockIn, r.ClockOut, r.Break, r.Total, r.Bank)
	}
}
