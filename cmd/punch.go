package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/punch/internal/model"
)

var (
	punchLabel string
	punchLat   float64
	punchLng   float64
)

var inCmd = &cobra.Command{
	Use:     "in",
	Aliases: []string{"entrada"},
	Short:   "Record a clock-in for today",
	Args:    cobra.NoArgs,
	RunE:    runPunch(model.ClockIn),
}

var outCmd = &cobra.Command{
	Use:     "out",
	Aliases: []string{"saida"},
	Short:   "Record a clock-out for today",
	Args:    cobra.NoArgs,
	RunE:    runPunch(model.ClockOut),
}

func init() {
	for _, c := range []*cobra.Command{inCmd, outCmd} {
		c.Flags().StringVar(&punchLabel, "label", "", "Where the punch happened (e.g. Office, Home)")
		c.Flags().Float64Var(&punchLat, "lat", 0, "Latitude of the punch")
		c.Flags().Float64Var(&punchLng, "lng", 0, "Longitude of the punch")
	}
}

func runPunch(kind model.PunchKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var lat, lng *float64
		if cmd.Flags().Changed("lat") {
			lat = &punchLat
		}
		if cmd.Flags().Changed("lng") {
			lng = &punchLng
		}
		loc := buildLocation(punchLabel, lat, lng)

		a := mustOpenApp()
		defer a.Close()

		rec, err := a.ledger.RecordPunch(kind, loc)
		printPunch(cmd.OutOrStdout(), a.ledger.Status(), rec, a.ledger.Bank())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: punch not saved: %v\n", err)
			a.Close()
			os.Exit(2)
		}
		return nil
	}
}

// buildLocation returns nil when no location detail was given.
func buildLocation(label string, lat, lng *float64) *model.Location {
	if label == "" && lat == nil && lng == nil {
		return nil
	}
	return &model.Location{Label: label, Latitude: lat, Longitude: lng}
}

func printPunch(w io.Writer, status string, rec model.PunchRecord, bank string) {
	fmt.Fprintln(w, status)
	fmt.Fprintf(w, "%s  in %s  out %s  total %s\n", rec.Date, rec.ClockIn, rec.ClockOut, rec.Total)
	fmt.Fprintf(w, "Bank: %s\n", bank)
}
