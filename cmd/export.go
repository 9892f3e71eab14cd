package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/punch/internal/model"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the whole ledger to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md, yaml")
}

func runExport(cmd *cobra.Command, args []string) error {
	a := mustOpenApp()
	defer a.Close()

	snap := model.Snapshot{Records: a.ledger.Records(), Bank: a.ledger.Bank()}
	if err := writeExport(cmd.OutOrStdout(), exportFormat, snap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

func writeExport(w io.Writer, format string, snap model.Snapshot) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("error encoding YAML: %w", err)
		}
		return enc.Close()
	case "md":
		printList(w, snap.Records)
		fmt.Fprintf(w, "Bank: %s\n", snap.Bank)
	default: // csv
		printCSV(w, snap.Records)
	}
	return nil
}

func printCSV(w io.Writer, records []model.PunchRecord) {
	fmt.Fprintln(w, "date,clock_in,clock_out,break,total,bank,clock_in_location,clock_out_location")
	for _, r := range records {
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s\n",
			csvEscape(r.Date),
			csvEscape(r.ClockIn),
			csvEscape(r.ClockOut),
			csvEscape(r.Break),
			csvEscape(r.Total),
			csvEscape(r.Bank),
			csvEscape(formatLocation(r.ClockInLocation)),
			csvEscape(formatLocation(r.ClockOutLocation)),
		)
	}
}

// formatLocation renders a location as "label (lat,lng)", omitting absent parts.
func formatLocation(loc *model.Location) string {
	if loc == nil {
		return ""
	}
	coords := ""
	if loc.Latitude != nil && loc.Longitude != nil {
		coords = "(" + strconv.FormatFloat(*loc.Latitude, 'f', -1, 64) + "," +
			strconv.FormatFloat(*loc.Longitude, 'f', -1, 64) + ")"
	}
	return strings.TrimSpace(loc.Label + " " + coords)
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
