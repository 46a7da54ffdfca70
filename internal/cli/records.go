package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/cub-fuel-log/internal/csvio"
	"github.com/nhle/cub-fuel-log/internal/derive"
	"github.com/nhle/cub-fuel-log/internal/logbook"
	"github.com/nhle/cub-fuel-log/internal/model"
)

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(listCmd)

	addCmd.Flags().StringP("date", "d", "", "Refuelling date, YYYY-MM-DD (default today)")
	addCmd.Flags().StringP("odometer", "o", "", "Odometer reading in km")
	addCmd.Flags().StringP("fuel", "f", "", "Fuel added in liters")
	addCmd.Flags().StringP("memo", "m", "", "Free-text memo")
	addCmd.MarkFlagRequired("odometer")

	summaryCmd.Flags().String("month", "", "Month to summarise, YYYY-MM (default current month)")

	listCmd.Flags().String("from", "", "First date to include, YYYY-MM-DD")
	listCmd.Flags().String("to", "", "Last date to include, YYYY-MM-DD")
}

// ─── add ────────────────────────────────────────────────────────────────────

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a refuelling",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	in := logbook.RecordInput{}
	in.Date, _ = cmd.Flags().GetString("date")
	in.Odometer, _ = cmd.Flags().GetString("odometer")
	in.Fuel, _ = cmd.Flags().GetString("fuel")
	in.Memo, _ = cmd.Flags().GetString("memo")
	if in.Date == "" {
		in.Date = time.Now().Format(model.DateLayout)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, st, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	preview, hasPreview := svc.Preview(in, 0)
	out, err := svc.AddRecord(cmd.Context(), in)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, out.Message)
	if hasPreview {
		fmt.Fprintf(w, "  +%.1f km, %.2f L, %.2f km/L\n", preview.Distance, preview.Fuel, preview.Efficiency)
	}
	return nil
}

// ─── import ─────────────────────────────────────────────────────────────────

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import records from a CSV file",
	Long: `Import records from a CSV file with a header row. Columns are matched
by header name, so files exported by cub and most spreadsheets work as-is.
Rows whose date and odometer already exist are skipped. Use - for stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, st, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := svc.ImportCSV(cmd.Context(), r)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message())
	return nil
}

// ─── export ─────────────────────────────────────────────────────────────────

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export the log as CSV",
	Long:  `Export every record with derived distance and efficiency. FILE defaults to ` + csvio.FileName + `; use - for stdout.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	path := csvio.FileName
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, st, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if path == "-" {
		_, err := svc.ExportAll(cmd.OutOrStdout())
		return err
	}
	if len(svc.View()) == 0 {
		return model.ErrNoRecords
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := svc.ExportAll(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s.\n", n, path)
	return nil
}

// ─── summary ────────────────────────────────────────────────────────────────

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the monthly summary",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	month, _ := cmd.Flags().GetString("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, st, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	printSummary(cmd.OutOrStdout(), svc.Summary(month))
	return nil
}

func printSummary(w io.Writer, s derive.Summary) {
	fmt.Fprintf(w, "%s\n", s.Month)
	fmt.Fprintf(w, "  Records         %d\n", s.Records)
	fmt.Fprintf(w, "  Distance        %.1f km\n", s.TotalDistance)
	fmt.Fprintf(w, "  Fuel            %.2f L\n", s.TotalFuel)
	if s.HasAverage {
		fmt.Fprintf(w, "  Avg efficiency  %.2f km/L\n", s.AverageEfficiency)
	} else {
		fmt.Fprintln(w, "  Avg efficiency  -")
	}
}

// ─── list ───────────────────────────────────────────────────────────────────

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records with derived values",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, st, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := svc.Between(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	printRecords(cmd.OutOrStdout(), records)
	return nil
}

func printRecords(w io.Writer, records []model.EnrichedRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}
	fmt.Fprintf(w, "%-6s %-10s %10s %10s %8s %10s  %s\n", "ID", "DATE", "ODOMETER", "DISTANCE", "FUEL", "KM/L", "MEMO")
	for _, r := range records {
		dist, eff := "(first)", "-"
		if !r.IsFirst {
			dist = fmt.Sprintf("%.1f", r.Distance)
		}
		if r.Efficiency > 0 {
			eff = fmt.Sprintf("%.2f", r.Efficiency)
		}
		fmt.Fprintf(w, "%-6d %-10s %10.0f %10s %8.2f %10s  %s\n", r.ID, r.Date, r.Odometer, dist, r.Fuel, eff, r.Memo)
	}
}
