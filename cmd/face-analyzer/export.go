package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/face-analyzer/pkg/store"
)

var (
	exportCSV    string
	exportFilter store.QueryFilter
	exportSince  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to CSV",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "destination CSV file (required)")
	exportCmd.Flags().StringVar(&exportFilter.Gender, "gender", "", "only records with this gender")
	exportCmd.Flags().StringVar(&exportFilter.Emotion, "emotion", "", "only records with this emotion")
	exportCmd.Flags().IntVar(&exportFilter.MinAge, "min-age", 0, "minimum age, inclusive (0 disables)")
	exportCmd.Flags().IntVar(&exportFilter.MaxAge, "max-age", 0, "maximum age, inclusive (0 disables)")
	exportCmd.Flags().IntVar(&exportFilter.Limit, "limit", 0, "export at most this many of the newest records (0 exports all)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only records at or after this time (RFC 3339 or YYYY-MM-DD)")
	_ = exportCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(exportCmd)
}

// parseSince accepts an RFC 3339 timestamp or a bare date
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: use RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	since, err := parseSince(exportSince)
	if err != nil {
		return err
	}
	filter := exportFilter
	filter.Since = since

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.Query(cmd.Context(), filter)
	if err != nil {
		return err
	}
	slices.Reverse(records)

	if err := store.WriteCSVFile(exportCSV, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), exportCSV)
	return nil
}
