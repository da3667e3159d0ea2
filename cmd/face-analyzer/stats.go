package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/menta2k/face-analyzer/pkg/stats"
	"github.com/menta2k/face-analyzer/pkg/store"
)

var (
	statsFilter stats.Filter
	statsLast   int
	statsJSON   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored analysis records",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFilter.Gender, "gender", "", "only records with this gender")
	statsCmd.Flags().StringVar(&statsFilter.Emotion, "emotion", "", "only records with this emotion")
	statsCmd.Flags().IntVar(&statsFilter.MinAge, "min-age", 0, "minimum age, inclusive (0 disables)")
	statsCmd.Flags().IntVar(&statsFilter.MaxAge, "max-age", 0, "maximum age, inclusive (0 disables)")
	statsCmd.Flags().IntVar(&statsLast, "last", stats.DefaultRecent, "number of recent records to list")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	all, err := db.Query(cmd.Context(), store.QueryFilter{})
	if err != nil {
		return err
	}
	// Query returns newest first; summaries and listings work oldest first.
	slices.Reverse(all)

	records := statsFilter.Apply(all)
	summary := stats.Summarize(records)

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	printSummary(out, summary)
	if statsLast > 0 && len(records) > 0 {
		fmt.Fprintf(out, "\nMost recent %d records:\n", min(statsLast, len(records)))
		printRecords(out, stats.Last(records, statsLast))
	}
	return nil
}

func printSummary(out io.Writer, s stats.Summary) {
	if s.Total == 0 {
		fmt.Fprintln(out, "No records.")
		return
	}

	fmt.Fprintf(out, "Records: %d\n", s.Total)
	if s.Age.Count > 0 {
		fmt.Fprintf(out, "Age: mean %.1f, min %d, max %d, std dev %.1f (%d estimates)\n",
			s.Age.Mean, s.Age.Min, s.Age.Max, s.Age.StdDev, s.Age.Count)
	} else {
		fmt.Fprintln(out, "Age: no estimates")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	section := func(title string, shares []stats.Share) {
		if len(shares) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s\tCOUNT\tPERCENT\n", title)
		for _, sh := range shares {
			fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", sh.Label, sh.Count, sh.Percent)
		}
	}
	section("GENDER", s.Gender)
	section("EMOTION", s.Emotion)
	section("HAIR", s.Hair)
	section("EYES", s.Eye)
	section("IDENTITY", s.Identity)
	w.Flush()
}

