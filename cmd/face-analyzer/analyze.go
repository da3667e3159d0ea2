package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	faceanalyzer "github.com/menta2k/face-analyzer"
	"github.com/menta2k/face-analyzer/internal/utils"
	"github.com/menta2k/face-analyzer/pkg/store"
	"github.com/menta2k/face-analyzer/pkg/types"
)

var (
	analyzeOut    string
	analyzeFormat string
	analyzeJSON   bool
	analyzeSave   bool
	analyzeCSV    string
	analyzeJobs   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dir|url>...",
	Short: "Analyze faces in images, directories or URLs",
	Long: `Detects every face in the given images and reports emotion, gender, age,
hair color, eye color and clothing color per face. An annotated copy of each
image is written to the output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "output directory for annotated images (default from config)")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "annotated image format: jpg, png, webp (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print records as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist records to the database")
	analyzeCmd.Flags().StringVar(&analyzeCSV, "csv", "", "write all records to this CSV file")
	analyzeCmd.Flags().IntVarP(&analyzeJobs, "jobs", "j", 1, "number of images analyzed concurrently")
	rootCmd.AddCommand(analyzeCmd)
}

// expandSources replaces directories with the images they contain
func expandSources(args []string) ([]string, error) {
	var sources []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") || !utils.DirExists(arg) {
			sources = append(sources, arg)
			continue
		}
		files, err := utils.ListImageFiles(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", arg, err)
		}
		sources = append(sources, files...)
	}
	return sources, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	outDir := analyzeOut
	if outDir == "" {
		outDir = cfg.Output.OutputDir
	}
	format := analyzeFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	save := analyzeSave || cfg.Storage.AutoSave

	sources, err := expandSources(args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no images found")
	}

	comp, err := buildComponents(ctx, cfg, log, save)
	if err != nil {
		return err
	}
	defer comp.Close()

	fa := faceanalyzer.NewWithAnalyzer(comp.pipeline)
	fa.SetQuality(cfg.Output.Quality)

	var bar *progressbar.ProgressBar
	if len(sources) > 1 {
		bar = progressbar.NewOptions(len(sources),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, analyzeJobs))

	for _, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, out, err := fa.ProcessImageFile(gctx, src, outDir, format)
			if bar != nil {
				_ = bar.Add(1)
			}
			if err != nil {
				failed.Add(1)
				log.Error("failed to analyze image", "source", src, "error", err)
				return nil
			}
			log.Info("image analyzed", "source", src, "faces", result.Faces, "output", out)
			return nil
		})
	}
	_ = g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	records := fa.Records()
	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return err
		}
	} else {
		printRecords(cmd.OutOrStdout(), records)
	}

	if save && len(records) > 0 {
		if err := comp.db.InsertRecords(ctx, records); err != nil {
			return fmt.Errorf("failed to save records: %w", err)
		}
		log.Info("records saved", "count", len(records), "database", cfg.Storage.DatabasePath)
	}

	if analyzeCSV != "" {
		if err := store.WriteCSVFile(analyzeCSV, records); err != nil {
			return err
		}
		log.Info("records exported", "count", len(records), "path", analyzeCSV)
	}

	if n := int(failed.Load()); n == len(sources) {
		return fmt.Errorf("all %d images failed", n)
	}
	return ctx.Err()
}

func printRecords(out io.Writer, records []types.AttributeRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No faces detected.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tGENDER\tAGE\tEMOTION\tHAIR\tEYES\tCLOTHING\tIDENTITY")
	for i, r := range records {
		identity := r.Identity
		if identity == "" {
			identity = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, r.Gender, r.Age, r.Emotion, r.HairColor, r.EyeColor, r.ClothingColor, identity)
	}
	w.Flush()
}
