package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/menta2k/face-analyzer/internal/utils"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// utf8BOM lets spreadsheet tools detect the encoding
const utf8BOM = "\ufeff"

// CSVHeader lists the exported columns in order
var CSVHeader = []string{
	"gender", "age", "hair_color", "eye_color", "emotion",
	"clothing_color", "hair_rgb", "eye_rgb", "clothing_rgb",
}

// ExportCSV writes the records as UTF-8 CSV with a byte order mark
func ExportCSV(w io.Writer, records []types.AttributeRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Gender,
			strconv.Itoa(r.Age),
			r.HairColor,
			r.EyeColor,
			r.Emotion,
			r.ClothingColor.String(),
			r.HairRGB.Triple(),
			r.EyeRGB.Triple(),
			r.ClothingColor.Triple(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile exports the records to path, creating parent directories
func WriteCSVFile(path string, records []types.AttributeRecord) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := ExportCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
