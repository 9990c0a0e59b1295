package export

import (
	"fmt"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/repository"
	"github.com/xuri/excelize/v2"
)

const sheetName = "reviews"

var headers = []string{"store_name", "store_address", "store_image", "source", "review", "first_seen", "last_seen"}

// WriteReviews writes one row per stored review to an xlsx file.
// Missing address or image cells are written as "-".
func WriteReviews(rows []repository.ExportRow, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.StoreName,
			orDash(row.Address),
			orDash(row.Img1),
			string(row.Source),
			row.Review,
			row.FirstSeen.UTC().Format(time.RFC3339),
			row.LastSeen.UTC().Format(time.RFC3339),
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save XLSX file: %w", err)
	}
	return nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
