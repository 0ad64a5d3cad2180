package loader

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "marketpulse/internal/errors"
)

// Convert writes the data sheet of an Excel workbook as a CSV file. The
// conversion is a one-shot format change: loading the written CSV yields a
// table structurally equal to the one loaded from the workbook, because both
// run through the same normalizer.
func (l *Loader) Convert(ctx context.Context, excelPath, csvPath string) error {
	header, rows, err := readExcel(excelPath)
	if err != nil {
		l.metrics.RecordConversion(ctx, false)
		return err
	}
	if len(rows) == 0 {
		l.metrics.RecordConversion(ctx, false)
		return apperrors.NewLoadError(excelPath, "no data rows after header", nil)
	}

	if err := writeCSVFile(csvPath, header, rows); err != nil {
		l.metrics.RecordConversion(ctx, false)
		return err
	}

	l.metrics.RecordConversion(ctx, true)
	l.logger.InfoContext(ctx, "converted workbook to csv",
		slog.String("source", excelPath),
		slog.String("target", csvPath),
		slog.Int("rows", len(rows)))

	return nil
}

// writeCSVFile writes header+rows through a temp file renamed into place,
// so a failed conversion never leaves a truncated CSV behind.
func writeCSVFile(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("create directory "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return apperrors.NewStorageError("create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("write header", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			tmp.Close()
			return apperrors.NewStorageError("write row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("flush csv", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("close temp file", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.NewStorageError("rename into place", err)
	}
	return nil
}
