package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// WriteTableCSV exports a normalized table with one column per canonical
// field, numbers at full precision. Rounding is reserved for the formatted
// summary views.
func (w *CSVWriter) WriteTableCSV(table *domain.Table, filePath string) error {
	if table == nil {
		return apperrors.NewValidationError("no table to export")
	}

	fields := table.Fields()
	records := make([][]string, 0, table.Len())
	for row := 0; row < table.Len(); row++ {
		record := make([]string, len(fields))
		for i, field := range fields {
			if table.IsNumeric(field) {
				record[i] = formatFloat(table.NumberAt(field, row))
			} else {
				record[i] = table.StringAt(field, row)
			}
		}
		records = append(records, record)
	}

	return w.WriteSimpleCSV(filePath, fields, records)
}

// WriteSeriesCSV exports a grouped series as key, value, share rows with a
// unit-formatted display column.
func (w *CSVWriter) WriteSeriesCSV(series domain.GroupedSeries, filePath string) error {
	records := make([][]string, 0, len(series.Points))
	for _, p := range series.Points {
		records = append(records, []string{
			p.Key,
			formatFloat(p.Value),
			formatFloat(p.Share),
			FormatValue(p.Value, series.Unit),
		})
	}
	return w.WriteSimpleCSV(filePath, []string{"key", "value", "share_pct", "formatted"}, records)
}

// WriteTrendCSV exports a trend as year, value, growth rows. Undefined
// growth cells are left empty rather than zero-filled.
func (w *CSVWriter) WriteTrendCSV(trend domain.Trend, filePath string) error {
	records := make([][]string, 0, len(trend.Points))
	for _, p := range trend.Points {
		growth := ""
		if p.GrowthDefined {
			growth = formatFloat(p.Growth)
		}
		records = append(records, []string{
			strconv.Itoa(p.Year),
			formatFloat(p.Value),
			growth,
		})
	}
	return w.WriteSimpleCSV(filePath, []string{"year", "value", "growth_pct"}, records)
}

// WriteReportJSON writes the assembled report as indented JSON through a
// temp file renamed into place.
func (w *CSVWriter) WriteReportJSON(report *domain.Report, filePath string) error {
	if report == nil {
		return apperrors.NewValidationError("no report to export")
	}

	fullPath := w.resolvePath(filePath)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("create directory "+dir, err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("marshal report", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fullPath)+".tmp-*")
	if err != nil {
		return apperrors.NewStorageError("create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("write report", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("close temp file", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return apperrors.NewStorageError("rename into place", err)
	}
	return nil
}
