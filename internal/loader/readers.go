package loader

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "marketpulse/internal/errors"
	"marketpulse/internal/schema"
)

// readTabular reads a source file into a header row and data rows. The
// format is picked by extension; both formats feed the same normalizer, so
// the representation a file arrives in never changes its semantics.
func readTabular(path string) ([]string, [][]string, error) {
	// Legacy OLE-format .xls workbooks are not readable and fall through to
	// the unsupported-extension error.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readExcel(path)
	default:
		return nil, nil, apperrors.NewLoadError(path, "unsupported file extension", nil)
	}
}

// readCSV reads a CSV file, tolerating a UTF-8 BOM and ragged rows.
func readCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewLoadError(path, "open file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // CMS files carry ragged note rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewLoadError(path, "read csv", err)
	}
	if len(records) == 0 {
		return nil, nil, apperrors.NewLoadError(path, "empty file", nil)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return header, records[1:], nil
}

// Sheet names the CMS workbooks use for the data tab, tried before scanning.
var preferredSheets = []string{"Data", "PUF", "Public Use File"}

// readExcel reads the data sheet of an Excel workbook. CMS workbooks lead
// with notes and methodology tabs, so the header row is located by content:
// preferred sheet names first, then every sheet scanned for a row carrying
// known column headers.
func readExcel(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, apperrors.NewLoadError(path, "open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	ordered := make([]string, 0, len(sheets))
	for _, name := range preferredSheets {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, name) {
				ordered = append(ordered, sheet)
			}
		}
	}
	for _, sheet := range sheets {
		seen := false
		for _, o := range ordered {
			if o == sheet {
				seen = true
				break
			}
		}
		if !seen {
			ordered = append(ordered, sheet)
		}
	}

	for _, sheet := range ordered {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}
		if idx := findHeaderRow(rows); idx >= 0 {
			return rows[idx], rows[idx+1:], nil
		}
	}

	return nil, nil, apperrors.NewLoadError(path, "no tabular data sheet found", nil)
}

// headerMarkers are folded header names whose presence identifies the
// header row of any of the three documented layouts.
var headerMarkers = map[string]bool{
	"state_abrvtn":       true,
	"state_abbreviation": true,
	"cnsmr":              true,
	"consumers":          true,
	"plan_slctns":        true,
	"plan_selections":    true,
	"county_fips_cd":     true,
	"county_fips_code":   true,
	"mtl_lvl":            true,
	"metal_level":        true,
}

// findHeaderRow scans the leading rows of a sheet for one that carries
// known column headers. Returns -1 when none qualifies.
func findHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > 20 {
		limit = 20
	}
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			if headerMarkers[schema.NormalizeHeader(cell)] {
				return i
			}
		}
	}
	return -1
}
