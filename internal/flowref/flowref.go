// Package flowref loads the optional nominal-airflow reference table used
// by the load formulas. A missing file or missing row is never an error:
// lookups fall back to the configured default flow.
package flowref

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "rtupulse/internal/errors"
	"rtupulse/pkg/contracts/domain"
)

// Table maps (site, unit) to its rated airflow in CFM.
type Table struct {
	flows       map[domain.UnitKey]float64
	defaultFlow float64
}

// Default returns an empty table that always answers with the default.
// The base processing variant uses this (constant flow, no reference).
func Default(defaultFlow float64) *Table {
	return &Table{flows: map[domain.UnitKey]float64{}, defaultFlow: defaultFlow}
}

// Load reads a reference table from a CSV or XLSX file with Site, Unit and
// Nominal Flow columns. Rows with a blank site/unit or a non-numeric flow
// are skipped with a warning.
func Load(path string, defaultFlow float64, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xls":
		rows, err = readWorkbook(path)
	default:
		return nil, apperrors.NewValidationError("unsupported reference table format", nil).
			WithContext("path", path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewValidationError("reference table is empty", nil).
			WithContext("path", path)
	}

	header := rows[0]
	siteIdx := findColumn(header, "site")
	unitIdx := findColumn(header, "unit")
	flowIdx := findColumn(header, "flow")
	if siteIdx < 0 || unitIdx < 0 || flowIdx < 0 {
		return nil, apperrors.NewValidationError(
			"reference table needs Site, Unit and Nominal Flow columns", nil).
			WithContext("path", path).
			WithContext("header", strings.Join(header, ", "))
	}

	table := Default(defaultFlow)
	for i, row := range rows[1:] {
		if len(row) <= siteIdx || len(row) <= unitIdx || len(row) <= flowIdx {
			continue
		}
		site := strings.TrimSpace(row[siteIdx])
		unit := strings.TrimSpace(row[unitIdx])
		if site == "" || unit == "" {
			continue
		}
		flow, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(row[flowIdx]), ",", ""), 64)
		if err != nil || flow <= 0 {
			logger.Warn("skipping reference row with unusable flow",
				slog.Int("row", i+2),
				slog.String("site", site),
				slog.String("unit", unit))
			continue
		}
		table.flows[domain.UnitKey{Site: site, Unit: unit}] = flow
	}

	logger.Info("loaded nominal flow reference table",
		slog.String("path", path),
		slog.Int("units", len(table.flows)))

	return table, nil
}

// Lookup returns the nominal flow for a unit, falling back to the default
// when the unit has no reference row. The second return reports whether a
// reference row was found.
func (t *Table) Lookup(key domain.UnitKey) (float64, bool) {
	if flow, ok := t.flows[key]; ok {
		return flow, true
	}
	return t.defaultFlow, false
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open reference table", err).
			WithContext("path", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse reference CSV", err).
			WithContext("path", path)
	}
	return rows, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open reference workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewValidationError("reference workbook has no sheets", nil).
			WithContext("path", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read reference sheet", err).
			WithContext("path", path)
	}
	return rows, nil
}

// findColumn matches a header loosely, case-insensitively.
func findColumn(header []string, key string) int {
	for i, col := range header {
		if strings.Contains(strings.ToLower(col), key) {
			return i
		}
	}
	return -1
}
