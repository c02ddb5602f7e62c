package dataprocessing

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "rtupulse/internal/errors"
	"rtupulse/pkg/contracts/domain"
)

// timestampLayouts are tried in order for text timestamp cells. Serial
// date cells are handled separately via excelize.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"01-02-06 3:04 PM",
	"2006-01-02T15:04:05",
}

// parseTimestamp converts a cell to a time. Trend exports produce either
// Excel serial numbers or one of a handful of text formats depending on
// the controller firmware.
func parseTimestamp(cell string) (time.Time, error) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return time.Time{}, apperrors.NewParsingError("empty timestamp cell", nil)
	}

	if serial, err := strconv.ParseFloat(trimmed, 64); err == nil {
		ts, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, apperrors.NewParsingError("invalid excel serial date", err).
				WithContext("cell", cell)
		}
		return ts, nil
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, apperrors.NewParsingError("unrecognized timestamp format", nil).
		WithContext("cell", cell)
}

// parseNumeric converts a cell to a float, tolerating thousands separators.
// The second return is false for empty or non-numeric cells.
func parseNumeric(cell string) (float64, bool) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// findColumn returns the index of the first column whose header contains
// the key, case-insensitively, or -1. Header matching is deliberately
// loose: exports disagree about capitalization and unit suffixes.
func findColumn(columns []string, key string) int {
	keyLower := strings.ToLower(key)
	for i, col := range columns {
		if strings.Contains(strings.ToLower(col), keyLower) {
			return i
		}
	}
	return -1
}

// Loader reads classified sheets into memory.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a sheet loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadSheets reads every referenced sheet, opening each source workbook
// once. Unreadable sheets are skipped with a warning; the caller's
// sheet-count invariant catches the shortfall.
func (l *Loader) LoadSheets(ctx context.Context, refs []domain.SheetRef) []domain.RawSheet {
	books := make(map[string]*excelize.File)
	defer func() {
		for _, f := range books {
			f.Close()
		}
	}()

	var sheets []domain.RawSheet
	for _, ref := range refs {
		f, ok := books[ref.File.Path]
		if !ok {
			opened, err := excelize.OpenFile(ref.File.Path)
			if err != nil {
				l.logger.WarnContext(ctx, "skipping unreadable workbook",
					slog.String("file", ref.File.Name),
					slog.String("error", err.Error()))
				continue
			}
			books[ref.File.Path] = opened
			f = opened
		}

		sheet, err := loadSheet(f, ref.Sheet)
		if err != nil {
			l.logger.WarnContext(ctx, "skipping unreadable sheet",
				slog.String("file", ref.File.Name),
				slog.String("sheet", ref.Sheet),
				slog.String("error", err.Error()))
			continue
		}
		sheets = append(sheets, sheet)
	}

	return sheets
}

// loadSheet reads one sheet into a RawSheet, padding ragged rows to the
// header width.
func loadSheet(f *excelize.File, name string) (domain.RawSheet, error) {
	rows, err := f.GetRows(name)
	if err != nil {
		return domain.RawSheet{}, apperrors.NewStorageError("failed to read sheet", err).
			WithContext("sheet", name)
	}
	if len(rows) == 0 {
		return domain.RawSheet{}, apperrors.NewValidationError("sheet has no header row", nil).
			WithContext("sheet", name)
	}

	columns := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, row)
			row = padded
		}
		data = append(data, row[:len(columns)])
	}

	return domain.RawSheet{Name: name, Columns: columns, Rows: data}, nil
}
