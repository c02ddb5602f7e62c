package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "rtupulse/internal/errors"
	"rtupulse/pkg/contracts/domain"
)

const (
	cleanSheetName  = "Clean Data"
	timestampFormat = "2006-01-02 15:04:05"
)

// cleanHeader lists the leading columns of the clean workbook; the unit's
// pass-through channels follow in their merged order.
var cleanHeader = []string{
	"Timestamp",
	"Outside Air Temp (°F)",
	"Zone Temp (°F)",
	"Supply Temp (°F)",
	"Energy (kWh)",
	"Interval (s)",
	"Supply Delta (°F)",
	"Return Temp (°F)",
	"Return Delta (°F)",
	"Mode",
	"Energy (Wh)",
	"Fresh Air Load (BTU)",
	"Return Air Load (BTU)",
	"Total Load (BTU)",
}

// CleanWriter persists one unit's enriched table to a workbook. This
// always happens before the unit's KPI is reported, so every summary row
// has a full audit trail on disk.
type CleanWriter struct {
	logger *slog.Logger
	dir    string
}

// NewCleanWriter creates a clean-workbook writer targeting dir.
func NewCleanWriter(logger *slog.Logger, dir string) *CleanWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanWriter{logger: logger, dir: dir}
}

// UnitFileName renders the per-unit output file name for a given suffix.
func UnitFileName(key domain.UnitKey, suffix string) string {
	return fmt.Sprintf("%s_%s%s.xlsx", key.Site, key.Unit, suffix)
}

// Write saves the derived rows plus pass-through channels and returns the
// written path.
func (w *CleanWriter) Write(key domain.UnitKey, extraColumns []string, rows []domain.DerivedRow) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", apperrors.NewStorageError("failed to create clean output directory", err).
			WithContext("dir", w.dir)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", cleanSheetName); err != nil {
		return "", apperrors.NewStorageError("failed to name clean sheet", err)
	}

	header := append(append([]interface{}{}, toInterfaces(cleanHeader)...), toInterfaces(extraColumns)...)
	if err := f.SetSheetRow(cleanSheetName, "A1", &header); err != nil {
		return "", apperrors.NewStorageError("failed to write clean header", err)
	}

	for i, row := range rows {
		record := []interface{}{
			row.Timestamp.Format(timestampFormat),
			row.OutsideAirTemp,
			row.ZoneTemp,
			row.SupplyTemp,
			row.EnergyKWh,
			row.IntervalSeconds,
			row.SupplyDelta,
			row.ReturnTemp,
			row.ReturnDelta,
			string(row.Mode),
			row.EnergyWh,
			row.FreshAirLoad,
			row.ReturnAirLoad,
			row.TotalLoad,
		}
		for _, col := range extraColumns {
			record = append(record, row.Extras[col])
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", apperrors.NewStorageError("failed to compute cell name", err)
		}
		if err := f.SetSheetRow(cleanSheetName, cell, &record); err != nil {
			return "", apperrors.NewStorageError("failed to write clean row", err).
				WithContext("row", i+2)
		}
	}

	path := filepath.Join(w.dir, UnitFileName(key, "_clean"))
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError("failed to save clean workbook", err).
			WithContext("path", path)
	}

	w.logger.Info("wrote clean workbook",
		slog.String("unit", key.String()),
		slog.String("path", path),
		slog.Int("rows", len(rows)))

	return path, nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
