package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	apperrors "rtupulse/internal/errors"
	"rtupulse/pkg/contracts/domain"
)

const resultsSheetName = "Efficiency"

// resultsHeader is the consolidated results schema: one row per
// successfully processed unit.
var resultsHeader = []string{"Site", "Unit", "CoolingRatio", "HeatingRatio", "NominalFlow"}

// ResultsWriter writes the consolidated efficiency table.
type ResultsWriter struct {
	logger *slog.Logger
	csv    *CSVWriter
}

// NewResultsWriter creates a results writer.
func NewResultsWriter(logger *slog.Logger) *ResultsWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsWriter{logger: logger, csv: NewCSVWriter()}
}

// sortKPIs orders results by site then unit so reruns produce identical
// files.
func sortKPIs(kpis []domain.UnitKPI) []domain.UnitKPI {
	sorted := make([]domain.UnitKPI, len(kpis))
	copy(sorted, kpis)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Site != sorted[j].Site {
			return sorted[i].Site < sorted[j].Site
		}
		return sorted[i].Unit < sorted[j].Unit
	})
	return sorted
}

// WriteCSV writes the results table as CSV with a UTF-8 BOM.
func (w *ResultsWriter) WriteCSV(path string, kpis []domain.UnitKPI) error {
	records := make([][]string, 0, len(kpis))
	for _, kpi := range sortKPIs(kpis) {
		records = append(records, []string{
			kpi.Site,
			kpi.Unit,
			formatFloat(kpi.CoolingRatio),
			formatFloat(kpi.HeatingRatio),
			formatFloat(kpi.NominalFlow),
		})
	}

	return w.csv.WriteCSV(path, WriteOptions{
		Headers:   resultsHeader,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteWorkbook writes the results table as a workbook.
func (w *ResultsWriter) WriteWorkbook(path string, kpis []domain.UnitKPI) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create results directory", err).
			WithContext("path", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheetName); err != nil {
		return apperrors.NewStorageError("failed to name results sheet", err)
	}

	header := toInterfaces(resultsHeader)
	if err := f.SetSheetRow(resultsSheetName, "A1", &header); err != nil {
		return apperrors.NewStorageError("failed to write results header", err)
	}

	for i, kpi := range sortKPIs(kpis) {
		record := []interface{}{kpi.Site, kpi.Unit, kpi.CoolingRatio, kpi.HeatingRatio, kpi.NominalFlow}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("failed to compute cell name", err)
		}
		if err := f.SetSheetRow(resultsSheetName, cell, &record); err != nil {
			return apperrors.NewStorageError("failed to write results row", err).
				WithContext("row", i+2)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save results workbook", err).
			WithContext("path", path)
	}

	w.logger.Info("wrote consolidated results",
		slog.String("path", path),
		slog.Int("units", len(kpis)))

	return nil
}

// formatFloat formats a float64 value for CSV output with exactly 3
// decimal places so ratios like 2.4 appear as 2.400 consistently.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.3f", f)
}
