package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"rtupulse/internal/config"
	"rtupulse/internal/exporter"
	"rtupulse/internal/flowref"
	"rtupulse/pkg/contracts/domain"
)

// UnitProcessor runs the merge-and-derive pipeline for one unit at a time.
// Units are independent; a failure is reported to the caller and never
// affects other units.
type UnitProcessor struct {
	logger *slog.Logger
	loader *Loader
	clean  *exporter.CleanWriter
	flows  *flowref.Table
	cfg    config.ProcessingConfig
}

// NewUnitProcessor creates a processor. flows may be the Default table
// when no reference file is configured.
func NewUnitProcessor(logger *slog.Logger, cfg config.ProcessingConfig, flows *flowref.Table, clean *exporter.CleanWriter) *UnitProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnitProcessor{
		logger: logger,
		loader: NewLoader(logger),
		clean:  clean,
		flows:  flows,
		cfg:    cfg,
	}
}

// ProcessUnit loads the unit's classified sheets, merges them, derives the
// thermal columns, persists the clean workbook, and reduces to the unit's
// KPI row. The clean workbook is always written before the KPI is
// returned.
func (p *UnitProcessor) ProcessUnit(ctx context.Context, key domain.UnitKey, refs []domain.SheetRef) (domain.UnitKPI, error) {
	sheets := p.loader.LoadSheets(ctx, refs)

	tolerance := time.Duration(p.cfg.JoinToleranceSeconds) * time.Second
	table, err := Merge(key, sheets, tolerance)
	if err != nil {
		return domain.UnitKPI{}, err
	}

	flow, found := p.flows.Lookup(key)
	if !found {
		p.logger.WarnContext(ctx, "no reference flow for unit, using default",
			slog.String("unit", key.String()),
			slog.Float64("default_flow", flow))
	}

	derived := Derive(table, flow)

	p.logger.InfoContext(ctx, "derived metrics computed",
		slog.String("unit", key.String()),
		slog.Int("merged_rows", len(table.Rows)),
		slog.Int("pass_through_columns", len(table.ExtraColumns)))

	if _, err := p.clean.Write(key, table.ExtraColumns, derived); err != nil {
		return domain.UnitKPI{}, err
	}

	kpi := Aggregate(key, derived, flow, AggregateOptions{
		MaxIntervalSeconds: p.cfg.MaxIntervalSeconds,
		UsePercentileBand:  p.cfg.UsePercentileBand,
		PercentileBand:     p.cfg.PercentileBand,
	})

	p.logger.InfoContext(ctx, "unit processed",
		slog.String("unit", key.String()),
		slog.Float64("cooling_ratio", kpi.CoolingRatio),
		slog.Float64("heating_ratio", kpi.HeatingRatio))

	return kpi, nil
}
