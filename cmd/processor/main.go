package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"rtupulse/internal/classifier"
	"rtupulse/internal/combiner"
	"rtupulse/internal/config"
	"rtupulse/internal/dataprocessing"
	"rtupulse/internal/exporter"
	"rtupulse/internal/flowref"
	"rtupulse/internal/infrastructure"
	"rtupulse/pkg/contracts"
	"rtupulse/pkg/contracts/domain"
)

func main() {
	inDir := flag.String("in", "", "input directory with trend-export workbooks (defaults to data/input relative to executable, prompts when stdin is a terminal)")
	outDir := flag.String("out", "", "output directory (defaults to data/output relative to executable)")
	flowRefPath := flag.String("flowref", "", "optional nominal-flow reference table (.csv or .xlsx)")
	percentile := flag.Bool("percentile", false, "restrict KPI sums to extreme-load percentile bands")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.DefaultConfig()
		cfg.Logging.FilePath = paths.GetLogPath("process.log")
	}
	if *percentile {
		cfg.Processing.UsePercentileBand = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	stdin := bufio.NewReader(os.Stdin)
	if *inDir == "" {
		*inDir = promptPath(stdin, "Source folder", paths.InputDir)
	}
	if *flowRefPath == "" && cfg.Processing.UsePercentileBand {
		*flowRefPath = promptPath(stdin, "Flow reference table (blank for default flow)", "")
	}

	paths.SetInputDir(*inDir)
	if *outDir != "" {
		paths.SetOutputDir(*outDir)
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := infrastructure.ContextWithTraceID(context.Background())

	logger.InfoContext(ctx, "Starting RTU telemetry processing",
		slog.String("input_dir", paths.InputDir),
		slog.String("output_dir", paths.OutputDir),
		slog.Bool("percentile_band", cfg.Processing.UsePercentileBand),
		slog.String("version", contracts.Version))

	flows := flowref.Default(cfg.Processing.DefaultNominalFlow)
	if *flowRefPath != "" {
		loaded, err := flowref.Load(*flowRefPath, cfg.Processing.DefaultNominalFlow, logger)
		if err != nil {
			logger.Warn("Failed to load flow reference table, using default flow",
				slog.String("path", *flowRefPath),
				slog.String("error", err.Error()))
		} else {
			flows = loaded
		}
	}

	// Classify sheets across the corpus
	cls := classifier.New(logger)
	grouping, err := cls.Classify(ctx, paths.InputDir)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to scan input directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Found %d units across %d sites\n", len(grouping.Units), len(grouping.Sites()))

	// Write combined workbooks per unit (plus outside-air-only sites)
	comb := combiner.New(logger, paths.CombinedDir)
	if _, err := comb.CombineAll(ctx, grouping); err != nil {
		logger.ErrorContext(ctx, "Failed to write combined workbooks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Merge, derive, and aggregate each unit independently
	processor := dataprocessing.NewUnitProcessor(logger, cfg.Processing, flows,
		exporter.NewCleanWriter(logger, paths.CleanDir))

	keys := make([]domain.UnitKey, 0, len(grouping.Units))
	for key := range grouping.Units {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Site != keys[j].Site {
			return keys[i].Site < keys[j].Site
		}
		return keys[i].Unit < keys[j].Unit
	})

	var results []domain.UnitKPI
	for i, key := range keys {
		fmt.Printf("Processing unit %d of %d: %s\n", i+1, len(keys), key)

		kpi, err := processor.ProcessUnit(ctx, key, grouping.Units[key])
		if err != nil {
			logger.ErrorContext(ctx, "Skipping unit",
				slog.String("unit", key.String()),
				slog.String("error", err.Error()))
			continue
		}
		results = append(results, kpi)
	}

	// Consolidated results table
	writer := exporter.NewResultsWriter(logger)
	if err := writer.WriteCSV(paths.ResultsCSV, results); err != nil {
		logger.ErrorContext(ctx, "Failed to write results CSV", slog.String("error", err.Error()))
	}
	if err := writer.WriteWorkbook(paths.ResultsXLSX, results); err != nil {
		logger.ErrorContext(ctx, "Failed to write results workbook", slog.String("error", err.Error()))
	}

	logger.InfoContext(ctx, "Processing complete",
		slog.Int("units_processed", len(results)),
		slog.Int("units_skipped", len(keys)-len(results)))

	fmt.Printf("Processing complete: %d of %d units\n", len(results), len(keys))
}

// promptPath asks for a path on stdin, returning the fallback when the
// user enters nothing or stdin is not a terminal.
func promptPath(reader *bufio.Reader, label, fallback string) string {
	if info, err := os.Stdin.Stat(); err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return fallback
	}

	if fallback != "" {
		fmt.Printf("%s [%s]: ", label, fallback)
	} else {
		fmt.Printf("%s: ", label)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return fallback
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}
