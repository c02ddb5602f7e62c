package classifier

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"rtupulse/internal/config"
	apperrors "rtupulse/internal/errors"
	"rtupulse/internal/files"
	"rtupulse/pkg/contracts/domain"
)

var (
	// unitRe extracts the unit label from a sheet name, e.g.
	// "RTU 12 Data - extra text" -> "RTU 12".
	unitRe = regexp.MustCompile(`(?i)RTU ?\d+`)

	// outsideAirRe matches site-level outside-air sheets.
	outsideAirRe = regexp.MustCompile(`(?i)outside ?air|\bOAT\b`)
)

// Grouping is the classifier output: unit sheets keyed by (site, unit) and
// outside-air sheets keyed by site. Built once per run and passed to the
// combiner explicitly.
type Grouping struct {
	Units      map[domain.UnitKey][]domain.SheetRef
	OutsideAir map[string][]domain.SheetRef
}

// Sites returns every site seen in either grouping.
func (g *Grouping) Sites() []string {
	seen := make(map[string]bool)
	for key := range g.Units {
		seen[key.Site] = true
	}
	for site := range g.OutsideAir {
		seen[site] = true
	}
	sites := make([]string, 0, len(seen))
	for site := range seen {
		sites = append(sites, site)
	}
	return sites
}

// Classifier scans a folder of trend-export workbooks and groups sheets by
// site and unit. Classification is a pure function of file and sheet names,
// so rerunning it over the same folder yields the same grouping.
type Classifier struct {
	logger   *slog.Logger
	validate *validator.Validate
	marker   string
}

// New creates a classifier. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		logger:   logger,
		validate: validator.New(),
		marker:   config.SourceFileMarker,
	}
}

// ParseSourceName extracts site metadata from a trend-export filename.
// The convention is "<marker>-<SITE>_<period>.xlsx"; anything else yields
// a descriptive validation error instead of an index panic.
func (c *Classifier) ParseSourceName(path string) (domain.SourceFile, error) {
	name := filepath.Base(path)

	if !strings.Contains(name, c.marker) {
		return domain.SourceFile{}, apperrors.NewValidationError(
			"filename does not contain the trend-export marker", nil).
			WithContext("filename", name).
			WithContext("marker", c.marker)
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	dashParts := strings.Split(base, "-")
	if len(dashParts) < 2 {
		return domain.SourceFile{}, apperrors.NewValidationError(
			"filename has no site segment after '-'", nil).
			WithContext("filename", name)
	}

	site := strings.Split(dashParts[1], "_")[0]

	src := domain.SourceFile{
		Path: path,
		Name: name,
		Site: site,
	}
	if err := c.validate.Struct(src); err != nil {
		return domain.SourceFile{}, apperrors.NewValidationError(
			"site code is not alphanumeric", err).
			WithContext("filename", name).
			WithContext("site", site)
	}

	return src, nil
}

// ClassifySheet reports the unit label (if the sheet name matches the unit
// pattern) and whether the sheet is an outside-air sheet. A sheet may be
// both.
func ClassifySheet(sheetName string) (unit string, outsideAir bool) {
	if m := unitRe.FindString(sheetName); m != "" {
		unit = normalizeUnitLabel(m)
	}
	return unit, outsideAirRe.MatchString(sheetName)
}

// normalizeUnitLabel canonicalizes the matched label ("rtu12" -> "RTU 12")
// so the same unit exported with inconsistent spacing groups together.
func normalizeUnitLabel(label string) string {
	upper := strings.ToUpper(label)
	digits := strings.TrimSpace(strings.TrimPrefix(upper, "RTU"))
	return "RTU " + digits
}

// Classify scans every workbook in dir and builds the grouping. Files that
// cannot be parsed or opened are skipped with a warning; the batch never
// aborts on a single bad file.
func (c *Classifier) Classify(ctx context.Context, dir string) (*Grouping, error) {
	discovery := files.NewDiscovery(dir)
	workbooks, err := discovery.FindWorkbooks(".")
	if err != nil {
		return nil, apperrors.NewStorageError("failed to scan input directory", err).
			WithContext("dir", dir)
	}

	grouping := &Grouping{
		Units:      make(map[domain.UnitKey][]domain.SheetRef),
		OutsideAir: make(map[string][]domain.SheetRef),
	}

	for _, wb := range workbooks {
		src, err := c.ParseSourceName(wb.Path)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping file with unusable name",
				slog.String("filename", wb.Name),
				slog.String("error", err.Error()))
			continue
		}

		f, err := excelize.OpenFile(wb.Path)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping unreadable workbook",
				slog.String("filename", wb.Name),
				slog.String("error", err.Error()))
			continue
		}

		for _, sheetName := range f.GetSheetList() {
			ref := domain.SheetRef{File: src, Sheet: sheetName}
			unit, outsideAir := ClassifySheet(sheetName)

			if unit != "" {
				key := domain.UnitKey{Site: src.Site, Unit: unit}
				grouping.Units[key] = append(grouping.Units[key], ref)
			}
			if outsideAir {
				grouping.OutsideAir[src.Site] = append(grouping.OutsideAir[src.Site], ref)
			}
			if unit == "" && !outsideAir {
				c.logger.DebugContext(ctx, "sheet matches no pattern",
					slog.String("filename", wb.Name),
					slog.String("sheet", sheetName))
			}
		}

		if err := f.Close(); err != nil {
			c.logger.WarnContext(ctx, "failed to close workbook",
				slog.String("filename", wb.Name),
				slog.String("error", err.Error()))
		}
	}

	c.logger.InfoContext(ctx, "classification complete",
		slog.Int("workbooks", len(workbooks)),
		slog.Int("units", len(grouping.Units)),
		slog.Int("outside_air_sites", len(grouping.OutsideAir)))

	return grouping, nil
}
