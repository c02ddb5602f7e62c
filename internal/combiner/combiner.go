// Package combiner writes one workbook per (site, unit) containing the
// unit's classified sheets plus the site's outside-air sheets, and an
// outside-air-only workbook for sites with no classified units. These
// workbooks are disposable artifacts: each is fully written before the
// batch moves on.
package combiner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"rtupulse/internal/classifier"
	"rtupulse/internal/config"
	apperrors "rtupulse/internal/errors"
	"rtupulse/pkg/contracts/domain"
)

// Combiner writes combined workbooks into a target directory.
type Combiner struct {
	logger *slog.Logger
	dir    string
}

// New creates a combiner targeting dir.
func New(logger *slog.Logger, dir string) *Combiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Combiner{logger: logger, dir: dir}
}

// CombineAll writes one workbook per unit plus outside-air-only workbooks
// for sites without units. It returns the written paths keyed by unit.
// Per-unit failures are logged and skipped; only an unusable output
// directory is fatal.
func (c *Combiner) CombineAll(ctx context.Context, grouping *classifier.Grouping) (map[domain.UnitKey]string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create combined output directory", err).
			WithContext("dir", c.dir)
	}

	written := make(map[domain.UnitKey]string)

	for _, key := range sortedKeys(grouping.Units) {
		refs := append([]domain.SheetRef{}, grouping.Units[key]...)
		refs = append(refs, grouping.OutsideAir[key.Site]...)

		path := filepath.Join(c.dir, fmt.Sprintf("%s_%s.xlsx", key.Site, key.Unit))
		if err := c.writeWorkbook(ctx, path, refs); err != nil {
			c.logger.ErrorContext(ctx, "failed to write combined workbook",
				slog.String("unit", key.String()),
				slog.String("error", err.Error()))
			continue
		}
		written[key] = path
	}

	// Sites with outside-air sheets but no classified units still get an
	// outside-air workbook.
	unitSites := make(map[string]bool)
	for key := range grouping.Units {
		unitSites[key.Site] = true
	}
	var oaSites []string
	for site := range grouping.OutsideAir {
		if !unitSites[site] {
			oaSites = append(oaSites, site)
		}
	}
	sort.Strings(oaSites)

	for _, site := range oaSites {
		path := filepath.Join(c.dir, fmt.Sprintf("%s_outside_air.xlsx", site))
		if err := c.writeWorkbook(ctx, path, grouping.OutsideAir[site]); err != nil {
			c.logger.ErrorContext(ctx, "failed to write outside-air workbook",
				slog.String("site", site),
				slog.String("error", err.Error()))
		}
	}

	return written, nil
}

// sortedKeys orders unit keys by site then unit so reruns write files in
// a stable order.
func sortedKeys(units map[domain.UnitKey][]domain.SheetRef) []domain.UnitKey {
	keys := make([]domain.UnitKey, 0, len(units))
	for key := range units {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Site != keys[j].Site {
			return keys[i].Site < keys[j].Site
		}
		return keys[i].Unit < keys[j].Unit
	})
	return keys
}

// writeWorkbook copies every referenced sheet into a new workbook at path.
func (c *Combiner) writeWorkbook(ctx context.Context, path string, refs []domain.SheetRef) error {
	out := excelize.NewFile()
	defer out.Close()

	books := make(map[string]*excelize.File)
	defer func() {
		for _, f := range books {
			f.Close()
		}
	}()

	usedNames := make(map[string]bool)
	copied := 0

	for _, ref := range refs {
		src, ok := books[ref.File.Path]
		if !ok {
			opened, err := excelize.OpenFile(ref.File.Path)
			if err != nil {
				c.logger.WarnContext(ctx, "skipping unreadable source workbook",
					slog.String("file", ref.File.Name),
					slog.String("error", err.Error()))
				continue
			}
			books[ref.File.Path] = opened
			src = opened
		}

		rows, err := src.GetRows(ref.Sheet)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping unreadable sheet",
				slog.String("file", ref.File.Name),
				slog.String("sheet", ref.Sheet),
				slog.String("error", err.Error()))
			continue
		}

		name := uniqueSheetName(ref.Sheet, usedNames)
		if copied == 0 {
			if err := out.SetSheetName("Sheet1", name); err != nil {
				return apperrors.NewStorageError("failed to name sheet", err)
			}
		} else {
			if _, err := out.NewSheet(name); err != nil {
				return apperrors.NewStorageError("failed to add sheet", err)
			}
		}

		for i, row := range rows {
			record := make([]interface{}, len(row))
			for j, cell := range row {
				record[j] = cell
			}
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return apperrors.NewStorageError("failed to compute cell name", err)
			}
			if err := out.SetSheetRow(name, cell, &record); err != nil {
				return apperrors.NewStorageError("failed to copy sheet row", err).
					WithContext("sheet", name).
					WithContext("row", i+1)
			}
		}
		copied++
	}

	if copied == 0 {
		return apperrors.NewStructureError("no readable sheets to combine", nil).
			WithContext("path", path)
	}

	if err := out.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save combined workbook", err).
			WithContext("path", path)
	}

	c.logger.InfoContext(ctx, "wrote combined workbook",
		slog.String("path", path),
		slog.Int("sheets", copied))

	return nil
}

// uniqueSheetName truncates a sheet name to the xlsx 31-character limit
// and disambiguates truncation collisions with a ~N suffix, so two
// distinct long sheet names never silently overwrite each other.
func uniqueSheetName(name string, used map[string]bool) string {
	runes := []rune(name)
	base := name
	if len(runes) > config.SheetNameLimit {
		base = string(runes[:config.SheetNameLimit])
	}

	if !used[base] {
		used[base] = true
		return base
	}

	for i := 2; ; i++ {
		suffix := fmt.Sprintf("~%d", i)
		trimmed := []rune(base)
		if len(trimmed)+len(suffix) > config.SheetNameLimit {
			trimmed = trimmed[:config.SheetNameLimit-len(suffix)]
		}
		candidate := string(trimmed) + suffix
		if !used[candidate] {
			used[candidate] = true
			return candidate
		}
	}
}
