package dataprocessing

import (
	"sort"
	"strings"
	"time"

	apperrors "rtupulse/internal/errors"
	"rtupulse/pkg/contracts/domain"
)

// Required channel headers, matched loosely against merged column names.
const (
	outsideAirColumn = "outside air"
	zoneTempColumn   = "zone temp"
	supplyTempColumn = "supply temp"
	energyColumn     = "kwh"
)

// dropColumnKeys is the deny-list of channels known to be irrelevant to
// the derived formulas. Matched loosely, dropped if present.
var dropColumnKeys = []string{
	"power",
	"voltage",
	"setpoint",
	"description",
	"notes",
}

// timeSeries is one sheet reduced to a parsed timeline plus named cells.
type timeSeries struct {
	columns []string
	rows    []seriesRow
}

type seriesRow struct {
	ts    time.Time
	cells map[string]string
}

// newTimeSeries parses a raw sheet's timestamp column and keeps the other
// columns as string cells. Rows with unparseable timestamps are dropped;
// the skipped count is reported so callers can log it.
func newTimeSeries(sheet domain.RawSheet) (*timeSeries, int, error) {
	tsIdx := findColumn(sheet.Columns, "timestamp")
	if tsIdx < 0 {
		tsIdx = findColumn(sheet.Columns, "date/time")
	}
	if tsIdx < 0 {
		return nil, 0, apperrors.NewValidationError("sheet has no timestamp column", nil).
			WithContext("sheet", sheet.Name).
			WithContext("columns", strings.Join(sheet.Columns, ", "))
	}

	columns := make([]string, 0, len(sheet.Columns)-1)
	for i, col := range sheet.Columns {
		if i != tsIdx {
			columns = append(columns, col)
		}
	}

	series := &timeSeries{columns: columns}
	skipped := 0
	for _, row := range sheet.Rows {
		ts, err := parseTimestamp(row[tsIdx])
		if err != nil {
			skipped++
			continue
		}
		cells := make(map[string]string, len(columns))
		for i, col := range sheet.Columns {
			if i != tsIdx {
				cells[col] = row[i]
			}
		}
		series.rows = append(series.rows, seriesRow{ts: ts, cells: cells})
	}

	return series, skipped, nil
}

// sortedByTime returns the rows ordered by timestamp, for binary search.
func (s *timeSeries) sortedByTime() []seriesRow {
	rows := make([]seriesRow, len(s.rows))
	copy(rows, s.rows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].ts.Before(rows[j].ts) })
	return rows
}

// nearestWithin finds the row closest to ts among the time-sorted rows,
// if it lies within the tolerance. Equidistant neighbors resolve to the
// later row.
func nearestWithin(rows []seriesRow, ts time.Time, tol time.Duration) (seriesRow, bool) {
	if len(rows) == 0 {
		return seriesRow{}, false
	}

	i := sort.Search(len(rows), func(i int) bool { return !rows[i].ts.Before(ts) })

	best := -1
	var bestDiff time.Duration
	for _, cand := range []int{i, i - 1} {
		if cand < 0 || cand >= len(rows) {
			continue
		}
		diff := rows[cand].ts.Sub(ts)
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best = cand
			bestDiff = diff
		}
	}

	if best == -1 || bestDiff > tol {
		return seriesRow{}, false
	}
	return rows[best], true
}

// mergeNearest left-joins right onto left's timeline with nearest-neighbor
// matching inside the tolerance. Colliding column names are disambiguated:
// when leftSuffix is non-empty both sides are renamed, otherwise only the
// incoming side gets rightSuffix (the third merge keeps established names).
func mergeNearest(left, right *timeSeries, tol time.Duration, leftSuffix, rightSuffix string) *timeSeries {
	collisions := make(map[string]bool)
	leftSet := make(map[string]bool, len(left.columns))
	for _, col := range left.columns {
		leftSet[col] = true
	}
	for _, col := range right.columns {
		if leftSet[col] {
			collisions[col] = true
		}
	}

	renameLeft := func(col string) string {
		if collisions[col] && leftSuffix != "" {
			return col + leftSuffix
		}
		return col
	}
	renameRight := func(col string) string {
		if collisions[col] {
			return col + rightSuffix
		}
		return col
	}

	merged := &timeSeries{}
	for _, col := range left.columns {
		merged.columns = append(merged.columns, renameLeft(col))
	}
	for _, col := range right.columns {
		merged.columns = append(merged.columns, renameRight(col))
	}

	sortedRight := right.sortedByTime()

	for _, lrow := range left.rows {
		cells := make(map[string]string, len(merged.columns))
		for col, v := range lrow.cells {
			cells[renameLeft(col)] = v
		}

		match, ok := nearestWithin(sortedRight, lrow.ts, tol)
		for _, col := range right.columns {
			if ok {
				cells[renameRight(col)] = match.cells[col]
			} else {
				cells[renameRight(col)] = ""
			}
		}

		merged.rows = append(merged.rows, seriesRow{ts: lrow.ts, cells: cells})
	}

	return merged
}

// dropDenied removes deny-listed columns if present.
func (s *timeSeries) dropDenied() {
	kept := s.columns[:0]
	for _, col := range s.columns {
		lower := strings.ToLower(col)
		denied := false
		for _, key := range dropColumnKeys {
			if strings.Contains(lower, key) {
				denied = true
				break
			}
		}
		if !denied {
			kept = append(kept, col)
		} else {
			for i := range s.rows {
				delete(s.rows[i].cells, col)
			}
		}
	}
	s.columns = kept
}

// Merge aligns a unit's three role-ordered sheets (flow, zone, energy) on
// the flow sheet's timeline and produces the merged table downstream
// formulas consume. Sheet count other than three is a structural mismatch
// and rejects the whole unit.
func Merge(key domain.UnitKey, sheets []domain.RawSheet, tolerance time.Duration) (*domain.MergedTable, error) {
	if len(sheets) != 3 {
		return nil, apperrors.NewStructureError("unit requires exactly three telemetry sheets", nil).
			WithContext("unit", key.String()).
			WithContext("sheets", len(sheets))
	}

	flow, _, err := newTimeSeries(sheets[0])
	if err != nil {
		return nil, err
	}
	zone, _, err := newTimeSeries(sheets[1])
	if err != nil {
		return nil, err
	}
	energy, _, err := newTimeSeries(sheets[2])
	if err != nil {
		return nil, err
	}

	merged := mergeNearest(flow, zone, tolerance,
		"_"+domain.RoleFlow.String(), "_"+domain.RoleZone.String())
	merged = mergeNearest(merged, energy, tolerance,
		"", "_"+domain.RoleEnergy.String())

	merged.dropDenied()

	required := map[string]int{
		outsideAirColumn: findColumn(merged.columns, outsideAirColumn),
		zoneTempColumn:   findColumn(merged.columns, zoneTempColumn),
		supplyTempColumn: findColumn(merged.columns, supplyTempColumn),
		energyColumn:     findColumn(merged.columns, energyColumn),
	}
	for name, idx := range required {
		if idx < 0 {
			return nil, apperrors.NewValidationError("merged table is missing a required column", nil).
				WithContext("unit", key.String()).
				WithContext("column", name)
		}
	}

	requiredNames := map[string]bool{
		merged.columns[required[outsideAirColumn]]: true,
		merged.columns[required[zoneTempColumn]]:   true,
		merged.columns[required[supplyTempColumn]]: true,
		merged.columns[required[energyColumn]]:     true,
	}
	var extraColumns []string
	for _, col := range merged.columns {
		if !requiredNames[col] {
			extraColumns = append(extraColumns, col)
		}
	}

	table := &domain.MergedTable{Key: key, ExtraColumns: extraColumns}
	for _, row := range merged.rows {
		oat, okOAT := parseNumeric(row.cells[merged.columns[required[outsideAirColumn]]])
		zoneTemp, okZone := parseNumeric(row.cells[merged.columns[required[zoneTempColumn]]])
		supply, okSupply := parseNumeric(row.cells[merged.columns[required[supplyTempColumn]]])
		kwh, okEnergy := parseNumeric(row.cells[merged.columns[required[energyColumn]]])

		// Completeness invariant: every downstream formula needs all four.
		if !okOAT || !okZone || !okSupply || !okEnergy {
			continue
		}

		extras := make(map[string]string, len(extraColumns))
		for _, col := range extraColumns {
			extras[col] = row.cells[col]
		}

		table.Rows = append(table.Rows, domain.MergedRow{
			Timestamp:      row.ts,
			OutsideAirTemp: oat,
			ZoneTemp:       zoneTemp,
			SupplyTemp:     supply,
			EnergyKWh:      kwh,
			Extras:         extras,
		})
	}

	return table, nil
}
