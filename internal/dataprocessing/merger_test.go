package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rtupulse/internal/errors"
	"rtupulse/pkg/contracts/domain"
)

var testKey = domain.UnitKey{Site: "BLD01", Unit: "RTU 1"}

func flowSheet(rows [][]string) domain.RawSheet {
	return domain.RawSheet{
		Name:    "RTU 1 Flow",
		Columns: []string{"Timestamp", "Supply Temp (°F)", "Fan Amps"},
		Rows:    rows,
	}
}

func zoneSheet(rows [][]string) domain.RawSheet {
	return domain.RawSheet{
		Name:    "RTU 1 Zone",
		Columns: []string{"Timestamp", "Zone Temp (°F)", "Outside Air Temp (°F)"},
		Rows:    rows,
	}
}

func energySheet(rows [][]string) domain.RawSheet {
	return domain.RawSheet{
		Name:    "RTU 1 Energy",
		Columns: []string{"Timestamp", "Energy (kWh)"},
		Rows:    rows,
	}
}

func TestMerge_AlignsNearestWithinTolerance(t *testing.T) {
	sheets := []domain.RawSheet{
		flowSheet([][]string{
			{"2024-03-01 10:00:00", "55", "4.1"},
			{"2024-03-01 10:01:00", "55.5", "4.2"},
			{"2024-03-01 10:02:00", "56", "4.3"},
		}),
		zoneSheet([][]string{
			{"2024-03-01 10:00:00", "72", "70"},
			{"2024-03-01 10:01:00", "72.1", "70.2"},
		}),
		energySheet([][]string{
			{"2024-03-01 10:00:00", "5.0"},
			{"2024-03-01 10:02:00", "5.2"},
		}),
	}

	table, err := Merge(testKey, sheets, time.Minute)
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)

	// Flow timeline survives intact.
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), table.Rows[0].Timestamp)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC), table.Rows[1].Timestamp)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 2, 0, 0, time.UTC), table.Rows[2].Timestamp)

	// 10:01 has no exact energy reading; 10:00 and 10:02 are both one
	// minute away and the later one wins.
	assert.InDelta(t, 5.0, table.Rows[0].EnergyKWh, 1e-9)
	assert.InDelta(t, 5.2, table.Rows[1].EnergyKWh, 1e-9)
	assert.InDelta(t, 5.2, table.Rows[2].EnergyKWh, 1e-9)

	// 10:02 has no zone sample of its own; 10:01 is within tolerance.
	assert.InDelta(t, 72.1, table.Rows[2].ZoneTemp, 1e-9)
	assert.InDelta(t, 70.2, table.Rows[2].OutsideAirTemp, 1e-9)

	// Unrecognized channels pass through untouched.
	assert.Equal(t, []string{"Fan Amps"}, table.ExtraColumns)
	assert.Equal(t, "4.2", table.Rows[1].Extras["Fan Amps"])
}

func TestMerge_RejectsWrongSheetCount(t *testing.T) {
	flow := flowSheet([][]string{{"2024-03-01 10:00:00", "55", "4.1"}})
	zone := zoneSheet([][]string{{"2024-03-01 10:00:00", "72", "70"}})
	energy := energySheet([][]string{{"2024-03-01 10:00:00", "5.0"}})

	tests := []struct {
		name   string
		sheets []domain.RawSheet
	}{
		{name: "two sheets", sheets: []domain.RawSheet{flow, zone}},
		{name: "four sheets", sheets: []domain.RawSheet{flow, zone, energy, energy}},
		{name: "no sheets", sheets: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Merge(testKey, tt.sheets, time.Minute)
			require.Error(t, err)
			assert.Nil(t, table)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStructure))
		})
	}
}

func TestMerge_SuffixesCollidingColumns(t *testing.T) {
	sheets := []domain.RawSheet{
		{
			Name:    "RTU 1 Flow",
			Columns: []string{"Timestamp", "Supply Temp (°F)", "Fan Status"},
			Rows:    [][]string{{"2024-03-01 10:00:00", "55", "On"}},
		},
		{
			Name:    "RTU 1 Zone",
			Columns: []string{"Timestamp", "Zone Temp (°F)", "Outside Air Temp (°F)", "Fan Status"},
			Rows:    [][]string{{"2024-03-01 10:00:00", "72", "70", "Auto"}},
		},
		energySheet([][]string{{"2024-03-01 10:00:00", "5.0"}}),
	}

	table, err := Merge(testKey, sheets, time.Minute)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	assert.ElementsMatch(t, []string{"Fan Status_flow", "Fan Status_zone"}, table.ExtraColumns)
	assert.Equal(t, "On", table.Rows[0].Extras["Fan Status_flow"])
	assert.Equal(t, "Auto", table.Rows[0].Extras["Fan Status_zone"])
}

func TestMerge_DropsDeniedColumns(t *testing.T) {
	sheets := []domain.RawSheet{
		{
			Name:    "RTU 1 Flow",
			Columns: []string{"Timestamp", "Supply Temp (°F)", "Power (kW)", "Cooling Setpoint"},
			Rows:    [][]string{{"2024-03-01 10:00:00", "55", "3.2", "74"}},
		},
		zoneSheet([][]string{{"2024-03-01 10:00:00", "72", "70"}}),
		energySheet([][]string{{"2024-03-01 10:00:00", "5.0"}}),
	}

	table, err := Merge(testKey, sheets, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, table.ExtraColumns)
	assert.Empty(t, table.Rows[0].Extras)
}

func TestMerge_DropsIncompleteRows(t *testing.T) {
	sheets := []domain.RawSheet{
		flowSheet([][]string{
			{"2024-03-01 10:00:00", "55", "4.1"},
			{"2024-03-01 10:15:00", "", "4.2"}, // supply temp missing
			{"2024-03-01 10:30:00", "56", "4.3"},
		}),
		zoneSheet([][]string{
			{"2024-03-01 10:00:00", "72", "70"},
			{"2024-03-01 10:15:00", "72.1", "70.1"},
			{"2024-03-01 10:30:00", "72.2", "70.2"},
		}),
		energySheet([][]string{
			{"2024-03-01 10:00:00", "5.0"},
			{"2024-03-01 10:15:00", "5.1"},
			{"2024-03-01 10:30:00", "5.2"},
		}),
	}

	table, err := Merge(testKey, sheets, time.Minute)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), table.Rows[0].Timestamp)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), table.Rows[1].Timestamp)
}

func TestMerge_OutsideToleranceYieldsNoMatch(t *testing.T) {
	sheets := []domain.RawSheet{
		flowSheet([][]string{{"2024-03-01 10:00:00", "55", "4.1"}}),
		zoneSheet([][]string{{"2024-03-01 10:00:00", "72", "70"}}),
		energySheet([][]string{{"2024-03-01 10:05:00", "5.0"}}),
	}

	// Five minutes is outside a one-minute tolerance, so the only flow
	// row has no energy value and the completeness rule drops it.
	table, err := Merge(testKey, sheets, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestMerge_MissingRequiredColumn(t *testing.T) {
	sheets := []domain.RawSheet{
		flowSheet([][]string{{"2024-03-01 10:00:00", "55", "4.1"}}),
		{
			Name:    "RTU 1 Zone",
			Columns: []string{"Timestamp", "Zone Temp (°F)"}, // no outside air channel
			Rows:    [][]string{{"2024-03-01 10:00:00", "72"}},
		},
		energySheet([][]string{{"2024-03-01 10:00:00", "5.0"}}),
	}

	_, err := Merge(testKey, sheets, time.Minute)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestNewTimeSeries(t *testing.T) {
	t.Run("skips unparseable timestamps", func(t *testing.T) {
		series, skipped, err := newTimeSeries(domain.RawSheet{
			Name:    "RTU 1 Flow",
			Columns: []string{"Timestamp", "Supply Temp (°F)"},
			Rows: [][]string{
				{"2024-03-01 10:00:00", "55"},
				{"not a time", "56"},
				{"", "57"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, skipped)
		assert.Len(t, series.rows, 1)
	})

	t.Run("accepts date/time header", func(t *testing.T) {
		series, _, err := newTimeSeries(domain.RawSheet{
			Name:    "RTU 1 Flow",
			Columns: []string{"Date/Time", "Supply Temp (°F)"},
			Rows:    [][]string{{"2024-03-01 10:00:00", "55"}},
		})
		require.NoError(t, err)
		assert.Len(t, series.rows, 1)
	})

	t.Run("rejects sheet without timestamp column", func(t *testing.T) {
		_, _, err := newTimeSeries(domain.RawSheet{
			Name:    "RTU 1 Flow",
			Columns: []string{"Supply Temp (°F)"},
			Rows:    [][]string{{"55"}},
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})
}

func TestNearestWithin(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := []seriesRow{
		{ts: base, cells: map[string]string{"v": "a"}},
		{ts: base.Add(2 * time.Minute), cells: map[string]string{"v": "b"}},
	}

	tests := []struct {
		name string
		ts   time.Time
		tol  time.Duration
		want string
		ok   bool
	}{
		{name: "exact match", ts: base, tol: time.Minute, want: "a", ok: true},
		{name: "closer to later", ts: base.Add(90 * time.Second), tol: time.Minute, want: "b", ok: true},
		{name: "tie resolves to later", ts: base.Add(time.Minute), tol: time.Minute, want: "b", ok: true},
		{name: "outside tolerance", ts: base.Add(10 * time.Minute), tol: time.Minute, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok := nearestWithin(rows, tt.ts, tt.tol)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, row.cells["v"])
			}
		})
	}
}
