package domain

import (
	"fmt"
	"time"
)

// SheetRole identifies which of the three telemetry exports a sheet carries.
// Every processed unit has exactly one sheet per role, in this order.
type SheetRole int

const (
	RoleFlow   SheetRole = iota // fan amperage / airflow channels
	RoleZone                    // zone and supply temperatures
	RoleEnergy                  // cumulative energy meter
)

// String returns the role name used in logs and column suffixes.
func (r SheetRole) String() string {
	switch r {
	case RoleFlow:
		return "flow"
	case RoleZone:
		return "zone"
	case RoleEnergy:
		return "energy"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// UnitKey identifies one rooftop unit within a site.
type UnitKey struct {
	Site string `json:"site" validate:"required"`
	Unit string `json:"unit" validate:"required"`
}

// String renders the key the way output filenames spell it.
func (k UnitKey) String() string {
	return k.Site + "/" + k.Unit
}

// SourceFile carries the metadata extracted from a trend-export filename.
// Site codes are embedded in the filename and validated at ingest so a
// malformed name fails with a descriptive error instead of an index panic.
type SourceFile struct {
	Path string `json:"path" validate:"required"`
	Name string `json:"name" validate:"required"`
	Site string `json:"site" validate:"required,alphanum"`
}

// SheetRef points at one sheet inside a source workbook.
type SheetRef struct {
	File  SourceFile `json:"file"`
	Sheet string     `json:"sheet" validate:"required"`
}

// RawSheet is one sheet read into memory: a header row plus string cells.
// It exists only between classification and the merge step.
type RawSheet struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// MergedRow is one aligned sample on the flow sheet's timeline. The four
// named fields are required by every downstream formula; rows missing any
// of them are dropped before derivation.
type MergedRow struct {
	Timestamp      time.Time `json:"timestamp"`
	OutsideAirTemp float64   `json:"outside_air_temp"` // °F
	ZoneTemp       float64   `json:"zone_temp"`        // °F
	SupplyTemp     float64   `json:"supply_temp"`      // °F
	EnergyKWh      float64   `json:"energy_kwh"`       // cumulative meter reading
	// Extras holds pass-through channels keyed by (suffixed) column name.
	Extras map[string]string `json:"extras,omitempty"`
}

// MergedTable is the merged per-unit time series plus the ordered list of
// pass-through columns, preserved for the audit workbook.
type MergedTable struct {
	Key          UnitKey     `json:"key"`
	ExtraColumns []string    `json:"extra_columns"`
	Rows         []MergedRow `json:"rows"`
}

// Mode classifies one sample's operating direction.
type Mode string

const (
	ModeHeating Mode = "Heating"
	ModeCooling Mode = "Cooling"
)

// DerivedRow extends a merged sample with the computed thermal columns.
// Interval and energy increment depend on the previous row, so derivation
// is an ordered fold over the merged rows.
type DerivedRow struct {
	MergedRow

	IntervalSeconds float64 `json:"interval_seconds"` // since prior row, first row 0
	SupplyDelta     float64 `json:"supply_delta"`     // outside air − supply
	ReturnTemp      float64 `json:"return_temp"`      // zone ± 2, proxy for unmeasured sensor
	ReturnDelta     float64 `json:"return_delta"`     // inferred return − supply
	Mode            Mode    `json:"mode"`
	EnergyWh        float64 `json:"energy_wh"` // 1000 × ΔkWh, first row 0
	FreshAirLoad    float64 `json:"fresh_air_load"`
	ReturnAirLoad   float64 `json:"return_air_load"`
	TotalLoad       float64 `json:"total_load"` // fresh + return, sign indicates direction
}

// UnitKPI is the per-unit efficiency summary: accumulated load divided by
// accumulated electrical energy for each operating mode, over qualifying
// samples only. Ratios are 0 when a mode has no qualifying samples.
type UnitKPI struct {
	Site         string  `json:"site" csv:"Site"`
	Unit         string  `json:"unit" csv:"Unit"`
	CoolingRatio float64 `json:"cooling_ratio" csv:"CoolingRatio"`
	HeatingRatio float64 `json:"heating_ratio" csv:"HeatingRatio"`
	NominalFlow  float64 `json:"nominal_flow" csv:"NominalFlow"` // CFM used in the load formula
}
