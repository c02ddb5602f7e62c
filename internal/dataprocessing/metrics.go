package dataprocessing

import (
	"time"

	"rtupulse/pkg/contracts/domain"
)

// Physical constants for the thermal-load formulas. Loads are computed in
// BTU over a 15-minute sample using standard air density and specific heat.
const (
	airDensity       = 0.0765 // lb/ft³, standard air
	airSpecificHeat  = 0.24   // BTU/(lb·°F)
	freshAirFraction = 0.2    // outside-air share of nominal flow
	returnAirFrac    = 0.8    // recirculated share of nominal flow
	sampleMinutes    = 15.0   // export cadence the load formula assumes

	// returnTempOffset approximates the unmeasured return-air sensor:
	// return air is taken as zone temperature pulled 2°F toward outside.
	returnTempOffset = 2.0

	whPerKWh = 1000.0
)

// Derive computes the derived thermal columns over the merged rows in
// order. Interval and energy increment depend on the previous row, so this
// is a fold carrying the prior timestamp and meter reading; the first row
// gets interval 0 and increment 0.
func Derive(table *domain.MergedTable, nominalFlow float64) []domain.DerivedRow {
	derived := make([]domain.DerivedRow, 0, len(table.Rows))

	var (
		havePrev bool
		prevTS   time.Time
		prevKWh  float64
	)

	for _, row := range table.Rows {
		d := domain.DerivedRow{MergedRow: row}

		if havePrev {
			d.IntervalSeconds = row.Timestamp.Sub(prevTS).Seconds()
			d.EnergyWh = whPerKWh * (row.EnergyKWh - prevKWh)
		}
		havePrev = true
		prevTS = row.Timestamp
		prevKWh = row.EnergyKWh

		d.SupplyDelta = row.OutsideAirTemp - row.SupplyTemp

		if row.ZoneTemp > row.OutsideAirTemp {
			d.ReturnTemp = row.ZoneTemp - returnTempOffset
		} else {
			d.ReturnTemp = row.ZoneTemp + returnTempOffset
		}
		d.ReturnDelta = d.ReturnTemp - row.SupplyTemp

		if d.ReturnDelta < 0 {
			d.Mode = domain.ModeHeating
		} else {
			d.Mode = domain.ModeCooling
		}

		d.FreshAirLoad = freshAirFraction * nominalFlow * airDensity * airSpecificHeat * d.SupplyDelta * sampleMinutes
		d.ReturnAirLoad = returnAirFrac * nominalFlow * airDensity * airSpecificHeat * d.ReturnDelta * sampleMinutes
		d.TotalLoad = d.FreshAirLoad + d.ReturnAirLoad

		derived = append(derived, d)
	}

	return derived
}
