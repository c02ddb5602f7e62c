package dataprocessing

import (
	"math"
	"sort"

	"rtupulse/pkg/contracts/domain"
)

// AggregateOptions tunes the KPI reduction.
type AggregateOptions struct {
	// MaxIntervalSeconds excludes samples after a telemetry gap: a row
	// only qualifies when its sampling interval is below this bound.
	MaxIntervalSeconds float64

	// UsePercentileBand restricts sums to extreme-load samples to
	// approximate steady-state rated efficiency instead of
	// average-of-everything.
	UsePercentileBand bool

	// PercentileBand is the band width (0.05 keeps the top 5% of
	// positive loads for cooling and the bottom 5% of negative loads
	// for heating).
	PercentileBand float64
}

// loadBand is an inclusive total-load interval a row must fall into.
type loadBand struct {
	lo, hi float64
	ok     bool
}

func (b loadBand) contains(v float64) bool {
	if !b.ok {
		return false
	}
	return v >= b.lo && v <= b.hi
}

// Aggregate reduces a unit's derived rows to its efficiency summary.
// Qualifying rows have the matching mode, a sampling interval below the
// bound, and a positive energy increment; the percentile variant further
// restricts each mode to its extreme-load band. A mode with no qualifying
// rows yields a ratio of 0.
func Aggregate(key domain.UnitKey, rows []domain.DerivedRow, nominalFlow float64, opts AggregateOptions) domain.UnitKPI {
	coolBand := loadBand{lo: math.Inf(-1), hi: math.Inf(1), ok: true}
	heatBand := coolBand

	if opts.UsePercentileBand {
		coolBand = upperBand(rows, opts.PercentileBand)
		heatBand = lowerBand(rows, opts.PercentileBand)
	}

	var coolLoad, coolWh, heatLoad, heatWh float64

	for _, row := range rows {
		if row.IntervalSeconds >= opts.MaxIntervalSeconds || row.EnergyWh <= 0 {
			continue
		}

		switch row.Mode {
		case domain.ModeCooling:
			if coolBand.contains(row.TotalLoad) {
				coolLoad += row.TotalLoad
				coolWh += row.EnergyWh
			}
		case domain.ModeHeating:
			if heatBand.contains(row.TotalLoad) {
				heatLoad += row.TotalLoad
				heatWh += row.EnergyWh
			}
		}
	}

	return domain.UnitKPI{
		Site:         key.Site,
		Unit:         key.Unit,
		CoolingRatio: safeRatio(coolLoad, coolWh),
		HeatingRatio: safeRatio(heatLoad, heatWh),
		NominalFlow:  nominalFlow,
	}
}

// safeRatio divides, defining x/0 as 0 rather than raising.
func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// upperBand is the [P(1-band), max] interval of the positive total loads.
func upperBand(rows []domain.DerivedRow, band float64) loadBand {
	var positive []float64
	for _, row := range rows {
		if row.TotalLoad > 0 {
			positive = append(positive, row.TotalLoad)
		}
	}
	if len(positive) == 0 {
		return loadBand{}
	}
	sort.Float64s(positive)
	return loadBand{
		lo: percentile(positive, 1-band),
		hi: positive[len(positive)-1],
		ok: true,
	}
}

// lowerBand is the [min, P(band)] interval of the negative total loads.
func lowerBand(rows []domain.DerivedRow, band float64) loadBand {
	var negative []float64
	for _, row := range rows {
		if row.TotalLoad < 0 {
			negative = append(negative, row.TotalLoad)
		}
	}
	if len(negative) == 0 {
		return loadBand{}
	}
	sort.Float64s(negative)
	return loadBand{
		lo: negative[0],
		hi: percentile(negative, band),
		ok: true,
	}
}

// percentile computes the p-quantile of sorted values with linear
// interpolation between ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p * float64(len(sorted)-1)
	low := int(math.Floor(rank))
	high := int(math.Ceil(rank))
	if low == high {
		return sorted[low]
	}
	frac := rank - float64(low)
	return sorted[low]*(1-frac) + sorted[high]*frac
}
