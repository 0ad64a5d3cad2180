package metrics

import (
	"context"
	"time"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// MarketPenetration is total enrollment as a share of population across the
// county table. Population is an optional enrichment column; without it the
// metric is undefined, never zero.
func (e *Engine) MarketPenetration(ctx context.Context, county *domain.Table) (s domain.Scalar, err error) {
	const name = "market_penetration"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireNumeric(county, name, domain.FieldTotalEnrollment, domain.FieldPopulation); err != nil {
		return domain.Scalar{}, err
	}

	population := sum(county.Numbers(domain.FieldPopulation))
	if population == 0 {
		err = apperrors.NewMetricError(name, "population missing or zero")
		return domain.Scalar{}, err
	}

	value := 100 * sum(county.Numbers(domain.FieldTotalEnrollment)) / population
	return domain.Scalar{Name: name, Value: value, Unit: domain.UnitPercent}, nil
}

// RelativePenetration compares each county's penetration against its
// state's aggregate: a value above 1 means the county enrolls a larger
// share of its population than the state overall. Counties without
// population data are skipped; keys are "state/county" in first-appearance
// order.
func (e *Engine) RelativePenetration(ctx context.Context, county *domain.Table) (s domain.GroupedSeries, err error) {
	const name = "relative_penetration"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireText(county, name, domain.FieldState, domain.FieldCounty); err != nil {
		return domain.GroupedSeries{}, err
	}
	if err = requireNumeric(county, name, domain.FieldTotalEnrollment, domain.FieldPopulation); err != nil {
		return domain.GroupedSeries{}, err
	}

	states := county.Strings(domain.FieldState)
	names := county.Strings(domain.FieldCounty)
	enrollment := county.Numbers(domain.FieldTotalEnrollment)
	population := county.Numbers(domain.FieldPopulation)

	type aggregate struct{ enrollment, population float64 }
	stateTotals := make(map[string]aggregate)
	for i := range states {
		if population[i] == 0 {
			continue
		}
		agg := stateTotals[states[i]]
		agg.enrollment += enrollment[i]
		agg.population += population[i]
		stateTotals[states[i]] = agg
	}

	var points []domain.SeriesPoint
	for i := range states {
		if population[i] == 0 || names[i] == "" {
			continue
		}
		agg := stateTotals[states[i]]
		if agg.population == 0 || agg.enrollment == 0 {
			continue
		}
		countyRate := enrollment[i] / population[i]
		stateRate := agg.enrollment / agg.population
		points = append(points, domain.SeriesPoint{
			Key:   states[i] + "/" + names[i],
			Value: countyRate / stateRate,
		})
	}
	if len(points) == 0 {
		err = apperrors.NewMetricError(name, "no counties with population data")
		return domain.GroupedSeries{}, err
	}

	return domain.GroupedSeries{Name: name, Unit: domain.UnitRatio, Points: points}, nil
}
