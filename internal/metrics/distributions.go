package metrics

import (
	"context"
	"time"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// bucket pairs a display key with the canonical field carrying its count.
type bucket struct {
	key   string
	field string
}

// sumBuckets sums each bucket's column, skipping buckets whose column was
// absent from the source file. MetricError when none are present.
func sumBuckets(t *domain.Table, metric string, buckets []bucket) ([]domain.SeriesPoint, error) {
	if t == nil {
		return nil, apperrors.NewMetricError(metric, "no table")
	}

	missing := make(map[string]bool)
	for _, field := range t.Diagnostics().MissingOptional {
		missing[field] = true
	}

	var points []domain.SeriesPoint
	for _, b := range buckets {
		if !t.HasField(b.field) || !t.IsNumeric(b.field) || missing[b.field] {
			continue
		}
		points = append(points, domain.SeriesPoint{Key: b.key, Value: sum(t.Numbers(b.field))})
	}
	if len(points) == 0 {
		return nil, apperrors.NewMetricError(metric, "no bucket columns present")
	}
	return withShares(points), nil
}

// MetalLevelDistribution breaks enrollment down by metal tier. The
// state-level layout carries the tiers as wide columns; the plan-design
// layout carries one row per plan stratum grouped by metal_level. Both
// yield the same series shape.
func (e *Engine) MetalLevelDistribution(ctx context.Context, t *domain.Table) (s domain.GroupedSeries, err error) {
	const name = "metal_level_distribution"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if t != nil && t.Category() == domain.CategoryPlanDesign {
		if err = requireText(t, name, domain.FieldMetalLevel); err != nil {
			return domain.GroupedSeries{}, err
		}
		if err = requireNumeric(t, name, domain.FieldPlanSelections); err != nil {
			return domain.GroupedSeries{}, err
		}
		points := withShares(groupSum(t, domain.FieldMetalLevel, domain.FieldPlanSelections))
		if len(points) == 0 {
			err = apperrors.NewMetricError(name, "no metal levels present")
			return domain.GroupedSeries{}, err
		}
		return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
	}

	points, err := sumBuckets(t, name, []bucket{
		{"Bronze", domain.FieldBronze},
		{"Silver", domain.FieldSilver},
		{"Gold", domain.FieldGold},
		{"Platinum", domain.FieldPlatinum},
		{"Catastrophic", domain.FieldCatastrophic},
	})
	if err != nil {
		return domain.GroupedSeries{}, err
	}
	return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
}

// AgeDistribution sums the age-band columns, youngest band first.
func (e *Engine) AgeDistribution(ctx context.Context, t *domain.Table) (s domain.GroupedSeries, err error) {
	const name = "age_distribution"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	points, err := sumBuckets(t, name, []bucket{
		{"0-17", domain.FieldAge0To17},
		{"18-25", domain.FieldAge18To25},
		{"26-34", domain.FieldAge26To34},
		{"35-44", domain.FieldAge35To44},
		{"45-54", domain.FieldAge45To54},
		{"55-64", domain.FieldAge55To64},
		{"65+", domain.FieldAgeOver65},
	})
	if err != nil {
		return domain.GroupedSeries{}, err
	}
	return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
}

// GenderBreakdown sums the gender columns.
func (e *Engine) GenderBreakdown(ctx context.Context, t *domain.Table) (s domain.GroupedSeries, err error) {
	const name = "gender_breakdown"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	points, err := sumBuckets(t, name, []bucket{
		{"Female", domain.FieldFemale},
		{"Male", domain.FieldMale},
	})
	if err != nil {
		return domain.GroupedSeries{}, err
	}
	return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
}

// RuralShare sums enrollment in rural against non-rural areas.
func (e *Engine) RuralShare(ctx context.Context, t *domain.Table) (s domain.GroupedSeries, err error) {
	const name = "rural_share"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	points, err := sumBuckets(t, name, []bucket{
		{"Rural", domain.FieldRural},
		{"Non-rural", domain.FieldNonRural},
	})
	if err != nil {
		return domain.GroupedSeries{}, err
	}
	return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
}

// NewVersusReturning sums new against returning consumers.
func (e *Engine) NewVersusReturning(ctx context.Context, t *domain.Table) (s domain.GroupedSeries, err error) {
	const name = "new_versus_returning"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	points, err := sumBuckets(t, name, []bucket{
		{"New", domain.FieldNewEnrollment},
		{"Returning", domain.FieldReturningEnrollment},
	})
	if err != nil {
		return domain.GroupedSeries{}, err
	}
	return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
}

// PlatformDistribution groups enrollment by marketplace platform, largest
// platform first, alphabetical on ties.
func (e *Engine) PlatformDistribution(ctx context.Context, t *domain.Table) (s domain.GroupedSeries, err error) {
	const name = "platform_distribution"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireText(t, name, domain.FieldPlatform); err != nil {
		return domain.GroupedSeries{}, err
	}
	if err = requireNumeric(t, name, domain.FieldTotalEnrollment); err != nil {
		return domain.GroupedSeries{}, err
	}

	points := rank(withShares(groupSum(t, domain.FieldPlatform, domain.FieldTotalEnrollment)), 0)
	if len(points) == 0 {
		err = apperrors.NewMetricError(name, "no platform values present")
		return domain.GroupedSeries{}, err
	}
	return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
}

// TopStatesByEnrollment ranks states by total plan selections, descending,
// ties broken by state name.
func (e *Engine) TopStatesByEnrollment(ctx context.Context, t *domain.Table, n int) (s domain.GroupedSeries, err error) {
	const name = "top_states_by_enrollment"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireText(t, name, domain.FieldState); err != nil {
		return domain.GroupedSeries{}, err
	}
	if err = requireNumeric(t, name, domain.FieldTotalEnrollment); err != nil {
		return domain.GroupedSeries{}, err
	}

	points := rank(withShares(groupSum(t, domain.FieldState, domain.FieldTotalEnrollment)), n)
	if len(points) == 0 {
		err = apperrors.NewMetricError(name, "no states present")
		return domain.GroupedSeries{}, err
	}
	return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
}

// CountyConcentration ranks counties by enrollment under "state/county"
// keys. County names repeat across states, so the key carries both.
func (e *Engine) CountyConcentration(ctx context.Context, county *domain.Table, n int) (s domain.GroupedSeries, err error) {
	const name = "county_concentration"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireText(county, name, domain.FieldState, domain.FieldCounty); err != nil {
		return domain.GroupedSeries{}, err
	}
	if err = requireNumeric(county, name, domain.FieldTotalEnrollment); err != nil {
		return domain.GroupedSeries{}, err
	}

	states := county.Strings(domain.FieldState)
	names := county.Strings(domain.FieldCounty)
	values := county.Numbers(domain.FieldTotalEnrollment)

	index := make(map[string]int)
	var points []domain.SeriesPoint
	for i := range names {
		if names[i] == "" {
			continue
		}
		key := states[i] + "/" + names[i]
		at, seen := index[key]
		if !seen {
			index[key] = len(points)
			points = append(points, domain.SeriesPoint{Key: key})
			at = len(points) - 1
		}
		points[at].Value += values[i]
	}
	if len(points) == 0 {
		err = apperrors.NewMetricError(name, "no counties present")
		return domain.GroupedSeries{}, err
	}

	points = rank(withShares(points), n)
	return domain.GroupedSeries{Name: name, Unit: domain.UnitCount, Points: points}, nil
}
