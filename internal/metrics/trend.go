package metrics

import (
	"context"
	"sort"
	"strconv"
	"time"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// sumByYear groups rows by plan year and sums valueField per year. Rows
// without a plan year are skipped; a table with no dated rows at all is a
// metric error.
func sumByYear(t *domain.Table, metric, valueField string) (map[int]float64, error) {
	if err := requireNumeric(t, metric, domain.FieldPlanYear, valueField); err != nil {
		return nil, err
	}

	years := t.Numbers(domain.FieldPlanYear)
	values := t.Numbers(valueField)

	out := make(map[int]float64)
	for i, y := range years {
		if y == 0 {
			continue
		}
		out[int(y)] += values[i]
	}
	if len(out) == 0 {
		return nil, apperrors.NewMetricError(metric, "plan year unavailable")
	}
	return out, nil
}

// weightedMeanByYear groups rows by plan year and computes the weighted mean
// of valueField per year. A year whose rows carry zero total weight is a
// metric error rather than a NaN point.
func weightedMeanByYear(t *domain.Table, metric, valueField, weightField string) (map[int]float64, error) {
	if err := requireNumeric(t, metric, domain.FieldPlanYear, valueField, weightField); err != nil {
		return nil, err
	}

	years := t.Numbers(domain.FieldPlanYear)
	values := t.Numbers(valueField)
	weights := t.Numbers(weightField)

	num := make(map[int]float64)
	den := make(map[int]float64)
	for i, y := range years {
		if y == 0 {
			continue
		}
		year := int(y)
		num[year] += values[i] * weights[i]
		den[year] += weights[i]
	}
	if len(den) == 0 {
		return nil, apperrors.NewMetricError(metric, "plan year unavailable")
	}

	out := make(map[int]float64, len(den))
	for year, d := range den {
		if d == 0 {
			return nil, apperrors.NewMetricError(metric, "zero total weight for plan year "+strconv.Itoa(year))
		}
		out[year] = num[year] / d
	}
	return out, nil
}

// buildTrend orders points by year ascending and fills year-over-year
// growth. The first point and any point following a zero value carry
// GrowthDefined false instead of an infinity.
func buildTrend(name string, unit domain.Unit, points []domain.TrendPoint) domain.Trend {
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	for i := range points {
		if i == 0 {
			continue
		}
		prev := points[i-1].Value
		if prev == 0 {
			continue
		}
		points[i].Growth = (points[i].Value - prev) / prev * 100
		points[i].GrowthDefined = true
	}
	return domain.Trend{Name: name, Unit: unit, Points: points}
}

// trendOver assembles one trend point per distinct plan year across all the
// tables. Multi-year files like the 2014-2024 plan design PUF contribute one
// point per year they carry; a year appearing in more than one table is
// ambiguous and rejected.
func (e *Engine) trendOver(name string, unit domain.Unit, tables []*domain.Table,
	points func(*domain.Table) (map[int]float64, error)) (domain.Trend, error) {

	if len(tables) == 0 {
		return domain.Trend{}, apperrors.NewMetricError(name, "no tables")
	}

	merged := make(map[int]float64)
	for _, t := range tables {
		byYear, err := points(t)
		if err != nil {
			return domain.Trend{}, err
		}
		for year, v := range byYear {
			if _, dup := merged[year]; dup {
				return domain.Trend{}, apperrors.NewMetricError(name, "duplicate plan year "+strconv.Itoa(year))
			}
			merged[year] = v
		}
	}

	pts := make([]domain.TrendPoint, 0, len(merged))
	for year, v := range merged {
		pts = append(pts, domain.TrendPoint{Year: year, Value: v})
	}
	return buildTrend(name, unit, pts), nil
}

// EnrollmentTrend tracks total plan selections per plan year, with
// year-over-year growth. Years may arrive as one file per vintage or as a
// single multi-year file; rows are grouped by plan_year either way.
func (e *Engine) EnrollmentTrend(ctx context.Context, tables ...*domain.Table) (tr domain.Trend, err error) {
	const name = "enrollment_trend"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	tr, err = e.trendOver(name, domain.UnitCount, tables, func(t *domain.Table) (map[int]float64, error) {
		return sumByYear(t, name, domain.FieldTotalEnrollment)
	})
	return tr, err
}

// PremiumTrend tracks the enrollment-weighted average premium per plan year.
func (e *Engine) PremiumTrend(ctx context.Context, tables ...*domain.Table) (tr domain.Trend, err error) {
	const name = "premium_trend"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	tr, err = e.trendOver(name, domain.UnitUSD, tables, func(t *domain.Table) (map[int]float64, error) {
		return weightedMeanByYear(t, name, domain.FieldAveragePremium, domain.FieldTotalEnrollment)
	})
	return tr, err
}
