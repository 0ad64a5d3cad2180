package metrics

import (
	"context"
	"time"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// WeightedShare computes a two-step weighted average of per-row shares:
// each row contributes num/den, and the shares are averaged weighted by
// weightField. This is deliberately not the ratio of column totals; the two
// disagree whenever shares vary across rows with uneven weights. Rows whose
// denominator is zero are skipped. The result is a plain ratio in [0, 1]
// when the per-row shares are.
func (e *Engine) WeightedShare(ctx context.Context, t *domain.Table, numField, denField, weightField string) (v float64, err error) {
	name := "weighted_share_" + numField
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	v, err = e.weightedShare(t, name, numField, denField, weightField)
	return v, err
}

func (e *Engine) weightedShare(t *domain.Table, metric, numField, denField, weightField string) (float64, error) {
	if err := requireNumeric(t, metric, numField, denField, weightField); err != nil {
		return 0, err
	}

	nums := t.Numbers(numField)
	dens := t.Numbers(denField)
	weights := t.Numbers(weightField)

	var weightedSum, weightSum float64
	survivors := 0
	for i := range nums {
		if dens[i] == 0 {
			continue
		}
		weightedSum += nums[i] / dens[i] * weights[i]
		weightSum += weights[i]
		survivors++
	}

	if survivors == 0 {
		return 0, apperrors.NewMetricError(metric, "no rows with a nonzero denominator")
	}
	if weightSum == 0 {
		return 0, apperrors.NewMetricError(metric, "zero total weight")
	}
	return weightedSum / weightSum, nil
}

// WeightedMean computes Σ(v·w)/Σw over the whole table.
func (e *Engine) WeightedMean(ctx context.Context, t *domain.Table, valueField, weightField string) (v float64, err error) {
	name := "weighted_mean_" + valueField
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	v, err = e.weightedMean(t, name, valueField, weightField)
	return v, err
}

func (e *Engine) weightedMean(t *domain.Table, metric, valueField, weightField string) (float64, error) {
	if err := requireNumeric(t, metric, valueField, weightField); err != nil {
		return 0, err
	}

	values := t.Numbers(valueField)
	weights := t.Numbers(weightField)

	var weightedSum, weightSum float64
	for i := range values {
		weightedSum += values[i] * weights[i]
		weightSum += weights[i]
	}
	if weightSum == 0 {
		return 0, apperrors.NewMetricError(metric, "zero total weight")
	}
	return weightedSum / weightSum, nil
}

// HSAEligibleShare is the enrollment-weighted share of offered plans that
// are HSA-eligible: per row hsa_eligible/plans_offered, averaged weighted
// by plan selections. Reported as a percentage.
func (e *Engine) HSAEligibleShare(ctx context.Context, planDesign *domain.Table) (s domain.Scalar, err error) {
	const name = "hsa_eligible_share"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	share, err := e.weightedShare(planDesign, name,
		domain.FieldHSAEligible, domain.FieldPlansOffered, domain.FieldPlanSelections)
	if err != nil {
		return domain.Scalar{}, err
	}
	return domain.Scalar{Name: name, Value: 100 * share, Unit: domain.UnitPercent}, nil
}

// EnrolleeWeightedPlanAvailability is the number of plans the average
// enrollee could choose from, i.e. plans available weighted by enrollment.
func (e *Engine) EnrolleeWeightedPlanAvailability(ctx context.Context, state *domain.Table) (s domain.Scalar, err error) {
	const name = "plan_availability"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	value, err := e.weightedMean(state, name, domain.FieldPlansAvailable, domain.FieldTotalEnrollment)
	if err != nil {
		return domain.Scalar{}, err
	}
	return domain.Scalar{Name: name, Value: value, Unit: domain.UnitPlans}, nil
}
