package metrics

import (
	"context"
	"time"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// costSharingRows returns the indices of plan strata that belong in
// cost-sharing aggregates. AI/AN zero and limited cost-sharing variants
// carry deductibles that do not describe what members actually pay, so
// normalization flags them out; they still count toward enrollment sums.
func costSharingRows(t *domain.Table) []int {
	flags := t.Numbers(domain.FieldIncludeInCostSharing)
	var rows []int
	for i, f := range flags {
		if f == 1 {
			rows = append(rows, i)
		}
	}
	return rows
}

// selectionWeighted averages valueField over the cost-sharing rows,
// weighted by plan selections.
func (e *Engine) selectionWeighted(t *domain.Table, metric, valueField string) (float64, error) {
	if err := requireNumeric(t, metric,
		valueField, domain.FieldPlanSelections, domain.FieldIncludeInCostSharing); err != nil {
		return 0, err
	}

	values := t.Numbers(valueField)
	weights := t.Numbers(domain.FieldPlanSelections)

	rows := costSharingRows(t)
	if len(rows) == 0 {
		return 0, apperrors.NewMetricError(metric, "no cost-sharing rows")
	}

	var weightedSum, weightSum float64
	for _, i := range rows {
		weightedSum += values[i] * weights[i]
		weightSum += weights[i]
	}
	if weightSum == 0 {
		return 0, apperrors.NewMetricError(metric, "zero total weight")
	}
	return weightedSum / weightSum, nil
}

// SelectionWeightedDeductible is the deductible the average enrollee faces,
// over cost-sharing rows only.
func (e *Engine) SelectionWeightedDeductible(ctx context.Context, planDesign *domain.Table) (s domain.Scalar, err error) {
	const name = "selection_weighted_deductible"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	value, err := e.selectionWeighted(planDesign, name, domain.FieldDeductible)
	if err != nil {
		return domain.Scalar{}, err
	}
	return domain.Scalar{Name: name, Value: value, Unit: domain.UnitUSD}, nil
}

// SelectionWeightedMOOP is the maximum out-of-pocket the average enrollee
// faces, over cost-sharing rows only.
func (e *Engine) SelectionWeightedMOOP(ctx context.Context, planDesign *domain.Table) (s domain.Scalar, err error) {
	const name = "selection_weighted_moop"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	value, err := e.selectionWeighted(planDesign, name, domain.FieldMOOP)
	if err != nil {
		return domain.Scalar{}, err
	}
	return domain.Scalar{Name: name, Value: value, Unit: domain.UnitUSD}, nil
}

// levelCosts is one metal level's selection-weighted cost profile.
type levelCosts struct {
	premium, deductible, moop float64
	weight                    float64
}

// PlanValueScore scores each metal level on how little its enrollees pay:
// the mean of 1 - x/max over premium, deductible and MOOP, where each max
// is taken across levels. 1 means cheapest on every axis, 0 most expensive.
// Only cost-sharing rows contribute. Levels keep first-appearance order.
func (e *Engine) PlanValueScore(ctx context.Context, planDesign *domain.Table) (s domain.GroupedSeries, err error) {
	const name = "plan_value_score"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireText(planDesign, name, domain.FieldMetalLevel); err != nil {
		return domain.GroupedSeries{}, err
	}
	if err = requireNumeric(planDesign, name,
		domain.FieldAveragePremium, domain.FieldDeductible, domain.FieldMOOP,
		domain.FieldPlanSelections, domain.FieldIncludeInCostSharing); err != nil {
		return domain.GroupedSeries{}, err
	}

	levels := planDesign.Strings(domain.FieldMetalLevel)
	premiums := planDesign.Numbers(domain.FieldAveragePremium)
	deductibles := planDesign.Numbers(domain.FieldDeductible)
	moops := planDesign.Numbers(domain.FieldMOOP)
	weights := planDesign.Numbers(domain.FieldPlanSelections)

	rows := costSharingRows(planDesign)
	if len(rows) == 0 {
		err = apperrors.NewMetricError(name, "no cost-sharing rows")
		return domain.GroupedSeries{}, err
	}

	index := make(map[string]int)
	var order []string
	costs := make(map[string]*levelCosts)
	for _, i := range rows {
		level := levels[i]
		if level == "" || weights[i] == 0 {
			continue
		}
		if _, seen := index[level]; !seen {
			index[level] = len(order)
			order = append(order, level)
			costs[level] = &levelCosts{}
		}
		c := costs[level]
		c.premium += premiums[i] * weights[i]
		c.deductible += deductibles[i] * weights[i]
		c.moop += moops[i] * weights[i]
		c.weight += weights[i]
	}
	if len(order) == 0 {
		err = apperrors.NewMetricError(name, "no metal levels with selections")
		return domain.GroupedSeries{}, err
	}

	var maxPremium, maxDeductible, maxMOOP float64
	for _, level := range order {
		c := costs[level]
		c.premium /= c.weight
		c.deductible /= c.weight
		c.moop /= c.weight
		if c.premium > maxPremium {
			maxPremium = c.premium
		}
		if c.deductible > maxDeductible {
			maxDeductible = c.deductible
		}
		if c.moop > maxMOOP {
			maxMOOP = c.moop
		}
	}
	if maxPremium == 0 && maxDeductible == 0 && maxMOOP == 0 {
		err = apperrors.NewMetricError(name, "all cost axes zero")
		return domain.GroupedSeries{}, err
	}

	points := make([]domain.SeriesPoint, 0, len(order))
	for _, level := range order {
		c := costs[level]
		var score float64
		axes := 0
		if maxPremium > 0 {
			score += 1 - c.premium/maxPremium
			axes++
		}
		if maxDeductible > 0 {
			score += 1 - c.deductible/maxDeductible
			axes++
		}
		if maxMOOP > 0 {
			score += 1 - c.moop/maxMOOP
			axes++
		}
		points = append(points, domain.SeriesPoint{Key: level, Value: score / float64(axes)})
	}

	return domain.GroupedSeries{Name: name, Unit: domain.UnitRatio, Points: points}, nil
}
