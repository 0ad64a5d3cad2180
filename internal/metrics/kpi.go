package metrics

import (
	"context"
	"time"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// TotalEnrollment sums plan selections across the table.
func (e *Engine) TotalEnrollment(ctx context.Context, t *domain.Table) (s domain.Scalar, err error) {
	const name = "total_enrollment"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireNumeric(t, name, domain.FieldTotalEnrollment); err != nil {
		return domain.Scalar{}, err
	}
	return domain.Scalar{
		Name:  name,
		Value: sum(t.Numbers(domain.FieldTotalEnrollment)),
		Unit:  domain.UnitCount,
	}, nil
}

// AverageMonthlyPremium is the enrollment-weighted average gross premium.
// States with more enrollees move the figure more; the unweighted mean of
// state averages would not.
func (e *Engine) AverageMonthlyPremium(ctx context.Context, t *domain.Table) (s domain.Scalar, err error) {
	const name = "average_monthly_premium"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	value, err := e.weightedMean(t, name, domain.FieldAveragePremium, domain.FieldTotalEnrollment)
	if err != nil {
		return domain.Scalar{}, err
	}
	return domain.Scalar{Name: name, Value: value, Unit: domain.UnitUSD}, nil
}

// PercentWithAPTC is the share of all enrollees receiving advance premium
// tax credits, as a ratio of totals across the whole table.
func (e *Engine) PercentWithAPTC(ctx context.Context, t *domain.Table) (s domain.Scalar, err error) {
	const name = "percent_with_aptc"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireNumeric(t, name, domain.FieldConsumersWithAPTC, domain.FieldTotalEnrollment); err != nil {
		return domain.Scalar{}, err
	}

	total := sum(t.Numbers(domain.FieldTotalEnrollment))
	if total == 0 {
		err = apperrors.NewMetricError(name, "zero total enrollment")
		return domain.Scalar{}, err
	}

	value := 100 * sum(t.Numbers(domain.FieldConsumersWithAPTC)) / total
	return domain.Scalar{Name: name, Value: value, Unit: domain.UnitPercent}, nil
}

// ParticipatingStates counts the distinct states present in the table.
func (e *Engine) ParticipatingStates(ctx context.Context, t *domain.Table) (s domain.Scalar, err error) {
	const name = "participating_states"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireText(t, name, domain.FieldState); err != nil {
		return domain.Scalar{}, err
	}

	seen := make(map[string]bool)
	for _, state := range t.Strings(domain.FieldState) {
		if state != "" {
			seen[state] = true
		}
	}
	return domain.Scalar{Name: name, Value: float64(len(seen)), Unit: domain.UnitCount}, nil
}

// AverageAPTC is the average tax credit among consumers receiving one,
// weighted by how many consumers each row's average covers.
func (e *Engine) AverageAPTC(ctx context.Context, t *domain.Table) (s domain.Scalar, err error) {
	const name = "average_aptc"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	value, err := e.weightedMean(t, name, domain.FieldAverageAPTC, domain.FieldConsumersWithAPTC)
	if err != nil {
		return domain.Scalar{}, err
	}
	return domain.Scalar{Name: name, Value: value, Unit: domain.UnitUSD}, nil
}
