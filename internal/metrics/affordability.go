package metrics

import (
	"context"
	"time"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

// AffordabilityRatio is the net premium as a share of monthly median
// household income, averaged over counties weighted by enrollment. Median
// income arrives as an annual figure; counties without one are skipped.
func (e *Engine) AffordabilityRatio(ctx context.Context, county *domain.Table) (s domain.Scalar, err error) {
	const name = "affordability_ratio"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	if err = requireNumeric(county, name,
		domain.FieldAveragePremiumAfterAPTC, domain.FieldMedianIncome, domain.FieldTotalEnrollment); err != nil {
		return domain.Scalar{}, err
	}

	net := county.Numbers(domain.FieldAveragePremiumAfterAPTC)
	income := county.Numbers(domain.FieldMedianIncome)
	weights := county.Numbers(domain.FieldTotalEnrollment)

	var weightedSum, weightSum float64
	survivors := 0
	for i := range net {
		if income[i] == 0 {
			continue
		}
		monthly := income[i] / 12
		weightedSum += net[i] / monthly * weights[i]
		weightSum += weights[i]
		survivors++
	}

	if survivors == 0 {
		err = apperrors.NewMetricError(name, "no counties with income data")
		return domain.Scalar{}, err
	}
	if weightSum == 0 {
		err = apperrors.NewMetricError(name, "zero total weight")
		return domain.Scalar{}, err
	}

	return domain.Scalar{Name: name, Value: 100 * weightedSum / weightSum, Unit: domain.UnitPercent}, nil
}

// GrossNetPremiumGap is the subsidy bite: the enrollment-weighted average
// premium reduction from APTC, as a share of the gross premium.
func (e *Engine) GrossNetPremiumGap(ctx context.Context, t *domain.Table) (s domain.Scalar, err error) {
	const name = "gross_net_premium_gap"
	start := time.Now()
	defer func() { e.finish(ctx, name, start, err) }()

	gross, err := e.weightedMean(t, name, domain.FieldAveragePremium, domain.FieldTotalEnrollment)
	if err != nil {
		return domain.Scalar{}, err
	}
	net, err := e.weightedMean(t, name, domain.FieldAveragePremiumAfterAPTC, domain.FieldTotalEnrollment)
	if err != nil {
		return domain.Scalar{}, err
	}
	if gross == 0 {
		err = apperrors.NewMetricError(name, "zero gross premium")
		return domain.Scalar{}, err
	}

	return domain.Scalar{Name: name, Value: 100 * (gross - net) / gross, Unit: domain.UnitPercent}, nil
}
