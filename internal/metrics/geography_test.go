package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

func TestMarketPenetration(t *testing.T) {
	table := buildTable(t, domain.CategoryCountyLevel,
		num(domain.FieldTotalEnrollment, 5000, 3000),
		num(domain.FieldPopulation, 100000, 60000),
	)

	e := newEngine()
	s, err := e.MarketPenetration(context.Background(), table)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, s.Value, 1e-9)
	assert.Equal(t, domain.UnitPercent, s.Unit)
}

func TestMarketPenetrationZeroPopulation(t *testing.T) {
	table := buildTable(t, domain.CategoryCountyLevel,
		num(domain.FieldTotalEnrollment, 5000),
		num(domain.FieldPopulation, 0),
	)

	e := newEngine()
	_, err := e.MarketPenetration(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsMetricError(err))
}

func TestMarketPenetrationMissingPopulationColumn(t *testing.T) {
	table := buildTable(t, domain.CategoryCountyLevel,
		num(domain.FieldTotalEnrollment, 5000),
	)

	e := newEngine()
	_, err := e.MarketPenetration(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsMetricError(err))
}

func TestRelativePenetration(t *testing.T) {
	// TX aggregate rate: (5000+1000)/(100000+100000) = 0.03
	table := buildTable(t, domain.CategoryCountyLevel,
		text(domain.FieldState, "TX", "TX"),
		text(domain.FieldCounty, "Harris", "Dallas"),
		num(domain.FieldTotalEnrollment, 5000, 1000),
		num(domain.FieldPopulation, 100000, 100000),
	)

	e := newEngine()
	s, err := e.RelativePenetration(context.Background(), table)
	require.NoError(t, err)

	require.Len(t, s.Points, 2)
	assert.Equal(t, "TX/Harris", s.Points[0].Key)
	assert.InDelta(t, 0.05/0.03, s.Points[0].Value, 1e-9)
	assert.InDelta(t, 0.01/0.03, s.Points[1].Value, 1e-9)
	assert.Equal(t, domain.UnitRatio, s.Unit)

	for _, p := range s.Points {
		assert.False(t, math.IsNaN(p.Value) || math.IsInf(p.Value, 0))
	}
}

func TestRelativePenetrationSkipsMissingPopulation(t *testing.T) {
	table := buildTable(t, domain.CategoryCountyLevel,
		text(domain.FieldState, "TX", "TX"),
		text(domain.FieldCounty, "Harris", "Loving"),
		num(domain.FieldTotalEnrollment, 5000, 3),
		num(domain.FieldPopulation, 100000, 0),
	)

	e := newEngine()
	s, err := e.RelativePenetration(context.Background(), table)
	require.NoError(t, err)
	require.Len(t, s.Points, 1)
	assert.Equal(t, "TX/Harris", s.Points[0].Key)
}

func TestAffordabilityRatio(t *testing.T) {
	// monthly incomes 5000 and 4000; shares 0.03 and 0.05
	table := buildTable(t, domain.CategoryCountyLevel,
		num(domain.FieldAveragePremiumAfterAPTC, 150, 200),
		num(domain.FieldMedianIncome, 60000, 48000),
		num(domain.FieldTotalEnrollment, 1000, 3000),
	)

	e := newEngine()
	s, err := e.AffordabilityRatio(context.Background(), table)
	require.NoError(t, err)

	// 100 * (0.03*1000 + 0.05*3000) / 4000 = 4.5
	assert.InDelta(t, 4.5, s.Value, 1e-9)
	assert.Equal(t, domain.UnitPercent, s.Unit)
}

func TestAffordabilityRatioNoIncomeData(t *testing.T) {
	table := buildTable(t, domain.CategoryCountyLevel,
		num(domain.FieldAveragePremiumAfterAPTC, 150),
		num(domain.FieldMedianIncome, 0),
		num(domain.FieldTotalEnrollment, 1000),
	)

	e := newEngine()
	_, err := e.AffordabilityRatio(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsMetricError(err))
}

func TestGrossNetPremiumGap(t *testing.T) {
	table := buildTable(t, domain.CategoryStateLevel,
		num(domain.FieldAveragePremium, 500, 500),
		num(domain.FieldAveragePremiumAfterAPTC, 100, 200),
		num(domain.FieldTotalEnrollment, 1000, 1000),
	)

	e := newEngine()
	s, err := e.GrossNetPremiumGap(context.Background(), table)
	require.NoError(t, err)

	// gross 500, net 150: gap 70%
	assert.InDelta(t, 70.0, s.Value, 1e-9)
}

func TestGrossNetPremiumGapZeroGross(t *testing.T) {
	table := buildTable(t, domain.CategoryStateLevel,
		num(domain.FieldAveragePremium, 0),
		num(domain.FieldAveragePremiumAfterAPTC, 0),
		num(domain.FieldTotalEnrollment, 1000),
	)

	e := newEngine()
	_, err := e.GrossNetPremiumGap(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsMetricError(err))
}
