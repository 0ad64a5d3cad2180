package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

func kpiStateTable(t *testing.T) *domain.Table {
	return buildTable(t, domain.CategoryStateLevel,
		text(domain.FieldState, "TX", "FL", "CA"),
		num(domain.FieldTotalEnrollment, 1000, 3000, 2000),
		num(domain.FieldAveragePremium, 600, 500, 400),
		num(domain.FieldConsumersWithAPTC, 800, 2700, 1500),
		num(domain.FieldAverageAPTC, 450, 520, 380),
	)
}

func TestTotalEnrollment(t *testing.T) {
	e := newEngine()
	s, err := e.TotalEnrollment(context.Background(), kpiStateTable(t))
	require.NoError(t, err)
	assert.Equal(t, 6000.0, s.Value)
	assert.Equal(t, domain.UnitCount, s.Unit)
}

func TestTotalEnrollmentNilTable(t *testing.T) {
	e := newEngine()
	_, err := e.TotalEnrollment(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsMetricError(err))
}

func TestAverageMonthlyPremiumIsEnrollmentWeighted(t *testing.T) {
	e := newEngine()
	s, err := e.AverageMonthlyPremium(context.Background(), kpiStateTable(t))
	require.NoError(t, err)

	// (600*1000 + 500*3000 + 400*2000) / 6000, not the unweighted 500
	assert.InDelta(t, 483.333333, s.Value, 1e-4)
	assert.Equal(t, domain.UnitUSD, s.Unit)
}

func TestPercentWithAPTC(t *testing.T) {
	e := newEngine()
	s, err := e.PercentWithAPTC(context.Background(), kpiStateTable(t))
	require.NoError(t, err)

	// 100 * 5000 / 6000
	assert.InDelta(t, 83.333333, s.Value, 1e-4)
	assert.Equal(t, domain.UnitPercent, s.Unit)
}

func TestPercentWithAPTCZeroEnrollment(t *testing.T) {
	table := buildTable(t, domain.CategoryStateLevel,
		num(domain.FieldTotalEnrollment, 0, 0),
		num(domain.FieldConsumersWithAPTC, 0, 0),
	)

	e := newEngine()
	_, err := e.PercentWithAPTC(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsMetricError(err))
}

func TestParticipatingStates(t *testing.T) {
	table := buildTable(t, domain.CategoryStateLevel,
		text(domain.FieldState, "TX", "FL", "TX", "", "CA"),
		num(domain.FieldTotalEnrollment, 1, 2, 3, 4, 5),
	)

	e := newEngine()
	s, err := e.ParticipatingStates(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Value)
}

func TestAverageAPTCWeightedByAPTCConsumers(t *testing.T) {
	e := newEngine()
	s, err := e.AverageAPTC(context.Background(), kpiStateTable(t))
	require.NoError(t, err)

	// (450*800 + 520*2700 + 380*1500) / 5000
	assert.InDelta(t, 466.8, s.Value, 1e-9)
}
