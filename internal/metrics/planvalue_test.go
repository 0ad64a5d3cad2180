package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "marketpulse/internal/errors"
	"marketpulse/pkg/contracts/domain"
)

func planDesignTable(t *testing.T) *domain.Table {
	// Third row is an AI/AN zero cost sharing variant: excluded from the
	// cost aggregates, still counted wherever selections are summed.
	return buildTable(t, domain.CategoryPlanDesign,
		text(domain.FieldMetalLevel, "Bronze", "Silver", "Silver"),
		num(domain.FieldPlanSelections, 100, 300, 50),
		num(domain.FieldAveragePremium, 350, 450, 450),
		num(domain.FieldDeductible, 7000, 5000, 0),
		num(domain.FieldMOOP, 9000, 8000, 0),
		num(domain.FieldIncludeInCostSharing, 1, 1, 0),
	)
}

func TestSelectionWeightedDeductibleExcludesFlaggedRows(t *testing.T) {
	e := newEngine()
	s, err := e.SelectionWeightedDeductible(context.Background(), planDesignTable(t))
	require.NoError(t, err)

	// (7000*100 + 5000*300) / 400; the zero-deductible AI/AN row would
	// have dragged this down had it been included
	assert.InDelta(t, 5500.0, s.Value, 1e-9)
	assert.Equal(t, domain.UnitUSD, s.Unit)
}

func TestSelectionWeightedMOOP(t *testing.T) {
	e := newEngine()
	s, err := e.SelectionWeightedMOOP(context.Background(), planDesignTable(t))
	require.NoError(t, err)
	assert.InDelta(t, 8250.0, s.Value, 1e-9)
}

func TestSelectionWeightedDeductibleNoCostSharingRows(t *testing.T) {
	table := buildTable(t, domain.CategoryPlanDesign,
		text(domain.FieldMetalLevel, "Silver"),
		num(domain.FieldPlanSelections, 100),
		num(domain.FieldDeductible, 0),
		num(domain.FieldMOOP, 0),
		num(domain.FieldIncludeInCostSharing, 0),
	)

	e := newEngine()
	_, err := e.SelectionWeightedDeductible(context.Background(), table)
	require.Error(t, err)
	assert.True(t, apperrors.IsMetricError(err))
}

func TestPlanValueScore(t *testing.T) {
	e := newEngine()
	s, err := e.PlanValueScore(context.Background(), planDesignTable(t))
	require.NoError(t, err)

	require.Equal(t, []string{"Bronze", "Silver"}, s.Keys())
	assert.Equal(t, domain.UnitRatio, s.Unit)

	// Bronze is most expensive on every axis: score 0.
	assert.InDelta(t, 0.0, s.Points[0].Value, 1e-9)
	// Silver: premium 450/450 max, deductible 5000/7000, moop 8000/9000:
	// ((1-1) + (1-5000/7000) + (1-8000/9000)) / 3
	expected := ((1 - 1.0) + (1 - 5000.0/7000.0) + (1 - 8000.0/9000.0)) / 3
	assert.InDelta(t, expected, s.Points[1].Value, 1e-9)

	for _, p := range s.Points {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.LessOrEqual(t, p.Value, 1.0)
	}
}

func TestPlanValueScoreSilverMax(t *testing.T) {
	// Silver costs more than Bronze on every axis here, so Bronze scores
	// higher; ordering still follows first appearance, not score.
	table := buildTable(t, domain.CategoryPlanDesign,
		text(domain.FieldMetalLevel, "Silver", "Bronze"),
		num(domain.FieldPlanSelections, 100, 100),
		num(domain.FieldAveragePremium, 500, 400),
		num(domain.FieldDeductible, 6000, 3000),
		num(domain.FieldMOOP, 9000, 4500),
		num(domain.FieldIncludeInCostSharing, 1, 1),
	)

	e := newEngine()
	s, err := e.PlanValueScore(context.Background(), table)
	require.NoError(t, err)

	require.Equal(t, []string{"Silver", "Bronze"}, s.Keys())
	assert.InDelta(t, 0.0, s.Points[0].Value, 1e-9)
	expected := ((1 - 400.0/500.0) + (1 - 3000.0/6000.0) + (1 - 4500.0/9000.0)) / 3
	assert.InDelta(t, expected, s.Points[1].Value, 1e-9)
}

func TestPlanValueScoreNilTable(t *testing.T) {
	e := newEngine()
	_, err := e.PlanValueScore(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsMetricError(err))
}
