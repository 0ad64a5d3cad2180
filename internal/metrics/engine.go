package metrics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	apperrors "marketpulse/internal/errors"
	"marketpulse/internal/infrastructure"
	"marketpulse/pkg/contracts/domain"
)

// Engine computes derived metrics over normalized tables. Computation is
// pure: identical input tables always yield identical results, and the
// engine never mutates its inputs. The logger and telemetry bundle carry
// the side effects.
type Engine struct {
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches pipeline telemetry. A nil bundle disables recording.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates a metrics engine.
func New(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// finish records one computation's outcome. Undefined metrics are expected
// during partial-data runs, so they log at debug, not error.
func (e *Engine) finish(ctx context.Context, name string, start time.Time, err error) {
	e.metrics.RecordMetric(ctx, name, time.Since(start), err)
	if err != nil {
		e.logger.DebugContext(ctx, "metric undefined",
			slog.String("metric", name),
			slog.String("reason", err.Error()))
	}
}

// requireNumeric verifies the table exists and carries the named numeric
// fields. A violation is a MetricError, not a panic: callers feed tables of
// mixed vintages and absent columns are an expected condition.
func requireNumeric(t *domain.Table, metric string, fields ...string) error {
	if t == nil {
		return apperrors.NewMetricError(metric, "no table")
	}
	for _, field := range fields {
		if !t.HasField(field) || !t.IsNumeric(field) {
			return apperrors.NewMetricError(metric, "field "+field+" unavailable")
		}
	}
	return nil
}

// requireText is requireNumeric for text fields.
func requireText(t *domain.Table, metric string, fields ...string) error {
	if t == nil {
		return apperrors.NewMetricError(metric, "no table")
	}
	for _, field := range fields {
		if !t.HasField(field) || t.IsNumeric(field) {
			return apperrors.NewMetricError(metric, "field "+field+" unavailable")
		}
	}
	return nil
}

// groupSum sums valueField grouped by keyField, preserving first-appearance
// order of the keys. Rows with an empty key are skipped.
func groupSum(t *domain.Table, keyField, valueField string) []domain.SeriesPoint {
	keys := t.Strings(keyField)
	values := t.Numbers(valueField)

	index := make(map[string]int)
	var points []domain.SeriesPoint
	for i, key := range keys {
		if key == "" {
			continue
		}
		at, seen := index[key]
		if !seen {
			index[key] = len(points)
			points = append(points, domain.SeriesPoint{Key: key})
			at = len(points) - 1
		}
		points[at].Value += values[i]
	}
	return points
}

// withShares fills each point's Share as its percentage of the total. A
// non-positive total leaves the shares zero.
func withShares(points []domain.SeriesPoint) []domain.SeriesPoint {
	total := 0.0
	for _, p := range points {
		total += p.Value
	}
	if total <= 0 {
		return points
	}
	for i := range points {
		points[i].Share = 100 * points[i].Value / total
	}
	return points
}

// rank orders points descending by value with ties broken by key ascending,
// and truncates to n. n <= 0 keeps every point.
func rank(points []domain.SeriesPoint, n int) []domain.SeriesPoint {
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Key < points[j].Key
	})
	if n > 0 && len(points) > n {
		points = points[:n]
	}
	return points
}

// sum adds a numeric column.
func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
