// Package metrics derives enrollment, affordability and plan-value
// aggregates from normalized marketplace tables.
//
// Every computation is pure over its input tables. Undefined results, a
// zero denominator or an empty eligible set, surface as MetricErrors and
// never as NaN or infinity. Weighted shares are two-step averages: the
// per-row percentage first, then a weighted mean of those percentages,
// which is not the ratio of the column totals.
package metrics
