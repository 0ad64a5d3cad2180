package domain

import (
	"time"
)

// Report is the assembled output of one metric suite run: the scalars,
// distributions, rankings and trends computed over a bundle, plus the
// loading diagnostics of each source table. Metrics that were undefined
// for the input data are simply absent.
type Report struct {
	GeneratedAt   time.Time                `json:"generated_at"`
	TopN          int                      `json:"top_n"`
	KPIs          []Scalar                 `json:"kpis,omitempty"`
	Distributions []GroupedSeries          `json:"distributions,omitempty"`
	Rankings      []GroupedSeries          `json:"rankings,omitempty"`
	Trends        []Trend                  `json:"trends,omitempty"`
	Diagnostics   map[Category]Diagnostics `json:"diagnostics,omitempty"`
}

// KPI returns the named scalar, false when it was not computed.
func (r *Report) KPI(name string) (Scalar, bool) {
	for _, s := range r.KPIs {
		if s.Name == name {
			return s, true
		}
	}
	return Scalar{}, false
}

// AddKPI appends a scalar to the report.
func (r *Report) AddKPI(s Scalar) {
	r.KPIs = append(r.KPIs, s)
}

// AddDistribution appends a grouped series to the report.
func (r *Report) AddDistribution(s GroupedSeries) {
	r.Distributions = append(r.Distributions, s)
}

// AddRanking appends a ranking series to the report.
func (r *Report) AddRanking(s GroupedSeries) {
	r.Rankings = append(r.Rankings, s)
}

// AddTrend appends a trend to the report.
func (r *Report) AddTrend(t Trend) {
	r.Trends = append(r.Trends, t)
}

// AddDiagnostics records one source table's loading diagnostics.
func (r *Report) AddDiagnostics(category Category, d Diagnostics) {
	if r.Diagnostics == nil {
		r.Diagnostics = make(map[Category]Diagnostics)
	}
	r.Diagnostics[category] = d
}
