package domain

// Unit tags a metric value so exporters can format it without guessing.
type Unit string

const (
	UnitCount   Unit = "count"
	UnitPercent Unit = "percent"
	UnitUSD     Unit = "usd"
	UnitRatio   Unit = "ratio"
	UnitPlans   Unit = "plans"
)

// Scalar is a single named metric value, e.g. total enrollment or the
// enrollment-weighted average premium.
type Scalar struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// SeriesPoint is one group of a grouped aggregate. Share is the point's
// percentage of the series total where that is meaningful, 0 otherwise.
type SeriesPoint struct {
	Key   string  `json:"key" validate:"required"`
	Value float64 `json:"value"`
	Share float64 `json:"share,omitempty"`
}

// GroupedSeries is an ordered grouped aggregate. Point order is part of the
// contract: first-appearance order of the group keys unless the producing
// metric documents a sort (rankings sort descending by value with ties
// broken by key ascending).
type GroupedSeries struct {
	Name   string        `json:"name" validate:"required"`
	Unit   Unit          `json:"unit"`
	Points []SeriesPoint `json:"points"`
}

// Total sums the point values.
func (s GroupedSeries) Total() float64 {
	total := 0.0
	for _, p := range s.Points {
		total += p.Value
	}
	return total
}

// Keys returns the point keys in series order.
func (s GroupedSeries) Keys() []string {
	keys := make([]string, len(s.Points))
	for i, p := range s.Points {
		keys[i] = p.Key
	}
	return keys
}

// TrendPoint is one year of a multi-year trend. Growth is the percentage
// change against the previous point and is only meaningful when
// GrowthDefined is true: the first point of a trend and any point following
// a zero value carry no growth figure rather than an infinity.
type TrendPoint struct {
	Year          int     `json:"year" validate:"required"`
	Value         float64 `json:"value"`
	Growth        float64 `json:"growth,omitempty"`
	GrowthDefined bool    `json:"growth_defined"`
}

// Trend is a year-ascending series of values with year-over-year growth.
type Trend struct {
	Name   string       `json:"name" validate:"required"`
	Unit   Unit         `json:"unit"`
	Points []TrendPoint `json:"points"`
}

// Years returns the trend years in ascending order.
func (t Trend) Years() []int {
	years := make([]int, len(t.Points))
	for i, p := range t.Points {
		years[i] = p.Year
	}
	return years
}

// Latest returns the most recent point, or false for an empty trend.
func (t Trend) Latest() (TrendPoint, bool) {
	if len(t.Points) == 0 {
		return TrendPoint{}, false
	}
	return t.Points[len(t.Points)-1], true
}
