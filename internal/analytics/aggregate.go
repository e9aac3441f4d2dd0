package analytics

import (
	"fmt"
	"sort"
	"strconv"

	"bikeshare-platform/internal/models"
)

// Dimension is a grouping column of the enriched table.
type Dimension string

const (
	DimMonth      Dimension = "month"
	DimWeekday    Dimension = "weekday"
	DimSeason     Dimension = "season"
	DimWeather    Dimension = "weather"
	DimYear       Dimension = "year"
	DimWorkingDay Dimension = "working_day"
)

// Metric is a numeric column of the enriched table.
type Metric string

const (
	MetricTotal       Metric = "cnt"
	MetricCasual      Metric = "casual"
	MetricRegistered  Metric = "registered"
	MetricTemperature Metric = "temp"
	MetricHumidity    Metric = "hum"
)

// AggKind selects the reducer applied within each group.
type AggKind string

const (
	AggMean AggKind = "mean"
	AggSum  AggKind = "sum"
)

// ParseDimension validates a query-supplied dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case DimMonth, DimWeekday, DimSeason, DimWeather, DimYear, DimWorkingDay:
		return d, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// ParseMetric validates a query-supplied metric name.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricTotal, MetricCasual, MetricRegistered, MetricTemperature, MetricHumidity:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// ParseAggKind validates a query-supplied aggregation name.
func ParseAggKind(s string) (AggKind, error) {
	switch a := AggKind(s); a {
	case AggMean, AggSum:
		return a, nil
	}
	return "", fmt.Errorf("unknown aggregation %q", s)
}

// Row is one (group label, reduced value) pair of an aggregation result.
type Row struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Result is an ordered aggregation series ready for charting. The order is
// the canonical one for the dimension when defined (calendar months,
// Monday-first weekdays, Spring through Winter seasons), otherwise first
// appearance in the input.
type Result []Row

// Aggregate groups rows by a dimension and reduces a metric within each
// group. Zero input rows yield an empty result, never an error: callers
// treat an empty Result as "nothing to display".
func Aggregate(rows []models.EnrichedRental, dim Dimension, metric Metric, agg AggKind) (Result, error) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string

	for i := range rows {
		label := dimensionValue(&rows[i], dim)
		if _, seen := counts[label]; !seen {
			order = append(order, label)
		}
		sums[label] += metricValue(&rows[i], metric)
		counts[label]++
	}

	sortLabels(order, dim)

	result := make(Result, 0, len(order))
	for _, label := range order {
		value := sums[label]
		if agg == AggMean {
			value /= float64(counts[label])
		}
		result = append(result, Row{Label: label, Value: value})
	}

	return result, nil
}

// GroupSizes returns the number of rows behind each group of an
// aggregation, keyed by label. Used for consistency checks and tooltips.
func GroupSizes(rows []models.EnrichedRental, dim Dimension) map[string]int {
	counts := make(map[string]int)
	for i := range rows {
		counts[dimensionValue(&rows[i], dim)]++
	}
	return counts
}

func dimensionValue(r *models.EnrichedRental, dim Dimension) string {
	switch dim {
	case DimMonth:
		return r.MonthName
	case DimWeekday:
		return r.WeekdayName
	case DimSeason:
		return r.SeasonName
	case DimWeather:
		return r.WeatherName
	case DimYear:
		return strconv.Itoa(r.Year)
	case DimWorkingDay:
		if r.WorkingDay {
			return "Working Day"
		}
		return "Non-Working Day"
	}
	return ""
}

func metricValue(r *models.EnrichedRental, metric Metric) float64 {
	switch metric {
	case MetricTotal:
		return float64(r.Total)
	case MetricCasual:
		return float64(r.Casual)
	case MetricRegistered:
		return float64(r.Registered)
	case MetricTemperature:
		return r.Temperature
	case MetricHumidity:
		return r.Humidity
	}
	return 0
}

// canonicalOrder returns the fixed presentation order for a dimension, or
// nil when groups should keep their first-seen order.
func canonicalOrder(dim Dimension) []string {
	switch dim {
	case DimMonth:
		return models.MonthOrder
	case DimWeekday:
		return models.WeekdayOrder
	case DimSeason:
		return models.SeasonOrder
	}
	return nil
}

// sortLabels reorders labels into the canonical order for the dimension,
// leaving them untouched when no canonical order exists.
func sortLabels(labels []string, dim Dimension) {
	canonical := canonicalOrder(dim)
	if canonical == nil {
		return
	}

	rank := make(map[string]int, len(canonical))
	for i, label := range canonical {
		rank[label] = i
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return rank[labels[i]] < rank[labels[j]]
	})
}
