package services

import (
	"context"

	"bikeshare-platform/internal/analytics"
	"bikeshare-platform/internal/models"
	"bikeshare-platform/pkg/logging"
	"bikeshare-platform/pkg/metrics"
)

// AnalyticsService computes filtered views, aggregate series and summary
// metrics over the shared enriched table. Each call is one full
// recomputation pass: filter, then reduce.
type AnalyticsService struct {
	data    *DatasetService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(data *DatasetService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalyticsService {
	return &AnalyticsService{
		data:    data,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Rentals returns a page of the filtered table along with the total number
// of matching rows. When the dataset source can evaluate the filter itself
// the page comes straight from it; otherwise the in-memory table is
// filtered and sliced here.
func (s *AnalyticsService) Rentals(ctx context.Context, spec models.FilterSpec, limit, offset int) ([]models.EnrichedRental, int, error) {
	if rentals, total, ok, err := s.data.QueryRentals(ctx, spec, limit, offset); ok {
		if err != nil {
			return nil, 0, err
		}
		s.metrics.FilteredRowCount.Observe(float64(total))
		return rentals, total, nil
	}

	filtered, err := s.filtered(ctx, spec)
	if err != nil {
		return nil, 0, err
	}

	total := len(filtered)
	if offset >= total {
		return []models.EnrichedRental{}, total, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return filtered[offset:end], total, nil
}

// Aggregate filters the table and reduces a metric per group of the
// requested dimension. An empty filtered set yields an empty series.
func (s *AnalyticsService) Aggregate(ctx context.Context, spec models.FilterSpec, dim analytics.Dimension, metric analytics.Metric, agg analytics.AggKind) (analytics.Result, error) {
	filtered, err := s.filtered(ctx, spec)
	if err != nil {
		return nil, err
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration.WithLabelValues(string(dim)))
	result, err := analytics.Aggregate(filtered, dim, metric, agg)
	timer.ObserveDuration()

	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "[ANALYTICS_AGGREGATE] Aggregation computed", logging.Fields{
		"dimension": string(dim),
		"metric":    string(metric),
		"agg":       string(agg),
		"rows_in":   len(filtered),
		"groups":    len(result),
	})

	return result, nil
}

// UserTypeBreakdown filters the table, melts the casual and registered
// columns into a labeled count column and reduces per (group, user type).
func (s *AnalyticsService) UserTypeBreakdown(ctx context.Context, spec models.FilterSpec, dim analytics.Dimension, agg analytics.AggKind) ([]analytics.UserTypeAggregate, error) {
	filtered, err := s.filtered(ctx, spec)
	if err != nil {
		return nil, err
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration.WithLabelValues(string(dim)))
	result, err := analytics.MeltAndAggregate(filtered, dim, agg)
	timer.ObserveDuration()

	return result, err
}

// Summary computes the headline metrics for a filtered set. Mean and
// percentage metrics come back nil when the set is empty.
func (s *AnalyticsService) Summary(ctx context.Context, spec models.FilterSpec) (analytics.Summary, error) {
	filtered, err := s.filtered(ctx, spec)
	if err != nil {
		return analytics.Summary{}, err
	}

	return analytics.Summarize(filtered), nil
}

// Filtered returns the full filtered table, for exports.
func (s *AnalyticsService) Filtered(ctx context.Context, spec models.FilterSpec) ([]models.EnrichedRental, error) {
	return s.filtered(ctx, spec)
}

func (s *AnalyticsService) filtered(ctx context.Context, spec models.FilterSpec) ([]models.EnrichedRental, error) {
	table, err := s.data.Table(ctx)
	if err != nil {
		return nil, err
	}

	filtered := analytics.Apply(table, spec)
	s.metrics.FilteredRowCount.Observe(float64(len(filtered)))

	return filtered, nil
}
