package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bikeshare-platform/internal/analytics"
	"bikeshare-platform/internal/config"
	"bikeshare-platform/internal/dataset"
	"bikeshare-platform/internal/models"
	"bikeshare-platform/internal/repository"
	"bikeshare-platform/pkg/logging"
	"bikeshare-platform/pkg/metrics"
)

// DatasetService owns access to the enriched rental table. The table is
// loaded once per process and shared read-only afterwards; every request
// works on the same immutable slice.
type DatasetService struct {
	cache   *dataset.Cache
	repo    repository.RentalRepository
	source  string
	path    string
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDatasetService creates a dataset service. repo may be nil when the
// source is csv.
func NewDatasetService(
	cache *dataset.Cache,
	repo repository.RentalRepository,
	cfg config.DatasetConfig,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DatasetService {
	return &DatasetService{
		cache:   cache,
		repo:    repo,
		source:  cfg.Source,
		path:    cfg.Path,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Table returns the enriched table, loading it on first use. Load or
// enrichment failures are surfaced to the caller; no partial table is
// ever returned.
func (s *DatasetService) Table(ctx context.Context) ([]models.EnrichedRental, error) {
	timer := s.metrics.NewTimer(s.metrics.DatasetLoadDuration)

	var (
		table []models.EnrichedRental
		err   error
	)

	switch s.source {
	case config.SourcePostgres:
		table, err = s.repo.ListAll(ctx)
	default:
		table, err = s.cache.Get(s.path)
	}

	if err != nil {
		s.metrics.RecordDatasetLoadError(classifyLoadError(err))
		s.logger.Error(ctx, "[DATASET_LOAD_ERROR] Failed to load dataset", logging.Fields{
			"source": s.source,
			"path":   s.path,
		}, err)
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	timer.ObserveDuration()
	s.metrics.DatasetRowsLoaded.Set(float64(len(table)))

	return table, nil
}

// QueryRentals returns one page of the table matching the filter. On the
// postgres source the predicates and pagination are pushed into the query;
// the CSV source reports ok=false and callers page the in-memory table
// themselves.
func (s *DatasetService) QueryRentals(ctx context.Context, spec models.FilterSpec, limit, offset int) ([]models.EnrichedRental, int, bool, error) {
	if s.source != config.SourcePostgres {
		return nil, 0, false, nil
	}

	rentals, total, err := s.repo.GetRentals(ctx, repository.RentalFilter{
		Year:    spec.Year,
		Season:  spec.Season,
		Weather: spec.Weather,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		s.logger.Error(ctx, "[DATASET_QUERY_ERROR] Failed to query snapshot", logging.Fields{
			"filter": spec,
		}, err)
		return nil, 0, true, fmt.Errorf("failed to query snapshot: %w", err)
	}

	return rentals, total, true, nil
}

// RentalByDate returns the record for a single day, from the snapshot on
// the postgres source or by scanning the in-memory table otherwise. A
// missing day is a repository.NotFoundError.
func (s *DatasetService) RentalByDate(ctx context.Context, date time.Time) (*models.EnrichedRental, error) {
	if s.source == config.SourcePostgres {
		return s.repo.GetRentalByDate(ctx, date)
	}

	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	for i := range table {
		if table[i].Date.Equal(date) {
			rental := table[i]
			return &rental, nil
		}
	}

	return nil, &repository.NotFoundError{
		Resource: "daily_rental",
		ID:       date.Format("2006-01-02"),
	}
}

// HealthCheck verifies the backing dataset source. The CSV source has no
// external dependency to probe.
func (s *DatasetService) HealthCheck(ctx context.Context) error {
	if s.source == config.SourcePostgres {
		return s.repo.HealthCheck(ctx)
	}
	return nil
}

// FilterOptions returns the selectable filter values present in the table.
func (s *DatasetService) FilterOptions(ctx context.Context) (analytics.FilterOptions, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return analytics.FilterOptions{}, err
	}
	return analytics.Options(table), nil
}

func classifyLoadError(err error) string {
	var (
		loadErr  *dataset.LoadError
		parseErr *dataset.ParseError
		mapErr   *models.MappingError
	)

	switch {
	case errors.As(err, &loadErr):
		return "load_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &mapErr):
		return "mapping_error"
	default:
		return "internal_error"
	}
}
