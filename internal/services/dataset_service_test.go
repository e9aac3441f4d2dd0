package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"bikeshare-platform/internal/config"
	"bikeshare-platform/internal/dataset"
	"bikeshare-platform/internal/models"
	"bikeshare-platform/internal/repository"
	"bikeshare-platform/pkg/logging"
	"bikeshare-platform/pkg/metrics"
)

// One collector per test binary: promauto registers into the default
// registry and re-registration panics.
var testMetrics = metrics.NewCollector("services_test")

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("services-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func enrichedFixture(t *testing.T) []models.EnrichedRental {
	t.Helper()

	records := []models.RentalRecord{
		{
			Date:        time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
			SeasonCode:  1,
			MonthCode:   1,
			WeekdayCode: 6,
			WeatherCode: 2,
			Casual:      331,
			Registered:  654,
			Total:       985,
		},
		{
			Date:        time.Date(2012, 7, 4, 0, 0, 0, 0, time.UTC),
			SeasonCode:  3,
			YearCode:    1,
			MonthCode:   7,
			WeekdayCode: 3,
			WeatherCode: 1,
			Casual:      1200,
			Registered:  4100,
			Total:       5300,
		},
	}

	out := make([]models.EnrichedRental, 0, len(records))
	for _, rec := range records {
		enriched, err := rec.Enrich()
		if err != nil {
			t.Fatalf("bad fixture: %v", err)
		}
		out = append(out, *enriched)
	}
	return out
}

// stubRepo backs the postgres source without a database.
type stubRepo struct {
	table      []models.EnrichedRental
	listErr    error
	listHits   int
	healthErr  error
	lastFilter repository.RentalFilter
	byDateHits int
}

func (s *stubRepo) CreateRentalsBatch(ctx context.Context, rentals []models.EnrichedRental) error {
	return nil
}

func (s *stubRepo) GetRentals(ctx context.Context, filter repository.RentalFilter) ([]models.EnrichedRental, int, error) {
	s.lastFilter = filter
	total := len(s.table)

	rows := s.table
	if filter.Offset < total {
		end := filter.Offset + filter.Limit
		if end > total {
			end = total
		}
		rows = s.table[filter.Offset:end]
	} else {
		rows = nil
	}

	return rows, total, nil
}

func (s *stubRepo) GetRentalByDate(ctx context.Context, date time.Time) (*models.EnrichedRental, error) {
	s.byDateHits++
	for i := range s.table {
		if s.table[i].Date.Equal(date) {
			return &s.table[i], nil
		}
	}
	return nil, &repository.NotFoundError{Resource: "daily_rental", ID: date.Format("2006-01-02")}
}

func (s *stubRepo) ListAll(ctx context.Context) ([]models.EnrichedRental, error) {
	s.listHits++
	return s.table, s.listErr
}

func (s *stubRepo) HealthCheck(ctx context.Context) error {
	return s.healthErr
}

func TestTableFromCSVSource(t *testing.T) {
	table := enrichedFixture(t)
	loads := 0
	cache := dataset.NewCache(func(path string) ([]models.EnrichedRental, error) {
		loads++
		return table, nil
	})

	cfg := config.DatasetConfig{Path: "day.csv", Source: config.SourceCSV}
	svc := NewDatasetService(cache, nil, cfg, testLogger(), testMetrics)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		got, err := svc.Table(ctx)
		if err != nil {
			t.Fatalf("Table() error = %v", err)
		}
		if len(got) != len(table) {
			t.Fatalf("Table() returned %d rows, want %d", len(got), len(table))
		}
	}

	if loads != 1 {
		t.Errorf("loader invoked %d times, want 1", loads)
	}
}

func TestTableFromPostgresSource(t *testing.T) {
	repo := &stubRepo{table: enrichedFixture(t)}
	cfg := config.DatasetConfig{Source: config.SourcePostgres}
	svc := NewDatasetService(nil, repo, cfg, testLogger(), testMetrics)

	got, err := svc.Table(context.Background())
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Table() returned %d rows, want 2", len(got))
	}
	if repo.listHits != 1 {
		t.Errorf("ListAll called %d times, want 1", repo.listHits)
	}
}

func TestTableLoadFailure(t *testing.T) {
	cache := dataset.NewCache(func(path string) ([]models.EnrichedRental, error) {
		return nil, &dataset.LoadError{Path: path, Reason: "cannot open file"}
	})

	cfg := config.DatasetConfig{Path: "missing.csv", Source: config.SourceCSV}
	svc := NewDatasetService(cache, nil, cfg, testLogger(), testMetrics)

	_, err := svc.Table(context.Background())
	if err == nil {
		t.Fatal("Table() expected error")
	}

	var loadErr *dataset.LoadError
	if !errors.As(err, &loadErr) {
		t.Errorf("error %v does not wrap LoadError", err)
	}
}

func TestFilterOptionsFromTable(t *testing.T) {
	cache := dataset.NewCache(func(path string) ([]models.EnrichedRental, error) {
		return enrichedFixture(t), nil
	})

	cfg := config.DatasetConfig{Path: "day.csv", Source: config.SourceCSV}
	svc := NewDatasetService(cache, nil, cfg, testLogger(), testMetrics)

	opts, err := svc.FilterOptions(context.Background())
	if err != nil {
		t.Fatalf("FilterOptions() error = %v", err)
	}

	if len(opts.Years) != 2 || opts.Years[0] != 2011 {
		t.Errorf("Years = %v, want [2011 2012]", opts.Years)
	}
	if len(opts.Weathers) != 2 {
		t.Errorf("Weathers = %v, want 2 values", opts.Weathers)
	}
}

func TestQueryRentalsPushesFilterToRepository(t *testing.T) {
	repo := &stubRepo{table: enrichedFixture(t)}
	cfg := config.DatasetConfig{Source: config.SourcePostgres}
	svc := NewDatasetService(nil, repo, cfg, testLogger(), testMetrics)

	year := 2011
	season := "Spring"
	rows, total, ok, err := svc.QueryRentals(context.Background(), models.FilterSpec{Year: &year, Season: &season}, 1, 1)
	if err != nil {
		t.Fatalf("QueryRentals() error = %v", err)
	}
	if !ok {
		t.Fatal("QueryRentals() ok = false on postgres source")
	}

	if repo.lastFilter.Year == nil || *repo.lastFilter.Year != 2011 {
		t.Errorf("repository filter year = %v, want 2011", repo.lastFilter.Year)
	}
	if repo.lastFilter.Season == nil || *repo.lastFilter.Season != "Spring" {
		t.Errorf("repository filter season = %v, want Spring", repo.lastFilter.Season)
	}
	if repo.lastFilter.Limit != 1 || repo.lastFilter.Offset != 1 {
		t.Errorf("repository pagination = limit %d offset %d, want 1/1", repo.lastFilter.Limit, repo.lastFilter.Offset)
	}

	if total != 2 || len(rows) != 1 {
		t.Errorf("got %d rows of %d total, want 1 of 2", len(rows), total)
	}
}

func TestQueryRentalsDeclinesOnCSVSource(t *testing.T) {
	cache := dataset.NewCache(func(path string) ([]models.EnrichedRental, error) {
		return enrichedFixture(t), nil
	})
	cfg := config.DatasetConfig{Path: "day.csv", Source: config.SourceCSV}
	svc := NewDatasetService(cache, nil, cfg, testLogger(), testMetrics)

	_, _, ok, err := svc.QueryRentals(context.Background(), models.FilterSpec{}, 10, 0)
	if err != nil {
		t.Fatalf("QueryRentals() error = %v", err)
	}
	if ok {
		t.Error("QueryRentals() ok = true on csv source, want false")
	}
}

func TestRentalByDateFromTable(t *testing.T) {
	cache := dataset.NewCache(func(path string) ([]models.EnrichedRental, error) {
		return enrichedFixture(t), nil
	})
	cfg := config.DatasetConfig{Path: "day.csv", Source: config.SourceCSV}
	svc := NewDatasetService(cache, nil, cfg, testLogger(), testMetrics)

	rental, err := svc.RentalByDate(context.Background(), time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RentalByDate() error = %v", err)
	}
	if rental.Total != 985 {
		t.Errorf("Total = %d, want 985", rental.Total)
	}

	_, err = svc.RentalByDate(context.Background(), time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC))
	var notFound *repository.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestRentalByDateFromRepository(t *testing.T) {
	repo := &stubRepo{table: enrichedFixture(t)}
	cfg := config.DatasetConfig{Source: config.SourcePostgres}
	svc := NewDatasetService(nil, repo, cfg, testLogger(), testMetrics)

	rental, err := svc.RentalByDate(context.Background(), time.Date(2012, 7, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RentalByDate() error = %v", err)
	}
	if rental.Total != 5300 {
		t.Errorf("Total = %d, want 5300", rental.Total)
	}
	if repo.byDateHits != 1 {
		t.Errorf("GetRentalByDate called %d times, want 1", repo.byDateHits)
	}
}

func TestHealthCheck(t *testing.T) {
	csvSvc := NewDatasetService(nil, nil, config.DatasetConfig{Path: "day.csv", Source: config.SourceCSV}, testLogger(), testMetrics)
	if err := csvSvc.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() on csv source = %v, want nil", err)
	}

	repo := &stubRepo{healthErr: errors.New("connection refused")}
	pgSvc := NewDatasetService(nil, repo, config.DatasetConfig{Source: config.SourcePostgres}, testLogger(), testMetrics)
	if err := pgSvc.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() on failing postgres source = nil, want error")
	}
}

func TestClassifyLoadError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"load", &dataset.LoadError{Path: "x", Reason: "r"}, "load_error"},
		{"parse", &dataset.ParseError{Line: 2, Field: "dteday"}, "parse_error"},
		{"mapping", &models.MappingError{Field: "season", Code: 9}, "mapping_error"},
		{"wrapped load", errors.Join(errors.New("outer"), &dataset.LoadError{Path: "x", Reason: "r"}), "load_error"},
		{"other", errors.New("boom"), "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyLoadError(tt.err); got != tt.want {
				t.Errorf("classifyLoadError() = %q, want %q", got, tt.want)
			}
		})
	}
}
