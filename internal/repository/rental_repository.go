package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bikeshare-platform/internal/models"
	"bikeshare-platform/pkg/database"
	"bikeshare-platform/pkg/logging"
	"bikeshare-platform/pkg/metrics"
)

// RentalRepository provides data access for snapshotted rental records.
// The snapshot is a Postgres copy of the enriched table written by the
// ingester; the server can serve from it instead of the CSV file.
type RentalRepository interface {
	CreateRentalsBatch(ctx context.Context, rentals []models.EnrichedRental) error
	GetRentals(ctx context.Context, filter RentalFilter) ([]models.EnrichedRental, int, error)
	GetRentalByDate(ctx context.Context, date time.Time) (*models.EnrichedRental, error)
	ListAll(ctx context.Context) ([]models.EnrichedRental, error)
	HealthCheck(ctx context.Context) error
}

// RentalFilter defines filters for querying snapshotted rentals
type RentalFilter struct {
	Year    *int
	Season  *string
	Weather *string
	Limit   int
	Offset  int
}

// NotFoundError indicates a requested resource does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// rentalRepository implements RentalRepository
type rentalRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRentalRepository creates a new rental repository
func NewRentalRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) RentalRepository {
	return &rentalRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const rentalColumns = `
	ride_date, season_code, year_code, month_code, weekday_code,
	working_day, weather_code, temperature_norm, humidity_norm,
	casual_count, registered_count, total_count,
	year, month_name, weekday_name, season_name, weather_name
`

// CreateRentalsBatch upserts enriched rentals in a single transaction,
// keyed by ride date.
func (r *rentalRepository) CreateRentalsBatch(ctx context.Context, rentals []models.EnrichedRental) error {
	if len(rentals) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(rentals)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(rentals),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_rentals (`+rentalColumns+`, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (ride_date) DO UPDATE SET
			season_code = EXCLUDED.season_code,
			year_code = EXCLUDED.year_code,
			month_code = EXCLUDED.month_code,
			weekday_code = EXCLUDED.weekday_code,
			working_day = EXCLUDED.working_day,
			weather_code = EXCLUDED.weather_code,
			temperature_norm = EXCLUDED.temperature_norm,
			humidity_norm = EXCLUDED.humidity_norm,
			casual_count = EXCLUDED.casual_count,
			registered_count = EXCLUDED.registered_count,
			total_count = EXCLUDED.total_count,
			year = EXCLUDED.year,
			month_name = EXCLUDED.month_name,
			weekday_name = EXCLUDED.weekday_name,
			season_name = EXCLUDED.season_name,
			weather_name = EXCLUDED.weather_name
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range rentals {
		rental := &rentals[i]
		_, err := stmt.ExecContext(ctx,
			rental.Date,
			rental.SeasonCode,
			rental.YearCode,
			rental.MonthCode,
			rental.WeekdayCode,
			rental.WorkingDay,
			rental.WeatherCode,
			rental.Temperature,
			rental.Humidity,
			rental.Casual,
			rental.Registered,
			rental.Total,
			rental.Year,
			rental.MonthName,
			rental.WeekdayName,
			rental.SeasonName,
			rental.WeatherName,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rental for %s: %w", rental.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(rentals)))

	return nil
}

// GetRentals retrieves snapshotted rentals with filtering and pagination
func (r *rentalRepository) GetRentals(ctx context.Context, filter RentalFilter) ([]models.EnrichedRental, int, error) {
	query := `SELECT ` + rentalColumns + ` FROM daily_rentals WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	if filter.Season != nil {
		query += fmt.Sprintf(" AND season_name = $%d", argNum)
		args = append(args, *filter.Season)
		argNum++
	}

	if filter.Weather != nil {
		query += fmt.Sprintf(" AND weather_name = $%d", argNum)
		args = append(args, *filter.Weather)
		argNum++
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_rentals", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rentals: %w", err)
	}

	query += " ORDER BY ride_date"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var rentals []models.EnrichedRental
	err = r.db.SelectContext(ctx, "get_rentals", &rentals, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rentals: %w", err)
	}

	return rentals, totalCount, nil
}

// GetRentalByDate retrieves the record for a specific day
func (r *rentalRepository) GetRentalByDate(ctx context.Context, date time.Time) (*models.EnrichedRental, error) {
	query := `SELECT ` + rentalColumns + ` FROM daily_rentals WHERE ride_date = $1`

	var rental models.EnrichedRental
	err := r.db.GetContext(ctx, "get_rental_by_date", &rental, query, date)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "daily_rental",
			ID:       date.Format("2006-01-02"),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get rental: %w", err)
	}

	return &rental, nil
}

// ListAll retrieves the full snapshot ordered by date. The snapshot spans
// two years of daily rows, so an unpaginated read stays small.
func (r *rentalRepository) ListAll(ctx context.Context) ([]models.EnrichedRental, error) {
	query := `SELECT ` + rentalColumns + ` FROM daily_rentals ORDER BY ride_date`

	var rentals []models.EnrichedRental
	err := r.db.SelectContext(ctx, "list_all_rentals", &rentals, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}

	return rentals, nil
}

// HealthCheck verifies database connectivity
func (r *rentalRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
