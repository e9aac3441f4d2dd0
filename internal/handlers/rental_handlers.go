package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"bikeshare-platform/internal/analytics"
	"bikeshare-platform/internal/exporter"
	"bikeshare-platform/internal/models"
	"bikeshare-platform/internal/repository"
	"bikeshare-platform/internal/services"
	"bikeshare-platform/pkg/logging"
	"bikeshare-platform/pkg/metrics"
)

// RentalHandler handles the bike sharing analytics API endpoints
type RentalHandler struct {
	analytics *services.AnalyticsService
	data      *services.DatasetService
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewRentalHandler creates a new rental handler
func NewRentalHandler(
	analyticsService *services.AnalyticsService,
	dataService *services.DatasetService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *RentalHandler {
	return &RentalHandler{
		analytics: analyticsService,
		data:      dataService,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// AggregateResponse wraps an aggregation series with its parameters
type AggregateResponse struct {
	GroupBy string            `json:"group_by"`
	Metric  string            `json:"metric"`
	Agg     string            `json:"agg"`
	Filter  models.FilterSpec `json:"filter"`
	Series  analytics.Result  `json:"series"`
}

// UserTypeResponse wraps a per-user-type breakdown
type UserTypeResponse struct {
	GroupBy string                        `json:"group_by"`
	Agg     string                        `json:"agg"`
	Filter  models.FilterSpec             `json:"filter"`
	Series  []analytics.UserTypeAggregate `json:"series"`
}

// parseFilterSpec extracts the optional year/season/weather predicates
// from query parameters.
func parseFilterSpec(r *http.Request) (models.FilterSpec, error) {
	var spec models.FilterSpec

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return spec, fmt.Errorf("invalid year %q, expected integer", yearStr)
		}
		spec.Year = &year
	}

	if season := r.URL.Query().Get("season"); season != "" {
		spec.Season = &season
	}

	if weather := r.URL.Query().Get("weather"); weather != "" {
		spec.Weather = &weather
	}

	return spec, nil
}

// GetRentals handles GET /api/rentals
func (h *RentalHandler) GetRentals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	timer := h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues("/api/rentals"))
	defer timer.ObserveDuration()

	spec, err := parseFilterSpec(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	page := 1
	limit := 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	offset := (page - 1) * limit

	rentals, total, err := h.analytics.Rentals(ctx, spec, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_RENTALS_ERROR] Failed to get rentals", logging.Fields{
			"filter": spec,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/rentals")
		h.sendError(w, r, "failed to retrieve rentals", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       rentals,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/rentals", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetRentalByDate handles GET /api/rentals/{date}
func (h *RentalHandler) GetRentalByDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	timer := h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues("/api/rentals/{date}"))
	defer timer.ObserveDuration()

	dateStr := mux.Vars(r)["date"]
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		h.sendError(w, r, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", dateStr), http.StatusBadRequest)
		return
	}

	rental, err := h.data.RentalByDate(ctx, date)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.metrics.RecordAPIError("not_found", "/api/rentals/{date}")
			h.sendError(w, r, notFound.Error(), http.StatusNotFound)
			return
		}

		h.logger.Error(ctx, "[API_GET_RENTAL_ERROR] Failed to get rental", logging.Fields{
			"date": dateStr,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/rentals/{date}")
		h.sendError(w, r, "failed to retrieve rental", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/rentals/{date}", "GET", "200")
	h.sendJSON(w, rental, http.StatusOK)
}

// GetAggregate handles GET /api/rentals/aggregate
func (h *RentalHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	timer := h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues("/api/rentals/aggregate"))
	defer timer.ObserveDuration()

	spec, err := parseFilterSpec(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	dim, err := analytics.ParseDimension(r.URL.Query().Get("group_by"))
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	metric := analytics.MetricTotal
	if metricStr := r.URL.Query().Get("metric"); metricStr != "" {
		metric, err = analytics.ParseMetric(metricStr)
		if err != nil {
			h.sendError(w, r, err.Error(), http.StatusBadRequest)
			return
		}
	}

	agg := analytics.AggMean
	if aggStr := r.URL.Query().Get("agg"); aggStr != "" {
		agg, err = analytics.ParseAggKind(aggStr)
		if err != nil {
			h.sendError(w, r, err.Error(), http.StatusBadRequest)
			return
		}
	}

	series, err := h.analytics.Aggregate(ctx, spec, dim, metric, agg)
	if err != nil {
		h.logger.Error(ctx, "[API_AGGREGATE_ERROR] Failed to aggregate", logging.Fields{
			"filter":   spec,
			"group_by": string(dim),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/rentals/aggregate")
		h.sendError(w, r, "failed to compute aggregation", http.StatusInternalServerError)
		return
	}

	response := AggregateResponse{
		GroupBy: string(dim),
		Metric:  string(metric),
		Agg:     string(agg),
		Filter:  spec,
		Series:  series,
	}

	h.metrics.RecordAPIRequest("/api/rentals/aggregate", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetUserTypeBreakdown handles GET /api/rentals/usertypes
func (h *RentalHandler) GetUserTypeBreakdown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	timer := h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues("/api/rentals/usertypes"))
	defer timer.ObserveDuration()

	spec, err := parseFilterSpec(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	dim, err := analytics.ParseDimension(r.URL.Query().Get("group_by"))
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	agg := analytics.AggMean
	if aggStr := r.URL.Query().Get("agg"); aggStr != "" {
		agg, err = analytics.ParseAggKind(aggStr)
		if err != nil {
			h.sendError(w, r, err.Error(), http.StatusBadRequest)
			return
		}
	}

	series, err := h.analytics.UserTypeBreakdown(ctx, spec, dim, agg)
	if err != nil {
		h.metrics.RecordAPIError("bad_dimension", "/api/rentals/usertypes")
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	response := UserTypeResponse{
		GroupBy: string(dim),
		Agg:     string(agg),
		Filter:  spec,
		Series:  series,
	}

	h.metrics.RecordAPIRequest("/api/rentals/usertypes", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetSummary handles GET /api/rentals/summary
func (h *RentalHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	timer := h.metrics.NewTimer(h.metrics.APIRequestDuration.WithLabelValues("/api/rentals/summary"))
	defer timer.ObserveDuration()

	spec, err := parseFilterSpec(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.analytics.Summary(ctx, spec)
	if err != nil {
		h.logger.Error(ctx, "[API_SUMMARY_ERROR] Failed to compute summary", logging.Fields{
			"filter": spec,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/rentals/summary")
		h.sendError(w, r, "failed to compute summary", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/rentals/summary", "GET", "200")
	h.sendJSON(w, summary, http.StatusOK)
}

// GetFilterOptions handles GET /api/filters
func (h *RentalHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	options, err := h.data.FilterOptions(ctx)
	if err != nil {
		h.metrics.RecordAPIError("internal_error", "/api/filters")
		h.sendError(w, r, "failed to retrieve filter options", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/filters", "GET", "200")
	h.sendJSON(w, options, http.StatusOK)
}

// ExportCSV handles GET /api/export/csv
func (h *RentalHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	spec, err := parseFilterSpec(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	rentals, err := h.analytics.Filtered(ctx, spec)
	if err != nil {
		h.metrics.RecordAPIError("internal_error", "/api/export/csv")
		h.sendError(w, r, "failed to export dataset", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="rentals.csv"`)

	if err := exporter.WriteCSV(w, rentals); err != nil {
		h.logger.Error(ctx, "[API_EXPORT_ERROR] CSV export failed", logging.Fields{
			"filter": spec,
		}, err)
		return
	}

	h.metrics.RecordExport("csv")
	h.metrics.RecordAPIRequest("/api/export/csv", "GET", "200")
}

// ExportParquet handles GET /api/export/parquet
func (h *RentalHandler) ExportParquet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	spec, err := parseFilterSpec(r)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	rentals, err := h.analytics.Filtered(ctx, spec)
	if err != nil {
		h.metrics.RecordAPIError("internal_error", "/api/export/parquet")
		h.sendError(w, r, "failed to export dataset", http.StatusInternalServerError)
		return
	}

	data, err := exporter.WriteParquet(rentals)
	if err != nil {
		h.logger.Error(ctx, "[API_EXPORT_ERROR] Parquet export failed", logging.Fields{
			"filter": spec,
		}, err)
		h.metrics.RecordAPIError("export_error", "/api/export/parquet")
		h.sendError(w, r, "failed to serialize parquet", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="rentals.parquet"`)
	w.Write(data)

	h.metrics.RecordExport("parquet")
	h.metrics.RecordAPIRequest("/api/export/parquet", "GET", "200")
}

// HealthCheck handles GET /health
func (h *RentalHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.data.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Dataset source unhealthy", logging.Fields{}, err)
		h.sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *RentalHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *RentalHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all analytics API routes
func (h *RentalHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/rentals", h.GetRentals).Methods("GET")
	router.HandleFunc("/api/rentals/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", h.GetRentalByDate).Methods("GET")
	router.HandleFunc("/api/rentals/aggregate", h.GetAggregate).Methods("GET")
	router.HandleFunc("/api/rentals/usertypes", h.GetUserTypeBreakdown).Methods("GET")
	router.HandleFunc("/api/rentals/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/api/filters", h.GetFilterOptions).Methods("GET")
	router.HandleFunc("/api/export/csv", h.ExportCSV).Methods("GET")
	router.HandleFunc("/api/export/parquet", h.ExportParquet).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
