package handlers

import (
	"encoding/json"
	"net/http"
)

// filterParams are the query parameters shared by every analytics endpoint.
var filterParams = []map[string]interface{}{
	{
		"name":        "year",
		"in":          "query",
		"description": "Filter by calendar year (2011 or 2012)",
		"required":    false,
		"schema":      map[string]string{"type": "integer"},
	},
	{
		"name":        "season",
		"in":          "query",
		"description": "Filter by season name (Spring, Summer, Fall, Winter)",
		"required":    false,
		"schema":      map[string]string{"type": "string"},
	},
	{
		"name":        "weather",
		"in":          "query",
		"description": "Filter by weather condition label",
		"required":    false,
		"schema":      map[string]string{"type": "string"},
	},
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Bike Sharing Analytics API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	groupByParam := map[string]interface{}{
		"name":        "group_by",
		"in":          "query",
		"description": "Grouping dimension: month, weekday, season, weather, year, working_day",
		"required":    true,
		"schema":      map[string]string{"type": "string"},
	}
	aggParam := map[string]interface{}{
		"name":        "agg",
		"in":          "query",
		"description": "Reducer: mean (default) or sum",
		"required":    false,
		"schema":      map[string]string{"type": "string"},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Bike Sharing Analytics API",
			"description": "Data-exploration backend over the daily bike sharing dataset: filtering, group-by aggregation and user type breakdowns",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/rentals": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List enriched daily rentals",
					"description": "Retrieve filtered, paginated rows of the enriched table",
					"parameters": append(filterParams,
						map[string]interface{}{
							"name":        "page",
							"in":          "query",
							"description": "Page number (default: 1)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 1},
						},
						map[string]interface{}{
							"name":        "limit",
							"in":          "query",
							"description": "Records per page (default: 100, max: 1000)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					),
					"responses": okResponse("Paginated enriched rentals"),
				},
			},
			"/api/rentals/{date}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get the record for a single day",
					"description": "Retrieve one enriched daily record by its ride date",
					"parameters": []map[string]interface{}{
						{
							"name":        "date",
							"in":          "path",
							"description": "Ride date in YYYY-MM-DD format",
							"required":    true,
							"schema":      map[string]string{"type": "string", "format": "date"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Enriched daily record",
						},
						"404": map[string]interface{}{
							"description": "No record for that date",
						},
					},
				},
			},
			"/api/rentals/aggregate": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Aggregate a metric by a dimension",
					"description": "Group the filtered table and reduce a metric (mean or sum) per group, in canonical group order",
					"parameters": append(filterParams,
						groupByParam,
						map[string]interface{}{
							"name":        "metric",
							"in":          "query",
							"description": "Metric column: cnt (default), casual, registered, temp, hum",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						aggParam,
					),
					"responses": okResponse("Ordered label/value series"),
				},
			},
			"/api/rentals/usertypes": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Per-user-type breakdown",
					"description": "Melt casual/registered counts and reduce per (group, user type)",
					"parameters":  append(filterParams, groupByParam, aggParam),
					"responses":   okResponse("Per-user-type series"),
				},
			},
			"/api/rentals/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Headline metrics for a filtered set",
					"description": "Totals, mean daily rentals and casual/registered percentage split; ratio fields are omitted when undefined",
					"parameters":  filterParams,
					"responses":   okResponse("Summary metrics"),
				},
			},
			"/api/filters": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":   "Selectable filter options",
					"responses": okResponse("Years, seasons and weather conditions present in the dataset"),
				},
			},
			"/api/export/csv": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Export the filtered table as CSV",
					"parameters": filterParams,
					"responses":  okResponse("CSV file"),
				},
			},
			"/api/export/parquet": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Export the filtered table as parquet",
					"parameters": filterParams,
					"responses":  okResponse("Parquet file"),
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":   "Health check",
					"responses": okResponse("Service health status"),
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}

func okResponse(description string) map[string]interface{} {
	return map[string]interface{}{
		"200": map[string]interface{}{
			"description": description,
		},
		"400": map[string]interface{}{
			"description": "Invalid query parameter",
		},
	}
}
