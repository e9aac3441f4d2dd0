package analytics

import (
	"sort"

	"bikeshare-platform/internal/models"
)

// Apply returns the subset of rows satisfying every set predicate of the
// filter. The input slice is never mutated; an empty result is a valid
// value, not an error.
func Apply(rows []models.EnrichedRental, spec models.FilterSpec) []models.EnrichedRental {
	if spec.IsEmpty() {
		out := make([]models.EnrichedRental, len(rows))
		copy(out, rows)
		return out
	}

	out := make([]models.EnrichedRental, 0, len(rows))
	for i := range rows {
		if spec.Matches(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

// FilterOptions lists the selectable values present in a table, in the
// order a frontend should render them.
type FilterOptions struct {
	Years    []int    `json:"years"`
	Seasons  []string `json:"seasons"`
	Weathers []string `json:"weathers"`
}

// Options scans a table for the distinct filterable values. Years are
// ascending, seasons follow the canonical season order, weather conditions
// appear in first-seen order.
func Options(rows []models.EnrichedRental) FilterOptions {
	yearSeen := make(map[int]bool)
	seasonSeen := make(map[string]bool)
	weatherSeen := make(map[string]bool)

	opts := FilterOptions{
		Years:    []int{},
		Seasons:  []string{},
		Weathers: []string{},
	}

	for i := range rows {
		r := &rows[i]
		if !yearSeen[r.Year] {
			yearSeen[r.Year] = true
			opts.Years = append(opts.Years, r.Year)
		}
		if !seasonSeen[r.SeasonName] {
			seasonSeen[r.SeasonName] = true
		}
		if !weatherSeen[r.WeatherName] {
			weatherSeen[r.WeatherName] = true
			opts.Weathers = append(opts.Weathers, r.WeatherName)
		}
	}

	sort.Ints(opts.Years)

	for _, season := range models.SeasonOrder {
		if seasonSeen[season] {
			opts.Seasons = append(opts.Seasons, season)
		}
	}

	return opts
}
