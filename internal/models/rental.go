package models

import (
	"fmt"
	"time"
)

// RentalRecord is one raw row from the day-level bike sharing dataset.
// Codes follow the source dataset conventions: season 1-4, weathersit 1-4,
// mnth 1-12, weekday 0-6 with Sunday=0, yr 0-1.
type RentalRecord struct {
	Date        time.Time `json:"date" db:"ride_date"`
	SeasonCode  int       `json:"season_code" db:"season_code"`
	YearCode    int       `json:"year_code" db:"year_code"`
	MonthCode   int       `json:"month_code" db:"month_code"`
	WeekdayCode int       `json:"weekday_code" db:"weekday_code"`
	WorkingDay  bool      `json:"working_day" db:"working_day"`
	WeatherCode int       `json:"weather_code" db:"weather_code"`
	Temperature float64   `json:"temperature_norm" db:"temperature_norm"`
	Humidity    float64   `json:"humidity_norm" db:"humidity_norm"`
	Casual      int       `json:"casual_count" db:"casual_count"`
	Registered  int       `json:"registered_count" db:"registered_count"`
	Total       int       `json:"total_count" db:"total_count"`
}

// EnrichedRental is a RentalRecord plus the derived label fields used for
// filtering and grouping. Records are never mutated after enrichment.
type EnrichedRental struct {
	RentalRecord
	Year        int    `json:"year" db:"year"`
	MonthName   string `json:"month_name" db:"month_name"`
	WeekdayName string `json:"weekday_name" db:"weekday_name"`
	SeasonName  string `json:"season_name" db:"season_name"`
	WeatherName string `json:"weather_name" db:"weather_name"`
}

// Canonical presentation orders. Weekday order is Monday-first even though
// the stored weekday codes use the Sunday=0 convention.
var (
	MonthOrder = []string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}
	WeekdayOrder = []string{
		"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
	}
	SeasonOrder = []string{"Spring", "Summer", "Fall", "Winter"}
)

// weekdayNames is indexed by weekday code (Sunday=0).
var weekdayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

var seasonNames = []string{"Spring", "Summer", "Fall", "Winter"}

var weatherNames = []string{
	"Clear/Few clouds",
	"Mist/Cloudy",
	"Light Snow/Rain",
	"Heavy Rain/Ice/Storm",
}

// MappingError indicates a categorical code outside its fixed domain.
// Out-of-domain codes are always an error, never silently defaulted.
type MappingError struct {
	Field string
	Code  int
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("no mapping for %s code %d", e.Field, e.Code)
}

// MonthName maps a month code 1-12 to its calendar name.
func MonthName(code int) (string, error) {
	if code < 1 || code > 12 {
		return "", &MappingError{Field: "month", Code: code}
	}
	return MonthOrder[code-1], nil
}

// WeekdayName maps a weekday code 0-6 (Sunday=0) to its name.
func WeekdayName(code int) (string, error) {
	if code < 0 || code > 6 {
		return "", &MappingError{Field: "weekday", Code: code}
	}
	return weekdayNames[code], nil
}

// SeasonName maps a season code 1-4 to its name.
func SeasonName(code int) (string, error) {
	if code < 1 || code > 4 {
		return "", &MappingError{Field: "season", Code: code}
	}
	return seasonNames[code-1], nil
}

// WeatherName maps a weathersit code 1-4 to its condition label.
func WeatherName(code int) (string, error) {
	if code < 1 || code > 4 {
		return "", &MappingError{Field: "weather", Code: code}
	}
	return weatherNames[code-1], nil
}

// YearFromCode maps the binary year code to a calendar year.
func YearFromCode(code int) (int, error) {
	switch code {
	case 0:
		return 2011, nil
	case 1:
		return 2012, nil
	default:
		return 0, &MappingError{Field: "year", Code: code}
	}
}

// Enrich derives the label fields for a raw record. Pure and deterministic;
// the receiver is not modified.
func (r RentalRecord) Enrich() (*EnrichedRental, error) {
	monthName, err := MonthName(r.MonthCode)
	if err != nil {
		return nil, err
	}

	weekdayName, err := WeekdayName(r.WeekdayCode)
	if err != nil {
		return nil, err
	}

	seasonName, err := SeasonName(r.SeasonCode)
	if err != nil {
		return nil, err
	}

	weatherName, err := WeatherName(r.WeatherCode)
	if err != nil {
		return nil, err
	}

	year, err := YearFromCode(r.YearCode)
	if err != nil {
		return nil, err
	}

	return &EnrichedRental{
		RentalRecord: r,
		Year:         year,
		MonthName:    monthName,
		WeekdayName:  weekdayName,
		SeasonName:   seasonName,
		WeatherName:  weatherName,
	}, nil
}

// FilterSpec selects a subset of the enriched table. A nil field means
// "no restriction" on that dimension.
type FilterSpec struct {
	Year    *int    `json:"year,omitempty"`
	Season  *string `json:"season,omitempty"`
	Weather *string `json:"weather,omitempty"`
}

// Matches reports whether a rental passes all set predicates.
func (f FilterSpec) Matches(r *EnrichedRental) bool {
	if f.Year != nil && r.Year != *f.Year {
		return false
	}
	if f.Season != nil && r.SeasonName != *f.Season {
		return false
	}
	if f.Weather != nil && r.WeatherName != *f.Weather {
		return false
	}
	return true
}

// IsEmpty reports whether no predicates are set.
func (f FilterSpec) IsEmpty() bool {
	return f.Year == nil && f.Season == nil && f.Weather == nil
}

// ValidationError represents a data consistency error in an input row.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks cross-field consistency of a raw record.
func (r *RentalRecord) Validate() error {
	if r.Casual < 0 || r.Registered < 0 {
		return &ValidationError{
			Field:   "casual/registered",
			Value:   fmt.Sprintf("%d/%d", r.Casual, r.Registered),
			Message: "rental counts must be non-negative",
		}
	}

	if r.Total != r.Casual+r.Registered {
		return &ValidationError{
			Field:   "cnt",
			Value:   fmt.Sprintf("%d", r.Total),
			Message: fmt.Sprintf("total count %d does not equal casual %d + registered %d", r.Total, r.Casual, r.Registered),
		}
	}

	return nil
}
