package analytics

import (
	"fmt"
	"time"

	"bikeshare-platform/internal/models"
)

// User type labels for the molten table.
const (
	UserTypeCasual     = "casual"
	UserTypeRegistered = "registered"
)

// UserTypeRow is one row of the molten table: a single (user_type, count)
// measurement carrying the originating day's grouping attributes.
type UserTypeRow struct {
	Date        time.Time `json:"date"`
	SeasonName  string    `json:"season_name"`
	MonthName   string    `json:"month_name"`
	WeekdayName string    `json:"weekday_name"`
	WeatherName string    `json:"weather_name"`
	Temperature float64   `json:"temperature_norm"`
	UserType    string    `json:"user_type"`
	Count       int       `json:"count"`
}

// MeltUserTypes reshapes the casual and registered count columns into a
// single labeled count column. Every input row contributes exactly two
// molten rows, one per user type, so row-to-group correspondence is
// preserved for downstream grouping.
func MeltUserTypes(rows []models.EnrichedRental) []UserTypeRow {
	molten := make([]UserTypeRow, 0, 2*len(rows))

	for i := range rows {
		r := &rows[i]
		base := UserTypeRow{
			Date:        r.Date,
			SeasonName:  r.SeasonName,
			MonthName:   r.MonthName,
			WeekdayName: r.WeekdayName,
			WeatherName: r.WeatherName,
			Temperature: r.Temperature,
		}

		casual := base
		casual.UserType = UserTypeCasual
		casual.Count = r.Casual

		registered := base
		registered.UserType = UserTypeRegistered
		registered.Count = r.Registered

		molten = append(molten, casual, registered)
	}

	return molten
}

// UserTypeAggregate is one (group, user type, value) cell of a per-user-type
// breakdown.
type UserTypeAggregate struct {
	Label    string  `json:"label"`
	UserType string  `json:"user_type"`
	Value    float64 `json:"value"`
}

// MeltAndAggregate melts the table and reduces counts per (group, user type).
// Supported dimensions are the ones carried into the molten table: month,
// weekday, season and weather. Groups follow the dimension's canonical
// order (or first appearance), with casual before registered within each
// group. Empty input yields an empty result.
func MeltAndAggregate(rows []models.EnrichedRental, dim Dimension, agg AggKind) ([]UserTypeAggregate, error) {
	switch dim {
	case DimMonth, DimWeekday, DimSeason, DimWeather:
	default:
		return nil, fmt.Errorf("dimension %q not available in molten table", dim)
	}

	molten := MeltUserTypes(rows)

	type cell struct {
		sum   float64
		count int
	}

	cells := make(map[string]map[string]*cell)
	var order []string

	for i := range molten {
		label := moltenDimensionValue(&molten[i], dim)
		byType, seen := cells[label]
		if !seen {
			byType = make(map[string]*cell, 2)
			cells[label] = byType
			order = append(order, label)
		}

		c := byType[molten[i].UserType]
		if c == nil {
			c = &cell{}
			byType[molten[i].UserType] = c
		}
		c.sum += float64(molten[i].Count)
		c.count++
	}

	sortLabels(order, dim)

	result := make([]UserTypeAggregate, 0, 2*len(order))
	for _, label := range order {
		for _, userType := range []string{UserTypeCasual, UserTypeRegistered} {
			c := cells[label][userType]
			if c == nil {
				continue
			}
			value := c.sum
			if agg == AggMean {
				value /= float64(c.count)
			}
			result = append(result, UserTypeAggregate{
				Label:    label,
				UserType: userType,
				Value:    value,
			})
		}
	}

	return result, nil
}

func moltenDimensionValue(r *UserTypeRow, dim Dimension) string {
	switch dim {
	case DimMonth:
		return r.MonthName
	case DimWeekday:
		return r.WeekdayName
	case DimSeason:
		return r.SeasonName
	case DimWeather:
		return r.WeatherName
	}
	return ""
}
