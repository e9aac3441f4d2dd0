package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"bikeshare-platform/internal/models"
)

// requiredColumns are the header names the loader refuses to run without.
var requiredColumns = []string{
	"dteday", "season", "weathersit", "mnth", "weekday", "yr",
	"temp", "hum", "casual", "registered", "cnt", "workingday",
}

// LoadError indicates the dataset file could not be read or is missing
// required columns. Always fatal to the session.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load dataset %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to load dataset %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ParseError indicates a malformed date or numeric field in a data row.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads the day-level bike sharing CSV into raw records. The header
// row names columns; column order does not matter and unknown columns are
// ignored. The returned slice is never mutated by this package.
func Load(path string) ([]models.RentalRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot open file", Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "cannot read header", Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &LoadError{Path: path, Reason: fmt.Sprintf("missing required column %q", col)}
		}
	}

	var records []models.RentalRecord
	line := 1 // header was line 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: path, Reason: "cannot read row", Err: err}
		}
		line++

		record, err := parseRow(row, index, line)
		if err != nil {
			return nil, err
		}

		if err := record.Validate(); err != nil {
			return nil, &ParseError{Line: line, Field: "cnt", Value: row[index["cnt"]], Err: err}
		}

		records = append(records, *record)
	}

	return records, nil
}

// parseRow converts one CSV row into a raw record.
func parseRow(row []string, index map[string]int, line int) (*models.RentalRecord, error) {
	field := func(name string) string {
		return strings.TrimSpace(row[index[name]])
	}

	date, err := time.Parse("2006-01-02", field("dteday"))
	if err != nil {
		return nil, &ParseError{Line: line, Field: "dteday", Value: field("dteday"), Err: err}
	}

	ints := map[string]int{}
	for _, name := range []string{"season", "weathersit", "mnth", "weekday", "yr", "casual", "registered", "cnt", "workingday"} {
		v, err := strconv.Atoi(field(name))
		if err != nil {
			return nil, &ParseError{Line: line, Field: name, Value: field(name), Err: err}
		}
		ints[name] = v
	}

	floats := map[string]float64{}
	for _, name := range []string{"temp", "hum"} {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return nil, &ParseError{Line: line, Field: name, Value: field(name), Err: err}
		}
		floats[name] = v
	}

	return &models.RentalRecord{
		Date:        date,
		SeasonCode:  ints["season"],
		YearCode:    ints["yr"],
		MonthCode:   ints["mnth"],
		WeekdayCode: ints["weekday"],
		WorkingDay:  ints["workingday"] == 1,
		WeatherCode: ints["weathersit"],
		Temperature: floats["temp"],
		Humidity:    floats["hum"],
		Casual:      ints["casual"],
		Registered:  ints["registered"],
		Total:       ints["cnt"],
	}, nil
}
