package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"bikeshare-platform/internal/models"
)

// rentalParquetRow is the flat columnar shape of an enriched rental.
type rentalParquetRow struct {
	RideDate        string  `parquet:"name=ride_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SeasonCode      int32   `parquet:"name=season_code, type=INT32"`
	YearCode        int32   `parquet:"name=year_code, type=INT32"`
	MonthCode       int32   `parquet:"name=month_code, type=INT32"`
	WeekdayCode     int32   `parquet:"name=weekday_code, type=INT32"`
	WorkingDay      bool    `parquet:"name=working_day, type=BOOLEAN"`
	WeatherCode     int32   `parquet:"name=weather_code, type=INT32"`
	TemperatureNorm float64 `parquet:"name=temperature_norm, type=DOUBLE"`
	HumidityNorm    float64 `parquet:"name=humidity_norm, type=DOUBLE"`
	CasualCount     int64   `parquet:"name=casual_count, type=INT64"`
	RegisteredCount int64   `parquet:"name=registered_count, type=INT64"`
	TotalCount      int64   `parquet:"name=total_count, type=INT64"`
	Year            int32   `parquet:"name=year, type=INT32"`
	MonthName       string  `parquet:"name=month_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	WeekdayName     string  `parquet:"name=weekday_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SeasonName      string  `parquet:"name=season_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	WeatherName     string  `parquet:"name=weather_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// WriteParquet serializes enriched rentals into a Snappy-compressed
// parquet file held in memory.
func WriteParquet(rentals []models.EnrichedRental) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(rentalParquetRow), 2)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rentals {
		r := &rentals[i]
		row := rentalParquetRow{
			RideDate:        r.Date.Format("2006-01-02"),
			SeasonCode:      int32(r.SeasonCode),
			YearCode:        int32(r.YearCode),
			MonthCode:       int32(r.MonthCode),
			WeekdayCode:     int32(r.WeekdayCode),
			WorkingDay:      r.WorkingDay,
			WeatherCode:     int32(r.WeatherCode),
			TemperatureNorm: r.Temperature,
			HumidityNorm:    r.Humidity,
			CasualCount:     int64(r.Casual),
			RegisteredCount: int64(r.Registered),
			TotalCount:      int64(r.Total),
			Year:            int32(r.Year),
			MonthName:       r.MonthName,
			WeekdayName:     r.WeekdayName,
			SeasonName:      r.SeasonName,
			WeatherName:     r.WeatherName,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet buffer: %w", err)
	}

	return append([]byte(nil), fw.Bytes()...), nil
}

// csvHeader matches the enriched table column layout.
var csvHeader = []string{
	"dteday", "season", "yr", "mnth", "weekday", "workingday", "weathersit",
	"temp", "hum", "casual", "registered", "cnt",
	"year", "month_name", "weekday_name", "season_name", "weather_name",
}

// WriteCSV streams enriched rentals as CSV, raw columns first, derived
// label columns after.
func WriteCSV(w io.Writer, rentals []models.EnrichedRental) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range rentals {
		r := &rentals[i]

		workingDay := "0"
		if r.WorkingDay {
			workingDay = "1"
		}

		record := []string{
			r.Date.Format("2006-01-02"),
			strconv.Itoa(r.SeasonCode),
			strconv.Itoa(r.YearCode),
			strconv.Itoa(r.MonthCode),
			strconv.Itoa(r.WeekdayCode),
			workingDay,
			strconv.Itoa(r.WeatherCode),
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			strconv.FormatFloat(r.Humidity, 'f', -1, 64),
			strconv.Itoa(r.Casual),
			strconv.Itoa(r.Registered),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Year),
			r.MonthName,
			r.WeekdayName,
			r.SeasonName,
			r.WeatherName,
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
