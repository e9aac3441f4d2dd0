package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"bikeshare-platform/internal/analytics"
	"bikeshare-platform/internal/dataset"
	"bikeshare-platform/internal/models"
)

// Demonstrates the load → enrich → filter → aggregate pipeline without a
// database or HTTP server.
func main() {
	csvPath := flag.String("csv", "./data/day.csv", "Path to the day-level bike sharing CSV")
	flag.Parse()

	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("BIKE SHARING PLATFORM - DATA PROCESSING DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	table, err := dataset.LoadAndEnrich(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded %d daily records from %s\n\n", len(table), *csvPath)

	for _, year := range []int{2011, 2012} {
		year := year
		filtered := analytics.Apply(table, models.FilterSpec{Year: &year})
		summary := analytics.Summarize(filtered)

		fmt.Printf("─────────────────────────────────────────────────────────────\n")
		fmt.Printf("Year %d (%d days)\n", year, summary.Days)
		fmt.Printf("─────────────────────────────────────────────────────────────\n")
		fmt.Printf("Total Rentals:      %d\n", summary.TotalRentals)
		if summary.AvgDailyRentals != nil {
			fmt.Printf("Avg Daily Rentals:  %.1f\n", *summary.AvgDailyRentals)
		}
		if summary.CasualPercent != nil && summary.RegisteredPercent != nil {
			fmt.Printf("Casual/Registered:  %.1f%% : %.1f%%\n", *summary.CasualPercent, *summary.RegisteredPercent)
		}
		fmt.Println()

		printSeries(filtered, "Average Rentals by Season", analytics.DimSeason)
		printSeries(filtered, "Average Rentals by Weather", analytics.DimWeather)
		printSeries(filtered, "Average Rentals by Month", analytics.DimMonth)
	}
}

func printSeries(rows []models.EnrichedRental, title string, dim analytics.Dimension) {
	series, err := analytics.Aggregate(rows, dim, analytics.MetricTotal, analytics.AggMean)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Aggregation failed: %v\n", err)
		return
	}

	fmt.Println(title)
	for _, row := range series {
		fmt.Printf("  %-22s %8.1f  %s\n", row.Label, row.Value, bar(row.Value, series))
	}
	fmt.Println()
}

// bar renders a proportional ASCII bar for terminal output.
func bar(value float64, series analytics.Result) string {
	max := 0.0
	for _, row := range series {
		if row.Value > max {
			max = row.Value
		}
	}
	if max <= 0 {
		return ""
	}
	n := int(value / max * 40)
	return strings.Repeat("█", n)
}
