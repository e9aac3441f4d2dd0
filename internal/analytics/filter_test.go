package analytics

import (
	"testing"
	"time"

	"bikeshare-platform/internal/models"
)

// day builds an enriched fixture row from raw codes.
func day(t *testing.T, date string, season, year, month, weekday, weather, casual, registered int) models.EnrichedRental {
	t.Helper()

	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad fixture date %q: %v", date, err)
	}

	record := models.RentalRecord{
		Date:        d,
		SeasonCode:  season,
		YearCode:    year,
		MonthCode:   month,
		WeekdayCode: weekday,
		WeatherCode: weather,
		Casual:      casual,
		Registered:  registered,
		Total:       casual + registered,
	}

	enriched, err := record.Enrich()
	if err != nil {
		t.Fatalf("bad fixture codes: %v", err)
	}
	return *enriched
}

func fixtureTable(t *testing.T) []models.EnrichedRental {
	t.Helper()
	return []models.EnrichedRental{
		day(t, "2011-01-01", 1, 0, 1, 6, 2, 331, 654),
		day(t, "2011-04-05", 2, 0, 4, 2, 1, 120, 880),
		day(t, "2011-07-04", 3, 0, 7, 1, 1, 500, 1500),
		day(t, "2012-01-01", 1, 1, 1, 0, 1, 200, 800),
		day(t, "2012-10-30", 4, 1, 10, 2, 3, 50, 350),
	}
}

func TestApplyYearFilter(t *testing.T) {
	table := fixtureTable(t)
	year := 2011

	filtered := Apply(table, models.FilterSpec{Year: &year})
	if len(filtered) != 3 {
		t.Fatalf("Apply() returned %d rows, want 3", len(filtered))
	}
	for _, row := range filtered {
		if row.Year != 2011 {
			t.Errorf("row %s has year %d, want 2011", row.Date.Format("2006-01-02"), row.Year)
		}
	}
}

func TestApplyYearPartition(t *testing.T) {
	table := fixtureTable(t)
	y2011, y2012 := 2011, 2012

	a := Apply(table, models.FilterSpec{Year: &y2011})
	b := Apply(table, models.FilterSpec{Year: &y2012})

	// With only two years in the dataset, the two filters partition it.
	if len(a)+len(b) != len(table) {
		t.Errorf("partition broken: %d + %d != %d", len(a), len(b), len(table))
	}
}

func TestApplyCombinedPredicates(t *testing.T) {
	table := fixtureTable(t)
	year := 2011
	season := "Spring"
	weather := "Mist/Cloudy"

	filtered := Apply(table, models.FilterSpec{Year: &year, Season: &season, Weather: &weather})
	if len(filtered) != 1 {
		t.Fatalf("Apply() returned %d rows, want 1", len(filtered))
	}
	if filtered[0].Date.Format("2006-01-02") != "2011-01-01" {
		t.Errorf("unexpected row: %+v", filtered[0])
	}
}

func TestApplyEmptyResultIsValid(t *testing.T) {
	table := fixtureTable(t)
	weather := "Heavy Rain/Ice/Storm"

	filtered := Apply(table, models.FilterSpec{Weather: &weather})
	if filtered == nil {
		t.Fatal("Apply() returned nil, want empty slice")
	}
	if len(filtered) != 0 {
		t.Errorf("Apply() returned %d rows, want 0", len(filtered))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	table := fixtureTable(t)
	year := 2012

	filtered := Apply(table, models.FilterSpec{Year: &year})
	if len(filtered) == 0 {
		t.Fatal("expected non-empty filtered set")
	}

	filtered[0].Casual = -999
	for _, row := range table {
		if row.Casual == -999 {
			t.Error("Apply() shares mutable backing storage with its input")
		}
	}

	if len(table) != 5 {
		t.Errorf("input length changed to %d", len(table))
	}
}

func TestOptions(t *testing.T) {
	table := fixtureTable(t)
	opts := Options(table)

	wantYears := []int{2011, 2012}
	if len(opts.Years) != 2 || opts.Years[0] != wantYears[0] || opts.Years[1] != wantYears[1] {
		t.Errorf("Years = %v, want %v", opts.Years, wantYears)
	}

	wantSeasons := []string{"Spring", "Summer", "Fall", "Winter"}
	if len(opts.Seasons) != 4 {
		t.Fatalf("Seasons = %v, want %v", opts.Seasons, wantSeasons)
	}
	for i, s := range wantSeasons {
		if opts.Seasons[i] != s {
			t.Errorf("Seasons[%d] = %q, want %q", i, opts.Seasons[i], s)
		}
	}

	// Weather options keep first-seen order
	if opts.Weathers[0] != "Mist/Cloudy" || opts.Weathers[1] != "Clear/Few clouds" {
		t.Errorf("Weathers = %v, want first-seen order", opts.Weathers)
	}
}
