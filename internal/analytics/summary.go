package analytics

import (
	"bikeshare-platform/internal/models"
)

// Summary holds the headline metrics for a filtered table. Ratio and mean
// metrics are nil when the filtered set is empty or has zero total rentals:
// "undefined" is an explicit state, never NaN passed downstream.
type Summary struct {
	Days              int      `json:"days"`
	TotalRentals      int      `json:"total_rentals"`
	TotalCasual       int      `json:"total_casual"`
	TotalRegistered   int      `json:"total_registered"`
	AvgDailyRentals   *float64 `json:"avg_daily_rentals,omitempty"`
	CasualPercent     *float64 `json:"casual_percent,omitempty"`
	RegisteredPercent *float64 `json:"registered_percent,omitempty"`
}

// Summarize reduces a filtered table to its headline metrics.
func Summarize(rows []models.EnrichedRental) Summary {
	s := Summary{Days: len(rows)}

	for i := range rows {
		s.TotalRentals += rows[i].Total
		s.TotalCasual += rows[i].Casual
		s.TotalRegistered += rows[i].Registered
	}

	if s.Days > 0 {
		avg := float64(s.TotalRentals) / float64(s.Days)
		s.AvgDailyRentals = &avg
	}

	if s.TotalRentals > 0 {
		casualPct := float64(s.TotalCasual) / float64(s.TotalRentals) * 100
		registeredPct := float64(s.TotalRegistered) / float64(s.TotalRentals) * 100
		s.CasualPercent = &casualPct
		s.RegisteredPercent = &registeredPct
	}

	return s
}
