package dataset

import (
	"bikeshare-platform/internal/models"
)

// Enrich derives the categorical label fields for every raw record.
// Pure function: the input is not modified and enrichment of the same
// input always yields the same output. A code outside its fixed domain
// fails the whole pass with a MappingError; no partial table is produced.
func Enrich(records []models.RentalRecord) ([]models.EnrichedRental, error) {
	enriched := make([]models.EnrichedRental, 0, len(records))

	for _, record := range records {
		e, err := record.Enrich()
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, *e)
	}

	return enriched, nil
}

// LoadAndEnrich composes Load and Enrich into the table the rest of the
// system works on.
func LoadAndEnrich(path string) ([]models.EnrichedRental, error) {
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Enrich(records)
}
