package reconcile

import "github.com/xelth-com/scraprecon/internal/models"

// Summary holds the report totals
type Summary struct {
	Items              int     `json:"items"`
	TotalMeasuredKg    float64 `json:"total_measured_kg"`
	TotalTheoreticalKg float64 `json:"total_theoretical_kg"`
	TotalScrapKg       float64 `json:"total_scrap_kg"`
	Flagged            int     `json:"flagged"` // rows carrying warnings
}

func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.add(r.MeasuredWeightKg, r.TheoreticalWeightKg, r.ScrapKg, len(r.Warnings) > 0)
	}
	return s
}

func SummarizeRecords(records []models.ObservationRecord) Summary {
	var s Summary
	for _, r := range records {
		s.add(r.MeasuredWeightKg, r.TheoreticalWeightKg, r.ScrapKg, len(r.Warnings) > 0)
	}
	return s
}

func (s *Summary) add(measured, theoretical, scrap float64, flagged bool) {
	s.Items++
	s.TotalMeasuredKg += measured
	s.TotalTheoreticalKg += theoretical
	s.TotalScrapKg += scrap
	if flagged {
		s.Flagged++
	}
}
