// Package stats keeps one accreting performance record per calendar day:
// prediction counts bucketed by confidence tier, feedback-derived accuracy,
// nutrition search counters and a running mean of processing time.
package stats

// Confidence tier thresholds (percent).
const (
	HighConfidenceMin   = 80.0
	MediumConfidenceMin = 60.0
)

// Daily is the per-date statistics record. Created lazily on first touch,
// mutated in place, never deleted.
type Daily struct {
	Date string `json:"date"` // YYYY-MM-DD

	TotalPredictions   int     `json:"total_predictions"`
	CorrectPredictions int     `json:"correct_predictions"`
	AccuracyRate       float64 `json:"accuracy_rate"`

	HighConfidencePredictions   int `json:"high_confidence_predictions"`
	HighConfidenceCorrect       int `json:"high_confidence_correct"`
	MediumConfidencePredictions int `json:"medium_confidence_predictions"`
	MediumConfidenceCorrect     int `json:"medium_confidence_correct"`
	LowConfidencePredictions    int `json:"low_confidence_predictions"`
	LowConfidenceCorrect        int `json:"low_confidence_correct"`

	TotalCorrections   int `json:"total_corrections"`
	TotalConfirmations int `json:"total_confirmations"`

	TotalNutritionSearches      int `json:"total_nutrition_searches"`
	SuccessfulNutritionSearches int `json:"successful_nutrition_searches"`

	AverageProcessingTime float64 `json:"average_processing_time"` // seconds
}

// Tier returns which confidence bucket a percentage falls in.
func Tier(confidencePct float64) string {
	switch {
	case confidencePct >= HighConfidenceMin:
		return "high"
	case confidencePct >= MediumConfidenceMin:
		return "medium"
	default:
		return "low"
	}
}

func ratio(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// HighConfidenceAccuracy is the accuracy among high-tier predictions.
func (d *Daily) HighConfidenceAccuracy() float64 {
	return ratio(d.HighConfidenceCorrect, d.HighConfidencePredictions)
}

// MediumConfidenceAccuracy is the accuracy among medium-tier predictions.
func (d *Daily) MediumConfidenceAccuracy() float64 {
	return ratio(d.MediumConfidenceCorrect, d.MediumConfidencePredictions)
}

// LowConfidenceAccuracy is the accuracy among low-tier predictions.
func (d *Daily) LowConfidenceAccuracy() float64 {
	return ratio(d.LowConfidenceCorrect, d.LowConfidencePredictions)
}

// NutritionSearchSuccessRate is the share of nutrition lookups answered by a
// genuine external source.
func (d *Daily) NutritionSearchSuccessRate() float64 {
	return ratio(d.SuccessfulNutritionSearches, d.TotalNutritionSearches)
}

func (d *Daily) recomputeAccuracy() {
	d.AccuracyRate = ratio(d.CorrectPredictions, d.TotalPredictions)
}
