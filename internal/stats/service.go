package stats

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/platewise/platewise/internal/nutrition"
	"github.com/platewise/platewise/internal/storage"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Service aggregates prediction and feedback events into daily statistics.
// Updates for a date are read-modify-write; the mutex serializes them so
// concurrent requests landing on the same day cannot lose counter updates.
type Service struct {
	db     *storage.DB
	logger *zap.Logger
	mu     sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates the statistics service.
func NewService(db *storage.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger, now: time.Now}
}

// RecordPrediction folds one completed analysis into today's record:
// total and tier counters, running mean of processing time, and nutrition
// search bookkeeping (a fallback or default source does not count as a
// successful search).
func (s *Service) RecordPrediction(confidencePct float64, processingTime time.Duration, nutritionSource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateToday(func(d *Daily) {
		d.TotalPredictions++
		switch Tier(confidencePct) {
		case "high":
			d.HighConfidencePredictions++
		case "medium":
			d.MediumConfidencePredictions++
		default:
			d.LowConfidencePredictions++
		}

		n := d.TotalPredictions
		d.AverageProcessingTime = (d.AverageProcessingTime*float64(n-1) + processingTime.Seconds()) / float64(n)

		d.TotalNutritionSearches++
		if !nutrition.IsFallback(nutritionSource) {
			d.SuccessfulNutritionSearches++
		}

		d.recomputeAccuracy()
	})
}

// RecordFeedback folds one feedback event into today's record. Confirming
// feedback (perfect, confirmation) counts the original prediction as correct
// in its confidence tier; corrective feedback (correction, wrong) only bumps
// the correction counter.
func (s *Service) RecordFeedback(feedbackType string, originalConfidencePct float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateToday(func(d *Daily) {
		switch feedbackType {
		case "perfect", "confirmation":
			d.CorrectPredictions++
			d.TotalConfirmations++
			switch Tier(originalConfidencePct) {
			case "high":
				d.HighConfidenceCorrect++
			case "medium":
				d.MediumConfidenceCorrect++
			default:
				d.LowConfidenceCorrect++
			}
		case "correction", "wrong":
			d.TotalCorrections++
		}
		d.recomputeAccuracy()
	})
}

// Get returns the record for a date (YYYY-MM-DD), zero-valued when none
// exists yet.
func (s *Service) Get(date string) (*Daily, error) {
	d, err := s.load(date)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return &Daily{Date: date}, nil
	}
	return d, nil
}

// Latest returns the most recent record, or a zero-valued record for today
// when the table is empty.
func (s *Service) Latest() (*Daily, error) {
	var date string
	err := s.db.Conn().QueryRow(`SELECT date FROM daily_statistics ORDER BY date DESC LIMIT 1`).Scan(&date)
	if err == sql.ErrNoRows {
		return &Daily{Date: s.now().UTC().Format(dateLayout)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest statistics: %w", err)
	}
	return s.Get(date)
}

// updateToday runs a fetch-or-create, mutate, upsert cycle for today's row
// inside one transaction. Callers hold the mutex.
func (s *Service) updateToday(mutate func(*Daily)) error {
	date := s.now().UTC().Format(dateLayout)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d, err := scanDaily(tx.QueryRow(selectDaily, date))
	if err != nil {
		return err
	}
	if d == nil {
		d = &Daily{Date: date}
	}

	mutate(d)

	_, err = tx.Exec(`
		INSERT INTO daily_statistics (
			date, total_predictions, correct_predictions, accuracy_rate,
			high_confidence_predictions, high_confidence_correct,
			medium_confidence_predictions, medium_confidence_correct,
			low_confidence_predictions, low_confidence_correct,
			total_corrections, total_confirmations,
			total_nutrition_searches, successful_nutrition_searches,
			average_processing_time, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_predictions = excluded.total_predictions,
			correct_predictions = excluded.correct_predictions,
			accuracy_rate = excluded.accuracy_rate,
			high_confidence_predictions = excluded.high_confidence_predictions,
			high_confidence_correct = excluded.high_confidence_correct,
			medium_confidence_predictions = excluded.medium_confidence_predictions,
			medium_confidence_correct = excluded.medium_confidence_correct,
			low_confidence_predictions = excluded.low_confidence_predictions,
			low_confidence_correct = excluded.low_confidence_correct,
			total_corrections = excluded.total_corrections,
			total_confirmations = excluded.total_confirmations,
			total_nutrition_searches = excluded.total_nutrition_searches,
			successful_nutrition_searches = excluded.successful_nutrition_searches,
			average_processing_time = excluded.average_processing_time,
			last_updated = excluded.last_updated
	`, d.Date, d.TotalPredictions, d.CorrectPredictions, d.AccuracyRate,
		d.HighConfidencePredictions, d.HighConfidenceCorrect,
		d.MediumConfidencePredictions, d.MediumConfidenceCorrect,
		d.LowConfidencePredictions, d.LowConfidenceCorrect,
		d.TotalCorrections, d.TotalConfirmations,
		d.TotalNutritionSearches, d.SuccessfulNutritionSearches,
		d.AverageProcessingTime, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert daily statistics: %w", err)
	}

	return tx.Commit()
}

const selectDaily = `
	SELECT date, total_predictions, correct_predictions, accuracy_rate,
	       high_confidence_predictions, high_confidence_correct,
	       medium_confidence_predictions, medium_confidence_correct,
	       low_confidence_predictions, low_confidence_correct,
	       total_corrections, total_confirmations,
	       total_nutrition_searches, successful_nutrition_searches,
	       average_processing_time
	FROM daily_statistics
	WHERE date = ?`

func (s *Service) load(date string) (*Daily, error) {
	return scanDaily(s.db.Conn().QueryRow(selectDaily, date))
}

func scanDaily(row *sql.Row) (*Daily, error) {
	var d Daily
	err := row.Scan(&d.Date, &d.TotalPredictions, &d.CorrectPredictions, &d.AccuracyRate,
		&d.HighConfidencePredictions, &d.HighConfidenceCorrect,
		&d.MediumConfidencePredictions, &d.MediumConfidenceCorrect,
		&d.LowConfidencePredictions, &d.LowConfidenceCorrect,
		&d.TotalCorrections, &d.TotalConfirmations,
		&d.TotalNutritionSearches, &d.SuccessfulNutritionSearches,
		&d.AverageProcessingTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan daily statistics: %w", err)
	}
	return &d, nil
}
