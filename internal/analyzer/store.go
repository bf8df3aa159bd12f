package analyzer

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platewise/platewise/internal/storage"
)

// Store persists analyses and their feedback rows.
type Store struct {
	db *storage.DB
}

// NewStore creates the analysis store.
func NewStore(db *storage.DB) *Store {
	return &Store{db: db}
}

// SaveAnalysis inserts a completed analysis. Rows are never updated.
func (s *Store) SaveAnalysis(a *Analysis) error {
	_, err := s.db.Conn().Exec(`
		INSERT INTO analyses (
			id, food_name, confidence, max_confidence, model_agreement,
			calories_kcal, protein_g, fat_g, carbs_g, fiber_g, sugar_g, sodium_mg,
			serving_size, data_source, processing_time, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.FoodName, a.ConfidencePct, a.MaxConfidencePct, a.ModelAgreement,
		a.Nutrition.Calories, a.Nutrition.ProteinG, a.Nutrition.FatG, a.Nutrition.CarbsG,
		a.Nutrition.FiberG, a.Nutrition.SugarG, a.Nutrition.SodiumMg,
		a.ServingSize, a.Nutrition.Source, a.ProcessingTime.Seconds(),
		a.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

const selectAnalysis = `
	SELECT id, food_name, confidence, max_confidence, model_agreement,
	       calories_kcal, protein_g, fat_g, carbs_g, fiber_g, sugar_g, sodium_mg,
	       serving_size, data_source, processing_time, created_at
	FROM analyses`

// GetAnalysis returns one analysis by ID, or nil when absent.
func (s *Store) GetAnalysis(id string) (*Analysis, error) {
	row := s.db.Conn().QueryRow(selectAnalysis+` WHERE id = ?`, id)
	a, err := scanAnalysis(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}
	return a, nil
}

// Recent returns the newest analyses, most recent first.
func (s *Store) Recent(limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Conn().Query(selectAnalysis+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

// SaveFeedback inserts one feedback row referencing the analysis.
func (s *Store) SaveFeedback(a *Analysis, req FeedbackRequest) error {
	_, err := s.db.Conn().Exec(`
		INSERT INTO feedback (
			id, analysis_id, feedback_type, predicted_food, correct_food,
			original_confidence, correction_reason, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), a.ID, req.FeedbackType, a.FoodName,
		nullable(req.CorrectFood), a.ConfidencePct,
		nullable(req.CorrectionReason), nullable(req.Notes),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func scanAnalysis(scan func(...interface{}) error) (*Analysis, error) {
	var a Analysis
	var processingSeconds float64
	var createdAt string
	err := scan(&a.ID, &a.FoodName, &a.ConfidencePct, &a.MaxConfidencePct, &a.ModelAgreement,
		&a.Nutrition.Calories, &a.Nutrition.ProteinG, &a.Nutrition.FatG, &a.Nutrition.CarbsG,
		&a.Nutrition.FiberG, &a.Nutrition.SugarG, &a.Nutrition.SodiumMg,
		&a.ServingSize, &a.Nutrition.Source, &processingSeconds, &createdAt)
	if err != nil {
		return nil, err
	}
	a.ProcessingTime = time.Duration(processingSeconds * float64(time.Second))
	a.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at on analysis %s: %w", a.ID, err)
	}
	return &a, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
