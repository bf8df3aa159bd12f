// Package analyzer orchestrates the full analysis pipeline: ensemble
// inference, ranking, learned-correction replay, nutrition resolution and
// bookkeeping. It is the surface the HTTP layer and CLI call into.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/platewise/platewise/internal/learning"
	"github.com/platewise/platewise/internal/nutrition"
	"github.com/platewise/platewise/internal/rank"
	"github.com/platewise/platewise/internal/stats"
	"github.com/platewise/platewise/internal/vision"
	"go.uber.org/zap"
)

// ErrAnalysisNotFound indicates feedback referenced an unknown analysis.
var ErrAnalysisNotFound = errors.New("analysis not found")

// ErrInvalidFeedback indicates a feedback submission outside the accepted
// type/reason vocabulary.
var ErrInvalidFeedback = errors.New("invalid feedback")

// Feedback vocabulary, mirroring the stored rows.
var (
	validFeedbackTypes = map[string]struct{}{
		"perfect": {}, "close": {}, "wrong": {}, "correction": {}, "confirmation": {},
	}
	validCorrectionReasons = map[string]struct{}{
		"similar_looking": {}, "different_prep": {}, "wrong_category": {}, "image_quality": {}, "other": {},
	}
)

// Analysis is one completed food analysis. Immutable once persisted.
type Analysis struct {
	ID               string           `json:"id"`
	FoodName         string           `json:"food_name"`
	ConfidencePct    float64          `json:"confidence"`
	MaxConfidencePct float64          `json:"max_confidence"`
	ModelAgreement   int              `json:"model_agreement"`
	Nutrition        nutrition.Record `json:"nutrition"`
	ServingSize      string           `json:"serving_size"`
	ProcessingTime   time.Duration    `json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
}

// FeedbackRequest is one user feedback submission against an analysis.
type FeedbackRequest struct {
	AnalysisID       string
	FeedbackType     string
	CorrectFood      string
	CorrectionReason string
	Notes            string
}

// Service wires the pipeline components together.
type Service struct {
	ensemble  *vision.Ensemble
	learning  *learning.Cache
	nutrition *nutrition.Resolver
	stats     *stats.Service
	store     *Store
	logger    *zap.Logger
}

// NewService creates the analyzer service.
func NewService(ensemble *vision.Ensemble, lc *learning.Cache, nr *nutrition.Resolver, st *stats.Service, store *Store, logger *zap.Logger) *Service {
	return &Service{
		ensemble:  ensemble,
		learning:  lc,
		nutrition: nr,
		stats:     st,
		store:     store,
		logger:    logger,
	}
}

// Analyze runs the full pipeline over one image. Only decode and
// classification failures surface; every enrichment or bookkeeping failure
// degrades so the caller still gets a best-effort answer.
func (s *Service) Analyze(ctx context.Context, imageBytes []byte) (*Analysis, error) {
	start := time.Now()

	predictions, err := s.ensemble.Run(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	prediction := rank.Aggregate(predictions, s.ensemble.Size())
	label, confidence := s.learning.Lookup(prediction.Label, prediction.ConfidencePct)

	record := s.nutrition.Resolve(ctx, label)

	elapsed := time.Since(start)
	analysis := &Analysis{
		ID:               uuid.NewString(),
		FoodName:         label,
		ConfidencePct:    confidence,
		MaxConfidencePct: prediction.MaxConfidencePct,
		ModelAgreement:   prediction.ModelAgreement,
		Nutrition:        *record,
		ServingSize:      "100g",
		ProcessingTime:   elapsed,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.store.SaveAnalysis(analysis); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	if err := s.stats.RecordPrediction(confidence, elapsed, record.Source); err != nil {
		s.logger.Error("statistics update failed", zap.String("analysis", analysis.ID), zap.Error(err))
	}

	s.logger.Info("analysis complete",
		zap.String("analysis", analysis.ID),
		zap.String("food", label),
		zap.Float64("confidence", confidence),
		zap.Int("model_agreement", prediction.ModelAgreement),
		zap.String("nutrition_source", record.Source),
		zap.Duration("elapsed", elapsed))

	return analysis, nil
}

// SubmitFeedback records user feedback against a prior analysis. Corrective
// feedback with a corrected name feeds the learning cache; every feedback
// event feeds the daily statistics. Auxiliary update failures are logged,
// never surfaced.
func (s *Service) SubmitFeedback(ctx context.Context, req FeedbackRequest) error {
	if _, ok := validFeedbackTypes[req.FeedbackType]; !ok {
		return fmt.Errorf("%w: unknown feedback type %q", ErrInvalidFeedback, req.FeedbackType)
	}
	if req.CorrectionReason != "" {
		if _, ok := validCorrectionReasons[req.CorrectionReason]; !ok {
			return fmt.Errorf("%w: unknown correction reason %q", ErrInvalidFeedback, req.CorrectionReason)
		}
	}

	analysis, err := s.store.GetAnalysis(req.AnalysisID)
	if err != nil {
		return fmt.Errorf("failed to load analysis: %w", err)
	}
	if analysis == nil {
		return fmt.Errorf("%w: %s", ErrAnalysisNotFound, req.AnalysisID)
	}

	if err := s.store.SaveFeedback(analysis, req); err != nil {
		return fmt.Errorf("failed to persist feedback: %w", err)
	}

	if (req.FeedbackType == "correction" || req.FeedbackType == "wrong") && req.CorrectFood != "" {
		if err := s.learning.RecordCorrection(analysis.FoodName, req.CorrectFood, analysis.ConfidencePct); err != nil {
			s.logger.Error("learning cache update failed",
				zap.String("analysis", analysis.ID),
				zap.String("correct_food", req.CorrectFood),
				zap.Error(err))
		}
	}

	if err := s.stats.RecordFeedback(req.FeedbackType, analysis.ConfidencePct); err != nil {
		s.logger.Error("statistics update failed", zap.String("analysis", analysis.ID), zap.Error(err))
	}

	return nil
}

// DailyStatistics returns the statistics view for a date (YYYY-MM-DD), or
// the most recent one when date is empty.
func (s *Service) DailyStatistics(date string) (*stats.Daily, error) {
	if date == "" {
		return s.stats.Latest()
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return s.stats.Get(date)
}

// Recent returns the latest analyses, newest first.
func (s *Service) Recent(limit int) ([]Analysis, error) {
	return s.store.Recent(limit)
}
