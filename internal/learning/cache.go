// Package learning accumulates user corrections of mispredicted foods and
// replays them against future predictions of the same class.
package learning

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/platewise/platewise/internal/rank"
	"github.com/platewise/platewise/internal/storage"
	"go.uber.org/zap"
)

// Entry is one learned (predicted, correct) pattern.
type Entry struct {
	PredictedFood             string
	CorrectFood               string
	OccurrenceCount           int
	ConfidenceBoost           float64
	AverageOriginalConfidence float64
	SuccessRate               float64
	FirstSeen                 time.Time
	LastSeen                  time.Time
}

// Cache is the durable learning cache. All read-modify-write cycles for
// correction pairs serialize through the mutex; lost updates would corrupt
// the occurrence counters and running averages.
type Cache struct {
	db      *storage.DB
	logger  *zap.Logger
	boost   float64
	ceiling float64
	mu      sync.Mutex
}

// NewCache creates a learning cache over the shared database. boost is the
// confidence multiplier stamped on new entries; ceiling caps any boosted
// confidence.
func NewCache(db *storage.DB, logger *zap.Logger, boost, ceiling float64) *Cache {
	return &Cache{db: db, logger: logger, boost: boost, ceiling: ceiling}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup consults the cache for a learned correction of the predicted food.
// When a pattern exists, the strongest one (highest occurrence count, most
// recently seen) wins: the corrected name is returned title-cased with the
// confidence scaled by the entry's boost, capped at the ceiling. On a miss
// or any storage failure the inputs come back unchanged; a failed lookup
// must never break the prediction itself.
func (c *Cache) Lookup(predicted string, confidence float64) (string, float64) {
	key := normalize(predicted)
	if key == "" {
		return predicted, confidence
	}

	var correct string
	var boost float64
	err := c.db.Conn().QueryRow(`
		SELECT correct_food, confidence_boost
		FROM learning_cache
		WHERE predicted_food = ?
		ORDER BY occurrence_count DESC, last_seen DESC
		LIMIT 1
	`, key).Scan(&correct, &boost)
	if err == sql.ErrNoRows {
		return predicted, confidence
	}
	if err != nil {
		c.logger.Error("learning cache lookup failed", zap.String("predicted", key), zap.Error(err))
		return predicted, confidence
	}

	boosted := math.Min(confidence*boost, c.ceiling)
	c.logger.Info("applied learned correction",
		zap.String("predicted", key),
		zap.String("correct", correct),
		zap.Float64("confidence", boosted))
	return rank.Title(correct), boosted
}

// RecordCorrection learns from one corrective feedback event. A new
// (predicted, correct) pair starts at occurrence count 1; a repeat increments
// the count and folds the submitted confidence into the running average.
func (c *Cache) RecordCorrection(predicted, correct string, originalConfidence float64) error {
	predKey := normalize(predicted)
	corrKey := normalize(correct)
	if predKey == "" || corrKey == "" {
		return fmt.Errorf("empty food name in correction %q -> %q", predicted, correct)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	var id int64
	var count int
	var avg float64
	err = tx.QueryRow(`
		SELECT id, occurrence_count, average_original_confidence
		FROM learning_cache
		WHERE predicted_food = ? AND correct_food = ?
	`, predKey, corrKey).Scan(&id, &count, &avg)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO learning_cache (
				predicted_food, correct_food, occurrence_count, confidence_boost,
				average_original_confidence, success_rate, first_seen, last_seen
			) VALUES (?, ?, 1, ?, ?, 100, ?, ?)
		`, predKey, corrKey, c.boost, originalConfidence, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert learning entry: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to query learning entry: %w", err)
	default:
		n := count + 1
		newAvg := (avg*float64(n-1) + originalConfidence) / float64(n)
		_, err = tx.Exec(`
			UPDATE learning_cache
			SET occurrence_count = ?, average_original_confidence = ?, last_seen = ?
			WHERE id = ?
		`, n, newAvg, now, id)
		if err != nil {
			return fmt.Errorf("failed to update learning entry: %w", err)
		}
	}

	return tx.Commit()
}

// Entries returns every learned pattern for the predicted food, strongest
// first. Used by the stats CLI.
func (c *Cache) Entries(predicted string) ([]Entry, error) {
	rows, err := c.db.Conn().Query(`
		SELECT predicted_food, correct_food, occurrence_count, confidence_boost,
		       average_original_confidence, success_rate, first_seen, last_seen
		FROM learning_cache
		WHERE predicted_food = ?
		ORDER BY occurrence_count DESC, last_seen DESC
	`, normalize(predicted))
	if err != nil {
		return nil, fmt.Errorf("failed to query learning entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var first, last string
		if err := rows.Scan(&e.PredictedFood, &e.CorrectFood, &e.OccurrenceCount,
			&e.ConfidenceBoost, &e.AverageOriginalConfidence, &e.SuccessRate,
			&first, &last); err != nil {
			return nil, err
		}
		if e.FirstSeen, err = time.Parse(time.RFC3339, first); err != nil {
			return nil, fmt.Errorf("corrupt first_seen on %q -> %q: %w", e.PredictedFood, e.CorrectFood, err)
		}
		if e.LastSeen, err = time.Parse(time.RFC3339, last); err != nil {
			return nil, fmt.Errorf("corrupt last_seen on %q -> %q: %w", e.PredictedFood, e.CorrectFood, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
