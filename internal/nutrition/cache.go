package nutrition

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/platewise/platewise/internal/storage"
)

// Cache is the durable nutrition lookup cache. Entries older than the TTL
// are treated as absent and overwritten by the next successful resolution;
// nothing is ever purged.
type Cache struct {
	db  *storage.DB
	ttl time.Duration
}

// NewCache creates a nutrition cache with the given freshness window.
func NewCache(db *storage.DB, ttl time.Duration) *Cache {
	return &Cache{db: db, ttl: ttl}
}

// Get returns the cached record for the food when a fresh entry exists.
// A miss or a stale entry returns (nil, nil).
func (c *Cache) Get(food string) (*Record, error) {
	var rec Record
	var cachedAt string
	err := c.db.Conn().QueryRow(`
		SELECT calories_kcal, protein_g, fat_g, carbs_g, fiber_g, sugar_g, sodium_mg, source, cached_at
		FROM nutrition_cache
		WHERE food_name = ?
	`, normalizeName(food)).Scan(
		&rec.Calories, &rec.ProteinG, &rec.FatG, &rec.CarbsG,
		&rec.FiberG, &rec.SugarG, &rec.SodiumMg, &rec.Source, &cachedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query nutrition cache: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, cachedAt)
	if err != nil || time.Since(ts) >= c.ttl {
		return nil, nil
	}

	return &rec, nil
}

// Put stores or overwrites the record for the food, timestamped now.
func (c *Cache) Put(food string, rec *Record) error {
	_, err := c.db.Conn().Exec(`
		INSERT INTO nutrition_cache (
			food_name, calories_kcal, protein_g, fat_g, carbs_g, fiber_g, sugar_g, sodium_mg, source, cached_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(food_name) DO UPDATE SET
			calories_kcal = excluded.calories_kcal,
			protein_g = excluded.protein_g,
			fat_g = excluded.fat_g,
			carbs_g = excluded.carbs_g,
			fiber_g = excluded.fiber_g,
			sugar_g = excluded.sugar_g,
			sodium_mg = excluded.sodium_mg,
			source = excluded.source,
			cached_at = excluded.cached_at
	`, normalizeName(food), rec.Calories, rec.ProteinG, rec.FatG, rec.CarbsG,
		rec.FiberG, rec.SugarG, rec.SodiumMg, rec.Source,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write nutrition cache: %w", err)
	}
	return nil
}
