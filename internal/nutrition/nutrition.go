// Package nutrition resolves a food name to a normalized nutrition record
// through an ordered chain of data sources with durable caching.
package nutrition

import (
	"context"
	"strings"
)

// Source tags stamped on resolved records.
const (
	SourceUSDA          = "usda"
	SourceOpenFoodFacts = "openfoodfacts"
	SourceWebSearch     = "web_search"
	SourceStaticTable   = "mock_data"
	SourceDefault       = "default_fallback"
)

// Record holds nutrition facts per 100g serving.
type Record struct {
	Calories float64 `json:"calories_kcal"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
	FiberG   float64 `json:"fiber_g"`
	SugarG   float64 `json:"sugar_g"`
	SodiumMg float64 `json:"sodium_mg"`
	Source   string  `json:"source"`
}

// Source is one external nutrition data source. Lookup returns (nil, nil)
// when the source has no usable answer; errors are recoverable and only move
// resolution along the chain.
type Source interface {
	Name() string
	Lookup(ctx context.Context, food string) (*Record, error)
}

// IsFallback reports whether a source tag denotes locally fabricated data.
// Fallback results never count as successful nutrition searches and are
// never written to the cache.
func IsFallback(tag string) bool {
	switch tag {
	case SourceStaticTable, SourceDefault, "":
		return true
	}
	return false
}

// normalizeName maps a food label to its cache/lookup key.
func normalizeName(food string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(food), "_", " "))
}
