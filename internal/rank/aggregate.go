// Package rank merges raw ensemble predictions into a single ranked food
// identification: weighted per-class scores with a multi-model agreement
// bonus, deterministic ordering and a food-vocabulary filter.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/platewise/platewise/internal/vision"
)

// UnknownFood is reported when no prediction survives the food filter.
const UnknownFood = "Unknown Food Item"

// maxAgreementBonus is added in full when every model voted for a class.
const maxAgreementBonus = 0.1

// ClassScore accumulates all observations of one normalized class label
// across every (model, variation) run.
type ClassScore struct {
	Label         string
	TotalWeighted float64
	Count         int
	MaxConfidence float64
}

// FoodPrediction is the final output of one inference call.
type FoodPrediction struct {
	Label            string
	ConfidencePct    float64 // 0..100
	MaxConfidencePct float64 // 0..100
	ModelAgreement   int
}

// Normalize maps a raw classifier label to its grouping key:
// lowercase with underscores turned into spaces.
func Normalize(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), "_", " ")
}

// Title renders a normalized label in human-readable title case.
func Title(normalized string) string {
	words := strings.Fields(normalized)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Aggregate reduces the flat prediction list to the single best food class.
// modelCount is the roster size used to scale the agreement bonus.
func Aggregate(predictions []vision.Prediction, modelCount int) FoodPrediction {
	groups := make(map[string]*ClassScore)
	for _, p := range predictions {
		key := Normalize(p.Label)
		if key == "" {
			continue
		}
		cs, ok := groups[key]
		if !ok {
			cs = &ClassScore{Label: key}
			groups[key] = cs
		}
		cs.TotalWeighted += p.Confidence * p.Weight
		cs.Count++
		if p.Confidence > cs.MaxConfidence {
			cs.MaxConfidence = p.Confidence
		}
	}

	type scored struct {
		ClassScore
		final float64
	}

	ranked := make([]scored, 0, len(groups))
	for _, cs := range groups {
		mean := cs.TotalWeighted / float64(cs.Count)
		bonus := maxAgreementBonus
		if modelCount > 0 {
			bonus = math.Min(float64(cs.Count)/float64(modelCount), 1.0) * maxAgreementBonus
		}
		ranked = append(ranked, scored{ClassScore: *cs, final: mean + bonus})
	}

	// Deterministic order: score, then observation count, then peak
	// confidence, then label.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].final != ranked[j].final {
			return ranked[i].final > ranked[j].final
		}
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		if ranked[i].MaxConfidence != ranked[j].MaxConfidence {
			return ranked[i].MaxConfidence > ranked[j].MaxConfidence
		}
		return ranked[i].Label < ranked[j].Label
	})

	for _, r := range ranked {
		if !isFoodLabel(r.Label) {
			continue
		}
		return FoodPrediction{
			Label:            Title(r.Label),
			ConfidencePct:    math.Min(r.final*100, 100),
			MaxConfidencePct: r.MaxConfidence * 100,
			ModelAgreement:   r.Count,
		}
	}

	return FoodPrediction{Label: UnknownFood, ConfidencePct: 0}
}
