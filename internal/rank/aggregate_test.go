package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platewise/platewise/internal/vision"
)

func pred(model, label string, conf, weight float64) vision.Prediction {
	return vision.Prediction{ModelID: model, VariationID: "original", Label: label, Confidence: conf, Weight: weight}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hot dog", Normalize("Hot_Dog"))
	assert.Equal(t, "french fries", Normalize("  French Fries "))
	assert.Equal(t, "pizza", Normalize("PIZZA"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Hot Dog", Title("hot dog"))
	assert.Equal(t, "Pad Thai", Title("pad thai"))
}

func TestAggregateAgreementOutranksLoneVote(t *testing.T) {
	// Same raw confidence everywhere: the class two models agree on must
	// win purely on the agreement bonus.
	got := Aggregate([]vision.Prediction{
		pred("a", "pizza", 0.5, 0.33),
		pred("b", "hot_dog", 0.5, 0.33),
		pred("c", "hot dog", 0.5, 0.33),
	}, 3)

	assert.Equal(t, "Hot Dog", got.Label)
	assert.Equal(t, 2, got.ModelAgreement)
	assert.InDelta(t, 23.17, got.ConfidencePct, 0.01)
}

func TestAggregateGroupsAcrossLabelSpellings(t *testing.T) {
	got := Aggregate([]vision.Prediction{
		pred("a", "Hot_Dog", 0.6, 0.5),
		pred("b", "hot dog", 0.4, 0.5),
	}, 2)

	assert.Equal(t, "Hot Dog", got.Label)
	assert.Equal(t, 2, got.ModelAgreement)
	// mean of 0.30 and 0.20 plus the full agreement bonus.
	assert.InDelta(t, 35.0, got.ConfidencePct, 0.01)
	assert.InDelta(t, 60.0, got.MaxConfidencePct, 0.01)
}

func TestAggregateFiltersNonFoodLabels(t *testing.T) {
	got := Aggregate([]vision.Prediction{
		pred("a", "laptop", 0.99, 1.0),
		pred("b", "keyboard", 0.95, 1.0),
	}, 2)

	assert.Equal(t, UnknownFood, got.Label)
	assert.Zero(t, got.ConfidencePct)
}

func TestAggregateSkipsNonFoodTopEntry(t *testing.T) {
	// A dominant non-food class must not mask a real food class below it.
	got := Aggregate([]vision.Prediction{
		pred("a", "dining table", 0.95, 1.0),
		pred("a", "sushi", 0.40, 1.0),
	}, 1)

	assert.Equal(t, "Sushi", got.Label)
}

func TestAggregateEmptyInput(t *testing.T) {
	got := Aggregate(nil, 3)
	assert.Equal(t, UnknownFood, got.Label)
}

func TestAggregateConfidenceCappedAtHundred(t *testing.T) {
	// Full-weight unanimous vote at confidence 1.0 would score 110 uncapped.
	got := Aggregate([]vision.Prediction{
		pred("a", "pizza", 1.0, 1.0),
	}, 1)

	assert.Equal(t, "Pizza", got.Label)
	assert.Equal(t, 100.0, got.ConfidencePct)
}

func TestAggregateDeterministicTieBreak(t *testing.T) {
	// Identical score, count and peak confidence: lexicographic label order
	// settles it, run after run.
	in := []vision.Prediction{
		pred("a", "taco", 0.5, 0.5),
		pred("a", "burrito", 0.5, 0.5),
	}
	for i := 0; i < 20; i++ {
		got := Aggregate(in, 1)
		assert.Equal(t, "Burrito", got.Label)
	}
}

func TestIsFoodLabelSubstrings(t *testing.T) {
	assert.True(t, isFoodLabel("cheeseburger"))
	assert.True(t, isFoodLabel("hot dog"))
	assert.True(t, isFoodLabel("chocolate ice cream"))
	assert.False(t, isFoodLabel("screwdriver set"))
	assert.False(t, isFoodLabel("monitor"))
}
