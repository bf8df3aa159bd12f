package learning

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/platewise/platewise/internal/storage"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCache(db, zap.NewNop(), 1.15, 95.0)
}

func TestLookupMissReturnsInputsUnchanged(t *testing.T) {
	c := newTestCache(t)

	food, conf := c.Lookup("Pizza", 72.5)
	assert.Equal(t, "Pizza", food)
	assert.Equal(t, 72.5, conf)
}

func TestLookupAppliesLearnedCorrection(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.RecordCorrection("hamburger", "cheeseburger", 70))

	food, conf := c.Lookup("Hamburger", 70)
	assert.Equal(t, "Cheeseburger", food)
	assert.InDelta(t, 80.5, conf, 0.001)
}

func TestLookupBoostNeverExceedsCeiling(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.RecordCorrection("hamburger", "cheeseburger", 90))

	for i := 0; i < 10; i++ {
		require.NoError(t, c.RecordCorrection("hamburger", "cheeseburger", 92))
		_, conf := c.Lookup("hamburger", 92)
		assert.LessOrEqual(t, conf, 95.0)
	}
}

func TestRecordCorrectionIncrementsOccurrenceCount(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.RecordCorrection("toast", "grilled cheese", 60))
	require.NoError(t, c.RecordCorrection("toast", "grilled cheese", 64))
	require.NoError(t, c.RecordCorrection("toast", "grilled cheese", 68))

	entries, err := c.Entries("toast")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].OccurrenceCount)
	assert.InDelta(t, 64.0, entries[0].AverageOriginalConfidence, 0.001)
	assert.Equal(t, 1.15, entries[0].ConfidenceBoost)
}

func TestRecordCorrectionRunningAverage(t *testing.T) {
	c := newTestCache(t)
	rng := rand.New(rand.NewSource(42))

	var sum float64
	const k = 25
	for i := 0; i < k; i++ {
		v := rng.Float64() * 100
		sum += v
		require.NoError(t, c.RecordCorrection("noodle", "ramen", v))
	}

	entries, err := c.Entries("noodle")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, k, entries[0].OccurrenceCount)
	assert.InDelta(t, sum/k, entries[0].AverageOriginalConfidence, 0.0001)
}

func TestLookupPrefersStrongestPattern(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.RecordCorrection("burger", "veggie burger", 55))
	require.NoError(t, c.RecordCorrection("burger", "cheeseburger", 60))
	require.NoError(t, c.RecordCorrection("burger", "cheeseburger", 65))

	food, _ := c.Lookup("burger", 70)
	assert.Equal(t, "Cheeseburger", food)
}

func TestRecordCorrectionNormalizesNames(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.RecordCorrection("  Hamburger ", "CHEESEBURGER", 70))
	require.NoError(t, c.RecordCorrection("hamburger", "cheeseburger", 72))

	entries, err := c.Entries("HAMBURGER")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].OccurrenceCount)
}

func TestEntriesSurfacesCorruptTimestamps(t *testing.T) {
	c := newTestCache(t)
	_, err := c.db.Conn().Exec(`
		INSERT INTO learning_cache (
			predicted_food, correct_food, occurrence_count, confidence_boost,
			average_original_confidence, success_rate, first_seen, last_seen
		) VALUES ('toast', 'grilled cheese', 1, 1.15, 60, 100, 'garbage', 'garbage')
	`)
	require.NoError(t, err)

	_, err = c.Entries("toast")
	assert.ErrorContains(t, err, "corrupt first_seen")
}

func TestRecordCorrectionRejectsEmptyNames(t *testing.T) {
	c := newTestCache(t)
	assert.Error(t, c.RecordCorrection("", "cheeseburger", 70))
	assert.Error(t, c.RecordCorrection("hamburger", "  ", 70))
}
