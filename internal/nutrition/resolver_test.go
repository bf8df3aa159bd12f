package nutrition

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/platewise/platewise/internal/storage"
)

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestResolver(t *testing.T, sources ...Source) *Resolver {
	t.Helper()
	cache := NewCache(newTestDB(t), 7*24*time.Hour)
	return NewResolver(cache, sources, 5*time.Second, zap.NewNop())
}

func TestResolveFallsThroughToStaticTable(t *testing.T) {
	// First source is down, second extracts only calories from free text
	// which is below the two-field minimum: the static table must answer.
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	caloriesOnly := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "A slice has about 266 calories per serving.")
	}))
	defer caloriesOnly.Close()

	r := newTestResolver(t,
		NewOpenFoodFactsSource(failing.URL, time.Second),
		NewWebSearchSource(caloriesOnly.URL, time.Second),
	)

	rec := r.Resolve(context.Background(), "pizza")
	require.NotNil(t, rec)
	assert.Equal(t, SourceStaticTable, rec.Source)
	assert.Equal(t, 266.0, rec.Calories)
	assert.Equal(t, 11.0, rec.ProteinG)
	assert.Equal(t, 10.0, rec.FatG)
	assert.Equal(t, 33.0, rec.CarbsG)
}

func TestResolveDefaultsWhenNothingMatches(t *testing.T) {
	r := newTestResolver(t)

	rec := r.Resolve(context.Background(), "zzzz unmatched")
	require.NotNil(t, rec)
	assert.Equal(t, SourceDefault, rec.Source)
	assert.Equal(t, 200.0, rec.Calories)
	assert.Equal(t, 25.0, rec.CarbsG)
	assert.Equal(t, 100.0, rec.SodiumMg)
}

func TestResolveCachesExternalResult(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"products":[{"nutriments":{"energy-kcal_100g":89,"proteins_100g":1.1,"carbohydrates_100g":23,"fat_100g":0.3}}]}`)
	}))
	defer srv.Close()

	r := newTestResolver(t, NewOpenFoodFactsSource(srv.URL, time.Second))

	first := r.Resolve(context.Background(), "banana")
	second := r.Resolve(context.Background(), "banana")

	assert.Equal(t, 1, calls)
	assert.Equal(t, SourceOpenFoodFacts, first.Source)
	assert.Equal(t, first, second)
}

func TestResolveNeverCachesFallbacks(t *testing.T) {
	db := newTestDB(t)
	cache := NewCache(db, 7*24*time.Hour)
	r := NewResolver(cache, nil, time.Second, zap.NewNop())

	rec := r.Resolve(context.Background(), "pizza")
	assert.Equal(t, SourceStaticTable, rec.Source)

	cached, err := cache.Get("pizza")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestResolveSourceOrder(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products":[{"nutriments":{"energy-kcal_100g":100,"proteins_100g":5}}]}`)
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products":[{"nutriments":{"energy-kcal_100g":999}}]}`)
	}))
	defer second.Close()

	r := newTestResolver(t,
		NewOpenFoodFactsSource(first.URL, time.Second),
		NewOpenFoodFactsSource(second.URL, time.Second),
	)

	rec := r.Resolve(context.Background(), "banana")
	assert.Equal(t, 100.0, rec.Calories)
}

func TestResolveSkipsZeroCalorieResults(t *testing.T) {
	// A source that answers but with no calories moves resolution along.
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products":[{"nutriments":{"proteins_100g":5}}]}`)
	}))
	defer empty.Close()

	r := newTestResolver(t, NewOpenFoodFactsSource(empty.URL, time.Second))

	rec := r.Resolve(context.Background(), "pizza")
	assert.Equal(t, SourceStaticTable, rec.Source)
}

func TestCacheStaleEntryIsAMiss(t *testing.T) {
	db := newTestDB(t)
	cache := NewCache(db, 50*time.Millisecond)

	require.NoError(t, cache.Put("banana", &Record{Calories: 89, Source: SourceUSDA}))

	rec, err := cache.Get("banana")
	require.NoError(t, err)
	require.NotNil(t, rec)

	time.Sleep(60 * time.Millisecond)

	rec, err = cache.Get("banana")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCacheNormalizesFoodKeys(t *testing.T) {
	db := newTestDB(t)
	cache := NewCache(db, time.Hour)

	require.NoError(t, cache.Put("Hot_Dog", &Record{Calories: 290, Source: SourceUSDA}))

	rec, err := cache.Get("hot dog")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 290.0, rec.Calories)
}
