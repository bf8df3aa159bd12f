package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "dir", "test.sqlite3"))
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.Conn().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)

	for _, table := range []string{"analyses", "feedback", "learning_cache", "nutrition_cache", "daily_statistics"} {
		var name string
		err := db.Conn().QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite3")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.Conn().Exec(`INSERT INTO nutrition_cache (food_name, source, cached_at) VALUES ('pizza', 'usda', '2026-08-30T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM nutrition_cache`).Scan(&count))
	assert.Equal(t, 1, count)
}
