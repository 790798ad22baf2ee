// Package testsupport opens throwaway databases and search indexes under the
// test's temp dir, migrated the same way the server migrates them.
package testsupport

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"boxoffice-tracker/internal/config"
	"boxoffice-tracker/internal/database"
	"boxoffice-tracker/internal/search"

	"github.com/rs/zerolog"
)

func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func MustOpenIndex(t *testing.T) *search.MovieIndex {
	t.Helper()

	cfg := &config.Config{IndexPath: filepath.Join(t.TempDir(), "test.bleve")}
	idx, err := search.Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

// InsertMovie seeds one catalog row directly. The movie repository is
// read-only, so tests write the catalog the way the import pipeline would.
func InsertMovie(t *testing.T, db *sql.DB, movieID int64, title, releaseDate string) {
	t.Helper()

	now := time.Now()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO movies (movie_id, title, release_date, overview, vote_average, poster_url, created_at, updated_at)
		 VALUES (?, ?, ?, '', 0, '', ?, ?)`,
		movieID, title, releaseDate, now, now)
	if err != nil {
		t.Fatalf("failed to seed movie %q: %v", title, err)
	}
}
