package repository

import (
	"context"
	"testing"

	"boxoffice-tracker/internal/testsupport"

	"github.com/rs/zerolog"
)

func TestPromoteIsIdempotent(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.InsertMovie(t, db, 42, "Dune", "2024-02-28")
	repo := NewRankingRepository(db, zerolog.Nop())
	ctx := context.Background()
	date := testDate(1)

	promoted, err := repo.Promote(ctx, 42, date, 1, 500000)
	if err != nil {
		t.Fatalf("first Promote failed: %v", err)
	}
	if !promoted {
		t.Fatal("first Promote should insert")
	}

	promoted, err = repo.Promote(ctx, 42, date, 2, 999999)
	if err != nil {
		t.Fatalf("second Promote failed: %v", err)
	}
	if promoted {
		t.Fatal("second Promote with the same (movie, date) must be a no-op")
	}

	rows, err := repo.ListByDate(ctx, date)
	if err != nil {
		t.Fatalf("ListByDate failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one promoted row, got %d", len(rows))
	}
	if rows[0].Rank != 1 || rows[0].Audience != 500000 {
		t.Fatalf("re-promotion must not clobber the original row, got %+v", rows[0])
	}
}

func TestListByDateJoinsCatalog(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.InsertMovie(t, db, 1, "Exhuma", "2024-02-22")
	testsupport.InsertMovie(t, db, 2, "Wonka", "2024-01-31")
	repo := NewRankingRepository(db, zerolog.Nop())
	ctx := context.Background()
	date := testDate(1)

	if _, err := repo.Promote(ctx, 2, date, 2, 200000); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if _, err := repo.Promote(ctx, 1, date, 1, 300000); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	rows, err := repo.ListByDate(ctx, date)
	if err != nil {
		t.Fatalf("ListByDate failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Title != "Exhuma" || rows[1].Title != "Wonka" {
		t.Fatalf("expected rank order Exhuma, Wonka; got %q, %q", rows[0].Title, rows[1].Title)
	}
	if rows[0].MovieID == nil || *rows[0].MovieID != 1 {
		t.Fatalf("expected movie id 1, got %+v", rows[0].MovieID)
	}
	if !rows[0].Resolved {
		t.Fatal("promoted rows are always resolved")
	}
	if rows[0].ReleaseDate != "2024-02-22" {
		t.Fatalf("expected joined release date, got %q", rows[0].ReleaseDate)
	}
}

func TestLatestDateAndRecentDates(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.InsertMovie(t, db, 1, "Exhuma", "2024-02-22")
	repo := NewRankingRepository(db, zerolog.Nop())
	ctx := context.Background()

	latest, err := repo.LatestDate(ctx)
	if err != nil {
		t.Fatalf("LatestDate on empty table failed: %v", err)
	}
	if !latest.IsZero() {
		t.Fatalf("expected zero time for empty table, got %v", latest)
	}

	for day := 1; day <= 3; day++ {
		if _, err := repo.Promote(ctx, 1, testDate(day), 1, 100000); err != nil {
			t.Fatalf("Promote failed: %v", err)
		}
	}

	latest, err = repo.LatestDate(ctx)
	if err != nil {
		t.Fatalf("LatestDate failed: %v", err)
	}
	if !latest.Equal(testDate(3)) {
		t.Fatalf("expected %v, got %v", testDate(3), latest)
	}

	dates, err := repo.RecentDates(ctx, 2)
	if err != nil {
		t.Fatalf("RecentDates failed: %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(dates))
	}
	if !dates[0].Equal(testDate(3)) || !dates[1].Equal(testDate(2)) {
		t.Fatalf("expected newest-first dates, got %v", dates)
	}
}
