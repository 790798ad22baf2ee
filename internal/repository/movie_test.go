package repository

import (
	"context"
	"testing"

	"boxoffice-tracker/internal/testsupport"

	"github.com/rs/zerolog"
)

func TestGetByTitle(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.InsertMovie(t, db, 1, "Dune", "2021-10-20")
	testsupport.InsertMovie(t, db, 2, "Dune: Part Two", "2024-02-28")
	repo := NewMovieRepository(db, zerolog.Nop())
	ctx := context.Background()

	movie, err := repo.GetByTitle(ctx, "Dune")
	if err != nil {
		t.Fatalf("GetByTitle failed: %v", err)
	}
	if movie == nil || movie.MovieID != 1 {
		t.Fatalf("expected exact match on movie 1, got %+v", movie)
	}

	movie, err = repo.GetByTitle(ctx, "Dune: Part")
	if err != nil {
		t.Fatalf("GetByTitle failed: %v", err)
	}
	if movie != nil {
		t.Fatalf("partial title must not match exactly, got %+v", movie)
	}
}

func TestFindByTitleContaining(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.InsertMovie(t, db, 1, "Dune", "2021-10-20")
	testsupport.InsertMovie(t, db, 2, "Dune: Part Two", "2024-02-28")
	testsupport.InsertMovie(t, db, 3, "Wonka", "2024-01-31")
	repo := NewMovieRepository(db, zerolog.Nop())

	movies, err := repo.FindByTitleContaining(context.Background(), "Dune", 10)
	if err != nil {
		t.Fatalf("FindByTitleContaining failed: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(movies))
	}
	if movies[0].MovieID != 1 || movies[1].MovieID != 2 {
		t.Fatalf("expected movies 1 and 2 in id order, got %+v", movies)
	}
}

func TestFindByTitleAndYearRange(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	testsupport.InsertMovie(t, db, 1, "Dune", "2021-10-20")
	testsupport.InsertMovie(t, db, 2, "Dune: Part Two", "2024-02-28")
	repo := NewMovieRepository(db, zerolog.Nop())
	ctx := context.Background()

	movies, err := repo.FindByTitleAndYearRange(ctx, "Dune", 2024, 2024, 10)
	if err != nil {
		t.Fatalf("FindByTitleAndYearRange failed: %v", err)
	}
	if len(movies) != 1 || movies[0].MovieID != 2 {
		t.Fatalf("expected only the 2024 release, got %+v", movies)
	}

	movies, err = repo.FindByTitleAndYearRange(ctx, "Dune", 2020, 2024, 10)
	if err != nil {
		t.Fatalf("FindByTitleAndYearRange failed: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected both releases inside the window, got %+v", movies)
	}

	movies, err = repo.FindByTitleAndYearRange(ctx, "Dune", 2018, 2019, 10)
	if err != nil {
		t.Fatalf("FindByTitleAndYearRange failed: %v", err)
	}
	if len(movies) != 0 {
		t.Fatalf("expected no matches outside the window, got %+v", movies)
	}
}

func TestListPagesInIDOrder(t *testing.T) {
	db := testsupport.MustOpenDB(t)
	for id := int64(1); id <= 5; id++ {
		testsupport.InsertMovie(t, db, id, "Movie", "2024-01-01")
	}
	repo := NewMovieRepository(db, zerolog.Nop())
	ctx := context.Background()

	page, err := repo.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 || page[0].MovieID != 1 || page[1].MovieID != 2 {
		t.Fatalf("unexpected first page: %+v", page)
	}

	page, err = repo.List(ctx, page[len(page)-1].MovieID, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 3 || page[0].MovieID != 3 {
		t.Fatalf("unexpected second page: %+v", page)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 movies, got %d", count)
	}
}
