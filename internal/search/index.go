// Package search wraps an embedded full-text index over catalog titles. The
// matcher treats it as a black box: exact phrase, substring, fuzzy, first hit
// wins.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"boxoffice-tracker/internal/config"
	"boxoffice-tracker/internal/domain"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/rs/zerolog"
)

// Document is the slice of a catalog entry the index stores and returns.
type Document struct {
	MovieID     int64
	Title       string
	ReleaseDate string
}

type indexedMovie struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

type MovieIndex struct {
	idx    bleve.Index
	logger zerolog.Logger
}

func Open(cfg *config.Config, logger zerolog.Logger) (*MovieIndex, error) {
	idx, err := bleve.Open(cfg.IndexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		logger.Info().Str("path", cfg.IndexPath).Msg("creating search index")
		idx, err = bleve.New(cfg.IndexPath, buildMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}
	return &MovieIndex{idx: idx, logger: logger}, nil
}

func buildMapping() mapping.IndexMapping {
	movieMapping := bleve.NewDocumentMapping()
	movieMapping.Dynamic = false

	titleField := bleve.NewTextFieldMapping()
	titleField.Store = true
	movieMapping.AddFieldMappingsAt("title", titleField)

	releaseField := bleve.NewKeywordFieldMapping()
	releaseField.Store = true
	movieMapping.AddFieldMappingsAt("release_date", releaseField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = movieMapping
	return indexMapping
}

func (i *MovieIndex) Close() error {
	return i.idx.Close()
}

// IndexMovies upserts one batch of catalog entries, keyed by movie id.
func (i *MovieIndex) IndexMovies(movies []domain.Movie) error {
	batch := i.idx.NewBatch()
	for _, m := range movies {
		doc := indexedMovie{Title: m.Title, ReleaseDate: m.ReleaseDate}
		if err := batch.Index(strconv.FormatInt(m.MovieID, 10), doc); err != nil {
			return fmt.Errorf("failed to add movie %d to batch: %w", m.MovieID, err)
		}
	}
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to index batch: %w", err)
	}
	return nil
}

func (i *MovieIndex) DocCount() (uint64, error) {
	return i.idx.DocCount()
}

// ExactPhrase returns the top hit for an exact phrase title match, or nil.
func (i *MovieIndex) ExactPhrase(ctx context.Context, title string) (*Document, error) {
	q := bleve.NewMatchPhraseQuery(title)
	q.SetField("title")
	return i.firstHit(ctx, bleve.NewSearchRequestOptions(q, 1, 0, false))
}

// Substring returns the top hit whose title contains the query as a
// substring of an indexed term, or nil.
func (i *MovieIndex) Substring(ctx context.Context, title string) (*Document, error) {
	q := bleve.NewWildcardQuery("*" + strings.ToLower(title) + "*")
	q.SetField("title")
	return i.firstHit(ctx, bleve.NewSearchRequestOptions(q, 1, 0, false))
}

// Fuzzy returns the top edit-distance-tolerant hit, or nil.
func (i *MovieIndex) Fuzzy(ctx context.Context, title string) (*Document, error) {
	q := bleve.NewMatchQuery(title)
	q.SetField("title")
	q.SetFuzziness(2)
	return i.firstHit(ctx, bleve.NewSearchRequestOptions(q, 1, 0, false))
}

func (i *MovieIndex) firstHit(ctx context.Context, req *bleve.SearchRequest) (*Document, error) {
	req.Fields = []string{"title", "release_date"}
	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search index query failed: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}

	hit := res.Hits[0]
	movieID, err := strconv.ParseInt(hit.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("non-numeric document id %q in search index: %w", hit.ID, err)
	}
	doc := &Document{MovieID: movieID}
	if title, ok := hit.Fields["title"].(string); ok {
		doc.Title = title
	}
	if release, ok := hit.Fields["release_date"].(string); ok {
		doc.ReleaseDate = release
	}
	return doc, nil
}
