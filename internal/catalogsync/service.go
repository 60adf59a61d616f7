// Package catalogsync mirrors the external catalog's movies and genres into
// local storage.
package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/catalog"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/logger"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

// DefaultOverviewPlaceholder is stored when the catalog has no overview.
const DefaultOverviewPlaceholder = "No overview available."

// Report kinds.
const (
	KindMovies = "movies"
	KindGenres = "genres"
)

// MovieStore is the persistence the movie sync needs.
type MovieStore interface {
	UpsertFromCatalog(ctx context.Context, params repository.MovieUpsertParams) (domain.Movie, bool, error)
}

// GenreStore is the persistence the genre sync needs.
type GenreStore interface {
	EnsureExists(ctx context.Context, id int64) (bool, error)
	Upsert(ctx context.Context, id int64, name string) (domain.Genre, bool, error)
}

// SyncReport summarizes one sync run.
type SyncReport struct {
	Kind       string    `json:"kind"`
	Fetched    int       `json:"fetched"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r SyncReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Service runs catalog syncs.
type Service struct {
	client      catalog.Client
	movies      MovieStore
	genres      GenreStore
	placeholder string
	logger      *logger.Logger
	now         func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithOverviewPlaceholder overrides the text stored for missing overviews.
func WithOverviewPlaceholder(text string) Option {
	return func(s *Service) {
		if strings.TrimSpace(text) != "" {
			s.placeholder = text
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a sync service.
func NewService(client catalog.Client, movies MovieStore, genres GenreStore, opts ...Option) *Service {
	s := &Service{
		client:      client,
		movies:      movies,
		genres:      genres,
		placeholder: DefaultOverviewPlaceholder,
		logger:      logger.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncMovies fetches the discover listing and upserts every movie by its
// catalog id. The first storage failure stops the run; the partial report is
// returned alongside the error.
func (s *Service) SyncMovies(ctx context.Context) (SyncReport, error) {
	const op = "catalogsync.SyncMovies"
	report := SyncReport{Kind: KindMovies, StartedAt: s.now()}

	items, err := s.client.DiscoverMovies(ctx)
	if err != nil {
		return s.finish(report, upstreamError(op, err))
	}
	report.Fetched = len(items)

	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if item.ID <= 0 || title == "" {
			report.Skipped++
			continue
		}
		poster := nonBlank(item.PosterPath)
		if !domain.FitsColumn(title, domain.MaxTitleLength) || (poster != nil && !domain.FitsColumn(*poster, domain.MaxPosterPathLength)) {
			s.logger.Warn("catalogsync: movie skipped, field too long", "tmdb_id", item.ID)
			report.Skipped++
			continue
		}

		var genreID *int64
		if len(item.GenreIDs) > 0 {
			id := item.GenreIDs[0]
			if _, err := s.genres.EnsureExists(ctx, id); err != nil {
				return s.finish(report, apperr.Persistence(op, fmt.Errorf("ensure genre %d: %w", id, err)))
			}
			genreID = &id
		}

		_, inserted, err := s.movies.UpsertFromCatalog(ctx, repository.MovieUpsertParams{
			TMDBID:      item.ID,
			Title:       title,
			ReleaseDate: catalog.ParseReleaseDate(item.ReleaseDate),
			Overview:    s.overview(item.Overview),
			PosterPath:  poster,
			GenreID:     genreID,
			Popular:     true,
		})
		if err != nil {
			return s.finish(report, apperr.Persistence(op, fmt.Errorf("upsert movie %d: %w", item.ID, err)))
		}
		if inserted {
			report.Created++
		} else {
			report.Updated++
		}
	}
	return s.finish(report, nil)
}

// SyncGenres fetches the genre list and upserts each genre by id.
func (s *Service) SyncGenres(ctx context.Context) (SyncReport, error) {
	const op = "catalogsync.SyncGenres"
	report := SyncReport{Kind: KindGenres, StartedAt: s.now()}

	items, err := s.client.MovieGenres(ctx)
	if err != nil {
		return s.finish(report, upstreamError(op, err))
	}
	report.Fetched = len(items)

	for _, item := range items {
		if item.ID <= 0 {
			report.Skipped++
			continue
		}
		name := domain.UnknownGenreName
		if n := nonBlank(item.Name); n != nil {
			name = *n
		}
		_, inserted, err := s.genres.Upsert(ctx, item.ID, name)
		if err != nil {
			return s.finish(report, apperr.Persistence(op, fmt.Errorf("upsert genre %d: %w", item.ID, err)))
		}
		if inserted {
			report.Created++
		} else {
			report.Updated++
		}
	}
	return s.finish(report, nil)
}

// SyncAll syncs genres first so movie rows pick up real genre names.
func (s *Service) SyncAll(ctx context.Context) ([]SyncReport, error) {
	genres, err := s.SyncGenres(ctx)
	if err != nil {
		return []SyncReport{genres}, err
	}
	movies, err := s.SyncMovies(ctx)
	return []SyncReport{genres, movies}, err
}

func (s *Service) finish(report SyncReport, err error) (SyncReport, error) {
	report.FinishedAt = s.now()
	kv := []interface{}{
		"kind", report.Kind,
		"fetched", report.Fetched,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"duration", report.Duration(),
	}
	if err != nil {
		s.logger.Error("catalogsync: run failed", append(kv, "error", err)...)
		return report, err
	}
	s.logger.Info("catalogsync: run finished", kv...)
	return report, nil
}

func (s *Service) overview(raw *string) string {
	if v := nonBlank(raw); v != nil {
		return *v
	}
	return s.placeholder
}

func upstreamError(op string, err error) error {
	var upErr *catalog.UpstreamError
	switch {
	case errors.As(err, &upErr):
		return apperr.Upstream(op, fmt.Sprintf("catalog returned status %d", upErr.Status), err)
	case errors.Is(err, catalog.ErrTransport):
		return apperr.Upstream(op, "catalog unreachable", err)
	case errors.Is(err, catalog.ErrDecode):
		return apperr.Upstream(op, "catalog returned an unreadable response", err)
	default:
		return apperr.Upstream(op, "catalog request failed", err)
	}
}

func nonBlank(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
