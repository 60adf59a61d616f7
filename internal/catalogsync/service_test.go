package catalogsync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/catalog"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/repository"
)

type fakeClient struct {
	movies    []catalog.MovieItem
	genres    []catalog.GenreItem
	moviesErr error
	genresErr error
}

func (f *fakeClient) DiscoverMovies(context.Context) ([]catalog.MovieItem, error) {
	return f.movies, f.moviesErr
}

func (f *fakeClient) MovieGenres(context.Context) ([]catalog.GenreItem, error) {
	return f.genres, f.genresErr
}

type memoryStore struct {
	mu        sync.Mutex
	movies    map[int64]repository.MovieUpsertParams
	genres    map[int64]string
	failAfter int
	calls     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		movies:    make(map[int64]repository.MovieUpsertParams),
		genres:    make(map[int64]string),
		failAfter: -1,
	}
}

func (m *memoryStore) UpsertFromCatalog(_ context.Context, p repository.MovieUpsertParams) (domain.Movie, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && m.calls >= m.failAfter {
		return domain.Movie{}, false, errors.New("disk full")
	}
	m.calls++
	_, exists := m.movies[p.TMDBID]
	m.movies[p.TMDBID] = p
	return domain.Movie{TMDBID: p.TMDBID, Title: p.Title}, !exists, nil
}

func (m *memoryStore) EnsureExists(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.genres[id]; ok {
		return false, nil
	}
	m.genres[id] = domain.UnknownGenreName
	return true, nil
}

func (m *memoryStore) Upsert(_ context.Context, id int64, name string) (domain.Genre, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.genres[id]
	m.genres[id] = name
	return domain.Genre{ID: id, Name: name}, !exists, nil
}

func strPtr(s string) *string { return &s }

func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestSyncMovies_CreatesThenUpdates(t *testing.T) {
	client := &fakeClient{movies: []catalog.MovieItem{
		{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15", Overview: strPtr("Dreams"), PosterPath: strPtr("/i.jpg"), GenreIDs: []int64{28, 878}},
		{ID: 603, Title: "The Matrix", Overview: strPtr("   "), GenreIDs: nil},
	}}
	store := newMemoryStore()
	svc := NewService(client, store, store, WithClock(fixedClock()))

	report, err := svc.SyncMovies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindMovies, report.Kind)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.True(t, report.FinishedAt.After(report.StartedAt))

	inception := store.movies[27205]
	require.NotNil(t, inception.GenreID)
	assert.Equal(t, int64(28), *inception.GenreID, "first listed genre wins")
	assert.Equal(t, domain.UnknownGenreName, store.genres[28])
	_, secondGenre := store.genres[878]
	assert.False(t, secondGenre, "only the first genre is referenced")
	require.NotNil(t, inception.ReleaseDate)
	assert.Equal(t, 2010, inception.ReleaseDate.Year())
	assert.True(t, inception.Popular)

	matrix := store.movies[603]
	assert.Nil(t, matrix.GenreID)
	assert.Equal(t, DefaultOverviewPlaceholder, matrix.Overview)

	again, err := svc.SyncMovies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 2, again.Updated)
	assert.Len(t, store.movies, 2)
}

func TestSyncMovies_SkipsInvalidItems(t *testing.T) {
	client := &fakeClient{movies: []catalog.MovieItem{
		{ID: 0, Title: "No id"},
		{ID: 5, Title: "  "},
		{ID: 6, Title: "Valid"},
	}}
	store := newMemoryStore()
	svc := NewService(client, store, store, WithOverviewPlaceholder("Nothing here."))

	report, err := svc.SyncMovies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, "Nothing here.", store.movies[6].Overview)
}

func TestSyncMovies_SkipsOverlongFieldsAndContinues(t *testing.T) {
	wide := strings.Repeat("é", domain.MaxTitleLength)
	client := &fakeClient{movies: []catalog.MovieItem{
		{ID: 1, Title: strings.Repeat("x", 300)},
		{ID: 2, Title: "Long poster", PosterPath: strPtr("/" + strings.Repeat("p", domain.MaxPosterPathLength))},
		{ID: 3, Title: wide},
		{ID: 603, Title: "The Matrix"},
	}}
	store := newMemoryStore()
	svc := NewService(client, store, store)

	report, err := svc.SyncMovies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Fetched)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, wide, store.movies[3].Title)
	assert.Contains(t, store.movies, int64(603))
	assert.NotContains(t, store.movies, int64(1))
}

func TestSyncMovies_UpstreamErrorLeavesStoreUntouched(t *testing.T) {
	upErr := &catalog.UpstreamError{Status: 401, Body: `{"status_message":"Invalid API key"}`}
	store := newMemoryStore()
	svc := NewService(&fakeClient{moviesErr: upErr}, store, store)

	report, err := svc.SyncMovies(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	var got *catalog.UpstreamError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 401, got.Status)
	assert.Contains(t, got.Body, "Invalid API key")
	assert.Zero(t, report.Fetched)
	assert.Empty(t, store.movies)
}

func TestSyncMovies_TransportError(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(&fakeClient{moviesErr: catalog.ErrTransport}, store, store)

	_, err := svc.SyncMovies(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.ErrorIs(t, err, catalog.ErrTransport)
}

func TestSyncMovies_PersistenceErrorAbortsWithPartialReport(t *testing.T) {
	client := &fakeClient{movies: []catalog.MovieItem{
		{ID: 1, Title: "One"},
		{ID: 2, Title: "Two"},
		{ID: 3, Title: "Three"},
	}}
	store := newMemoryStore()
	store.failAfter = 1
	svc := NewService(client, store, store)

	report, err := svc.SyncMovies(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Equal(t, 1, report.Created)
	assert.Len(t, store.movies, 1)
}

func TestSyncGenres(t *testing.T) {
	client := &fakeClient{genres: []catalog.GenreItem{
		{ID: 28, Name: strPtr("Action")},
		{ID: 99, Name: nil},
		{ID: -1, Name: strPtr("Bogus")},
	}}
	store := newMemoryStore()
	store.genres[28] = domain.UnknownGenreName
	svc := NewService(client, store, store)

	report, err := svc.SyncGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, KindGenres, report.Kind)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "Action", store.genres[28])
	assert.Equal(t, domain.UnknownGenreName, store.genres[99])
}

func TestSyncAll_GenresFirst(t *testing.T) {
	client := &fakeClient{
		genres: []catalog.GenreItem{{ID: 28, Name: strPtr("Action")}},
		movies: []catalog.MovieItem{{ID: 1, Title: "Heat", GenreIDs: []int64{28}}},
	}
	store := newMemoryStore()
	svc := NewService(client, store, store)

	reports, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, KindGenres, reports[0].Kind)
	assert.Equal(t, KindMovies, reports[1].Kind)
	assert.Equal(t, "Action", store.genres[28], "genre name must survive the movie pass")
}

func TestSyncAll_StopsOnGenreFailure(t *testing.T) {
	svc := NewService(&fakeClient{genresErr: catalog.ErrDecode}, newMemoryStore(), newMemoryStore())

	reports, err := svc.SyncAll(context.Background())
	require.Error(t, err)
	assert.Len(t, reports, 1)
}
