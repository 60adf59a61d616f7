package httpserver

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/web"
)

func mustTemplates(tb testing.TB) *Templates {
	tb.Helper()
	tmpl, err := NewTemplates(web.Templates())
	if err != nil {
		tb.Fatalf("parse templates: %v", err)
	}
	return tmpl
}

func sampleMovies(n int) []domain.Movie {
	poster := "/poster.jpg"
	genre := "Drama"
	genreID := int64(18)
	released := time.Date(2019, 5, 30, 0, 0, 0, 0, time.UTC)
	items := make([]domain.Movie, n)
	for i := range items {
		items[i] = domain.Movie{
			ID:          int64(i + 1),
			TMDBID:      int64(1000 + i),
			Title:       "Movie <" + strings.Repeat("x", i%5) + ">",
			ReleaseDate: &released,
			Overview:    "Overview",
			PosterPath:  &poster,
			GenreID:     &genreID,
			GenreName:   &genre,
		}
	}
	return items
}

func TestTemplatesRenderEveryPage(t *testing.T) {
	tmpl := mustTemplates(t)
	user := &domain.Identity{UserID: 1, Username: "neo"}
	movie := sampleMovies(1)[0]
	now := time.Now()

	pages := map[string]any{
		"home":   moviesPage{PageData: PageData{Title: "Home"}, Movies: sampleMovies(3)},
		"movies": moviesPage{PageData: PageData{Title: "Movies", User: user}, Heading: "Movies", Movies: sampleMovies(2)},
		"search": moviesPage{PageData: PageData{Title: "Search", Query: "matrix"}},
		"movie": moviePage{
			PageData: PageData{Title: movie.Title, User: user},
			Movie:    movie,
			Reviews: []domain.ReviewView{{
				Review:   domain.Review{ID: 7, UserID: 1, MovieID: movie.ID, Rating: 4, ReviewText: "Great", CreatedAt: now},
				Username: "neo",
			}},
			Statuses: domain.WatchStatuses,
			Ratings:  []int{5, 4, 3, 2, 1},
		},
		"genres":    genresPage{PageData: PageData{Title: "Genres"}, Genres: []domain.GenreSummary{{Genre: domain.Genre{ID: 18, Name: "Drama"}, MovieCount: 2}}},
		"watchlist": watchlistPage{PageData: PageData{Title: "Watchlist", User: user}, Statuses: domain.WatchStatuses},
		"signup":    authPage{PageData: PageData{Title: "Sign up", Flash: &Flash{Level: FlashDanger, Message: "Username already exists."}}, Username: "neo"},
		"login":     authPage{PageData: PageData{Title: "Log in"}},
		"profile":   profilePage{PageData: PageData{Title: "Profile", User: user}, Account: domain.User{ID: 1, Username: "neo", Email: "neo@example.com", CreatedAt: now}, WatchlistCount: 3, ReviewCount: 1},
		"error":     errorPage{PageData: PageData{Title: "Not found"}, Heading: "Not found", Message: "Movie not found."},
	}
	for name, data := range pages {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tmpl.Render(&buf, name, data); err != nil {
				t.Fatalf("render %s: %v", name, err)
			}
			if !strings.Contains(buf.String(), "</html>") {
				t.Fatalf("render %s: layout missing", name)
			}
		})
	}
}

func TestTemplatesEscapeAndHelpers(t *testing.T) {
	tmpl := mustTemplates(t)
	var buf bytes.Buffer
	err := tmpl.Render(&buf, "movies", moviesPage{PageData: PageData{Title: "Movies"}, Heading: "Movies", Movies: sampleMovies(2)})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Movie <x>") || !strings.Contains(out, "Movie &lt;x&gt;") {
		t.Fatalf("title not escaped")
	}
	if !strings.Contains(out, posterBaseURL+"/poster.jpg") {
		t.Fatalf("poster url not expanded")
	}
	if !strings.Contains(out, "(2019)") || !strings.Contains(out, "Drama") {
		t.Fatalf("release year or genre missing")
	}

	if err := tmpl.Render(io.Discard, "missing", nil); err == nil {
		t.Fatalf("expected error for unknown page")
	}
}

func TestTemplateFuncs(t *testing.T) {
	funcs := templateFuncs()

	stars := funcs["stars"].(func(int) string)
	if got := stars(3); got != "★★★☆☆" {
		t.Fatalf("stars(3) = %q", got)
	}
	if got := stars(9); got != "★★★★★" {
		t.Fatalf("stars(9) = %q", got)
	}

	label := funcs["statusLabel"].(func(domain.WatchStatus) string)
	if got := label(domain.WatchStatus("watching")); got != "Watching" {
		t.Fatalf("statusLabel = %q", got)
	}

	poster := funcs["posterURL"].(func(*string) string)
	abs := "https://cdn.example.com/p.jpg"
	if got := poster(&abs); got != abs {
		t.Fatalf("absolute poster rewritten: %q", got)
	}
	if got := poster(nil); got != "" {
		t.Fatalf("nil poster = %q", got)
	}
}

func FuzzSafeReferer(f *testing.F) {
	for _, seed := range []string{
		"http://example.com/movies",
		"//evil.example.org/x",
		"https://evil.example.org",
		"/watchlist?x=1",
		"",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		req := httptest.NewRequest(http.MethodPost, "http://example.com/watchlist", nil)
		req.Header.Set("Referer", raw)
		got := safeReferer(req, "/fallback")
		if !strings.HasPrefix(got, "/") || strings.HasPrefix(got, "//") {
			t.Fatalf("safeReferer(%q) = %q escapes the site", raw, got)
		}
	})
}

func FuzzMovieRefFromForm(f *testing.F) {
	for _, seed := range []string{
		"movie_id=12",
		"movie_id=-1",
		"tmdb_id=603&title=The+Matrix&release_date=1999-03-31",
		"tmdb_id=abc",
		"release_date=31/03/1999",
		"",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		req := httptest.NewRequest(http.MethodPost, "/watchlist", nil)
		req.PostForm = values
		ref, err := movieRefFromForm("fuzz", req)
		if err == nil && (ref.MovieID < 0 || ref.ExternalID < 0) {
			t.Fatalf("negative id accepted: %+v", ref)
		}
	})
}

func BenchmarkRenderMoviesPage(b *testing.B) {
	tmpl := mustTemplates(b)
	data := moviesPage{PageData: PageData{Title: "Movies"}, Heading: "Movies", Movies: sampleMovies(50)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tmpl.Render(io.Discard, "movies", data); err != nil {
			b.Fatalf("render: %v", err)
		}
	}
}
