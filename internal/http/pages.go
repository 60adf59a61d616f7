package httpserver

import (
	"net/http"
	"strings"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
)

const homeMovieLimit = 12

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	items, err := s.movies.List(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if len(items) > homeMovieLimit {
		items = items[:homeMovieLimit]
	}
	s.render(w, r, http.StatusOK, "home", moviesPage{
		PageData: s.page(w, r, "Home"),
		Movies:   items,
	})
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	items, err := s.movies.List(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "movies", moviesPage{
		PageData: s.page(w, r, "Movies"),
		Heading:  "Movies",
		Movies:   items,
	})
}

func (s *Server) handleMovieDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "movieID")
	if !ok {
		s.renderError(w, r, apperr.NotFound("http.movieDetail", "Movie not found."))
		return
	}
	movie, err := s.movies.Get(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	reviewViews, err := s.reviews.ListForMovie(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	var userID int64
	if ident, ok := currentIdentity(r); ok {
		userID = ident.UserID
	}
	inWatchlist, err := s.watchlist.Contains(r.Context(), userID, id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	ratings := make([]int, 0, domain.MaxRating)
	for n := domain.MaxRating; n >= domain.MinRating; n-- {
		ratings = append(ratings, n)
	}
	s.render(w, r, http.StatusOK, "movie", moviePage{
		PageData: s.page(w, r, movie.Title),
		Movie:    movie,
		Reviews:  reviewViews,
		Statuses: domain.WatchStatuses,
		Ratings:  ratings,

		InWatchlist: inWatchlist,
	})
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.movies.Genres(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "genres", genresPage{
		PageData: s.page(w, r, "Genres"),
		Genres:   genres,
	})
}

func (s *Server) handleGenreMovies(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "genreID")
	if !ok {
		s.renderError(w, r, apperr.NotFound("http.genreMovies", "Genre not found."))
		return
	}
	genre, items, err := s.movies.ByGenre(r.Context(), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "movies", moviesPage{
		PageData: s.page(w, r, genre.Name),
		Heading:  genre.Name,
		Movies:   items,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	items, err := s.movies.Search(r.Context(), query)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	data := moviesPage{PageData: s.page(w, r, "Search"), Movies: items}
	data.Query = query
	s.render(w, r, http.StatusOK, "search", data)
}
