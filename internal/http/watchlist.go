package httpserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/watchlist"
)

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	id, _ := currentIdentity(r)
	items, err := s.watchlist.List(r.Context(), id.UserID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "watchlist", watchlistPage{
		PageData: s.page(w, r, "Watchlist"),
		Items:    items,
		Statuses: domain.WatchStatuses,
	})
}

func (s *Server) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	const op = "http.addToWatchlist"
	id, _ := currentIdentity(r)
	if err := r.ParseForm(); err != nil {
		s.failMutation(w, r, apperr.Validation(op, "Invalid form submission."), "/watchlist")
		return
	}

	ref, err := movieRefFromForm(op, r)
	if err != nil {
		s.failMutation(w, r, err, "/watchlist")
		return
	}

	res, err := s.watchlist.Add(r.Context(), id.UserID, ref, r.PostForm.Get("status"))
	if err != nil {
		s.failMutation(w, r, err, "/watchlist")
		return
	}
	if res.Created {
		setFlash(w, FlashSuccess, res.Movie.Title+" added to your watchlist!")
	} else {
		setFlash(w, FlashInfo, res.Movie.Title+" is already in your watchlist.")
	}
	redirectBack(w, r, "/watchlist")
}

func movieRefFromForm(op string, r *http.Request) (watchlist.MovieRef, error) {
	var ref watchlist.MovieRef
	if raw := strings.TrimSpace(r.PostForm.Get("movie_id")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return ref, apperr.Validation(op, "Invalid movie id.")
		}
		ref.MovieID = v
		return ref, nil
	}
	if raw := strings.TrimSpace(r.PostForm.Get("tmdb_id")); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			return ref, apperr.Validation(op, "Invalid catalog id.")
		}
		ref.ExternalID = v
	}
	ref.Title = r.PostForm.Get("title")
	ref.PosterPath = r.PostForm.Get("poster_path")
	ref.Overview = r.PostForm.Get("overview")
	if raw := strings.TrimSpace(r.PostForm.Get("release_date")); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return ref, apperr.Validation(op, "Release date must be YYYY-MM-DD.")
		}
		ref.ReleaseDate = &d
	}
	return ref, nil
}

func (s *Server) handleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	id, _ := currentIdentity(r)
	movieID, ok := int64Param(r, "movieID")
	if !ok {
		s.failMutation(w, r, apperr.NotFound("http.removeFromWatchlist", "Movie is not in your watchlist."), "/watchlist")
		return
	}
	if err := s.watchlist.Remove(r.Context(), id.UserID, movieID); err != nil {
		s.failMutation(w, r, err, "/watchlist")
		return
	}
	setFlash(w, FlashSuccess, "Removed from your watchlist.")
	redirectBack(w, r, "/watchlist")
}

func (s *Server) handleUpdateWatchStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := currentIdentity(r)
	movieID, ok := int64Param(r, "movieID")
	if !ok {
		s.failMutation(w, r, apperr.NotFound("http.updateWatchStatus", "Movie is not in your watchlist."), "/watchlist")
		return
	}
	if err := r.ParseForm(); err != nil {
		s.failMutation(w, r, apperr.Validation("http.updateWatchStatus", "Invalid form submission."), "/watchlist")
		return
	}
	if err := s.watchlist.UpdateStatus(r.Context(), id.UserID, movieID, r.PostForm.Get("status")); err != nil {
		s.failMutation(w, r, err, "/watchlist")
		return
	}
	setFlash(w, FlashSuccess, "Watch status updated.")
	redirectBack(w, r, "/watchlist")
}
