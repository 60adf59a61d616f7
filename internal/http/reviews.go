package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
)

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	const op = "http.submitReview"
	id, _ := currentIdentity(r)
	movieID, ok := int64Param(r, "movieID")
	if !ok {
		s.failMutation(w, r, apperr.NotFound(op, "Movie not found."), "/movies")
		return
	}
	back := fmt.Sprintf("/movies/%d", movieID)
	if err := r.ParseForm(); err != nil {
		s.failMutation(w, r, apperr.Validation(op, "Invalid form submission."), back)
		return
	}
	rating, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("rating")))
	if err != nil {
		s.failMutation(w, r, apperr.Validation(op, "Rating must be a number between 1 and 5."), back)
		return
	}

	if _, err := s.reviews.Submit(r.Context(), id.UserID, movieID, rating, r.PostForm.Get("review_text")); err != nil {
		s.failMutation(w, r, err, back)
		return
	}
	setFlash(w, FlashSuccess, "Review submitted!")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, _ := currentIdentity(r)
	reviewID, ok := int64Param(r, "reviewID")
	if !ok {
		s.failMutation(w, r, apperr.NotFound("http.deleteReview", "Review not found."), "/movies")
		return
	}
	res, err := s.reviews.Delete(r.Context(), id.UserID, reviewID)
	if err != nil {
		s.failMutation(w, r, err, "/movies")
		return
	}
	setFlash(w, FlashSuccess, "Review deleted.")
	http.Redirect(w, r, fmt.Sprintf("/movies/%d", res.MovieID), http.StatusSeeOther)
}
