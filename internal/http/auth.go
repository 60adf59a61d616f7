package httpserver

import (
	"net/http"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
)

func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup", authPage{PageData: s.page(w, r, "Sign up")})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, apperr.Validation("http.signup", "Invalid form submission."))
		return
	}
	username := r.PostForm.Get("username")
	email := r.PostForm.Get("email")

	if _, err := s.identity.Register(r.Context(), username, email, r.PostForm.Get("password")); err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindValidation, apperr.KindConflict:
			data := authPage{PageData: s.page(w, r, "Sign up"), Username: username, Email: email}
			data.Flash = &Flash{Level: FlashDanger, Message: apperr.Message(err)}
			s.render(w, r, apperr.HTTPStatus(apperr.KindOf(err)), "signup", data)
		default:
			s.renderError(w, r, err)
		}
		return
	}

	setFlash(w, FlashSuccess, "Account created! Please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", authPage{PageData: s.page(w, r, "Log in")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, apperr.Validation("http.login", "Invalid form submission."))
		return
	}
	username := r.PostForm.Get("username")

	id, err := s.identity.Authenticate(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			data := authPage{PageData: s.page(w, r, "Log in"), Username: username}
			data.Flash = &Flash{Level: FlashDanger, Message: apperr.Message(err)}
			s.render(w, r, http.StatusUnauthorized, "login", data)
			return
		}
		s.renderError(w, r, err)
		return
	}
	if err := s.identity.Login(r.Context(), w, id); err != nil {
		s.renderError(w, r, err)
		return
	}

	setFlash(w, FlashSuccess, "Welcome back, "+id.Username+"!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.identity.Logout(r.Context(), w, r); err != nil {
		s.renderError(w, r, err)
		return
	}
	setFlash(w, FlashInfo, "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := currentIdentity(r)
	account, err := s.identity.User(r.Context(), id.UserID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	watchCount, err := s.watchlist.Count(r.Context(), id.UserID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	reviewCount, err := s.reviews.CountByUser(r.Context(), id.UserID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "profile", profilePage{
		PageData:       s.page(w, r, "Profile"),
		Account:        account,
		WatchlistCount: watchCount,
		ReviewCount:    reviewCount,
	})
}
