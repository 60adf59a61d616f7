package httpserver

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("http: encode response", "error", err)
		}
	}
}

// page fills the fields every template needs.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	data := PageData{Title: title, Flash: popFlash(w, r)}
	if id, ok := currentIdentity(r); ok {
		data.User = &id
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if s.templates == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.Render(w, page, data); err != nil {
		s.logger.Error("http: render template", "page", page, "error", err, "path", r.URL.Path)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= 500 {
		s.logger.Error("http: request failed", "path", r.URL.Path, "error", err)
	}
	heading := http.StatusText(status)
	if kind == apperr.KindNotFound {
		heading = "Not found"
	}
	s.render(w, r, status, "error", errorPage{
		PageData: s.page(w, r, heading),
		Heading:  heading,
		Message:  apperr.Message(err),
	})
}

// redirectBack sends the browser to the same-host Referer, or to fallback.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	http.Redirect(w, r, safeReferer(r, fallback), http.StatusSeeOther)
}

func safeReferer(r *http.Request, fallback string) string {
	raw := r.Header.Get("Referer")
	if raw == "" {
		return fallback
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	if ref.Host != "" && ref.Host != r.Host {
		return fallback
	}
	if !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") || strings.HasPrefix(ref.Path, `/\`) {
		return fallback
	}
	target := ref.EscapedPath()
	if ref.RawQuery != "" {
		target += "?" + ref.RawQuery
	}
	return target
}

// failMutation turns a service error from a form POST into a flash and redirect.
// Internal failures render the error page instead.
func (s *Server) failMutation(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindForbidden, apperr.KindConflict:
		setFlash(w, FlashDanger, apperr.Message(err))
		redirectBack(w, r, fallback)
	case apperr.KindUnauthorized:
		setFlash(w, FlashInfo, apperr.Message(err))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		s.renderError(w, r, err)
	}
}

func int64Param(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" || s.cfg.AuthToken == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) == 1
}
