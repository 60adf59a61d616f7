package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/catalog"
	"github.com/Clark-Hu/moviewatch/internal/catalogsync"
)

type syncResponse struct {
	Message string                 `json:"message"`
	Report  catalogsync.SyncReport `json:"report"`
}

type syncErrorResponse struct {
	Error   string                  `json:"error"`
	Details interface{}             `json:"details,omitempty"`
	Report  *catalogsync.SyncReport `json:"report,omitempty"`
}

type upstreamDetails struct {
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleSyncMovies(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, "Movies synchronized.", s.sync.SyncMovies)
}

func (s *Server) handleSyncGenres(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, "Genres synchronized.", s.sync.SyncGenres)
}

func (s *Server) runSync(w http.ResponseWriter, r *http.Request, message string, run func(context.Context) (catalogsync.SyncReport, error)) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondJSON(w, http.StatusUnauthorized, syncErrorResponse{Error: "unauthorized"})
		return
	}

	report, err := run(r.Context())
	if err != nil {
		kind := apperr.KindOf(err)
		resp := syncErrorResponse{Error: apperr.Message(err), Report: &report}
		if kind == apperr.KindUpstream {
			resp.Details = upstreamDetailsFor(err)
		}
		s.logger.Error("http: sync failed", "kind", report.Kind, "error", err)
		s.respondJSON(w, apperr.HTTPStatus(kind), resp)
		return
	}
	s.respondJSON(w, http.StatusOK, syncResponse{Message: message, Report: report})
}

func upstreamDetailsFor(err error) upstreamDetails {
	var upErr *catalog.UpstreamError
	switch {
	case errors.As(err, &upErr):
		return upstreamDetails{Status: upErr.Status, Body: upErr.Body}
	case errors.Is(err, catalog.ErrTransport):
		return upstreamDetails{Reason: "transport"}
	case errors.Is(err, catalog.ErrDecode):
		return upstreamDetails{Reason: "decode"}
	default:
		return upstreamDetails{Reason: "unknown"}
	}
}
