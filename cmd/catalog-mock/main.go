// Command catalog-mock serves a fixed movie catalog over the same routes the
// real catalog exposes, for local development and manual testing.
package main

import (
	_ "embed"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Clark-Hu/moviewatch/internal/logger"
)

//go:embed fixture.json
var defaultFixture []byte

type fixture struct {
	Movies []json.RawMessage `json:"movies"`
	Genres []json.RawMessage `json:"genres"`
}

func main() {
	var (
		port     = flag.String("port", "9099", "port to listen on")
		data     = flag.String("data", "", "path to a fixture file (defaults to the embedded one)")
		token    = flag.String("token", "", "bearer token required on every request (empty disables the check)")
		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log, err := logger.New("development", *logLevel)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	raw := defaultFixture
	if *data != "" {
		raw, err = os.ReadFile(*data)
		if err != nil {
			log.Error("read fixture", "path", *data, "error", err)
			os.Exit(1)
		}
	}
	var payload fixture
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error("parse fixture", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(requireToken(*token))

	movies := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]interface{}{"page": 1, "results": payload.Movies})
	}
	genres := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]interface{}{"genres": payload.Genres})
	}
	// Served both with and without the API version prefix.
	for _, prefix := range []string{"", "/3"} {
		r.Get(prefix+"/discover/movie", movies)
		r.Get(prefix+"/genre/movie/list", genres)
	}

	addr := ":" + *port
	log.Info("catalog mock listening", "addr", addr, "movies", len(payload.Movies), "genres", len(payload.Genres))
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") != token {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key.","success":false}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
