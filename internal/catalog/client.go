// Package catalog talks to the external movie catalog (TMDb-compatible API).
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Clark-Hu/moviewatch/internal/logger"
)

var (
	// ErrTransport wraps connection, DNS and timeout failures.
	ErrTransport = errors.New("catalog: transport failure")
	// ErrDecode is returned when a 2xx response body is not the expected JSON.
	ErrDecode = errors.New("catalog: undecodable response")
)

const maxErrorBody = 4 << 10

// UpstreamError reports a non-2xx response from the catalog.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("catalog: upstream returned %d", e.Status)
}

// MovieItem is one entry of the discover listing.
type MovieItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    *string `json:"overview"`
	PosterPath  *string `json:"poster_path"`
	GenreIDs    []int64 `json:"genre_ids"`
}

// GenreItem is one entry of the genre list.
type GenreItem struct {
	ID   int64   `json:"id"`
	Name *string `json:"name"`
}

// Client defines the contract for querying the upstream catalog.
type Client interface {
	DiscoverMovies(ctx context.Context) ([]MovieItem, error)
	MovieGenres(ctx context.Context) ([]GenreItem, error)
}

// Options configures HTTPClient.
type Options struct {
	BaseURL  string
	Token    string
	Language string
	Timeout  time.Duration
	Logger   *logger.Logger
}

// HTTPClient implements Client over HTTP with a bearer credential.
type HTTPClient struct {
	baseURL  *url.URL
	language string
	client   *http.Client
	logger   *logger.Logger
}

// NewHTTPClient constructs a catalog client. The token is attached to every
// request as a bearer credential.
func NewHTTPClient(opts Options) (*HTTPClient, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	parsed, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog url must be absolute: %q", opts.BaseURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPClient{
		baseURL:  parsed,
		language: opts.Language,
		client: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
				Base:   base,
			},
		},
		logger: log,
	}, nil
}

// DiscoverMovies returns the catalog's current discover listing.
func (c *HTTPClient) DiscoverMovies(ctx context.Context) ([]MovieItem, error) {
	var payload struct {
		Results []MovieItem `json:"results"`
	}
	if err := c.get(ctx, &payload, "discover", "movie"); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// MovieGenres returns the catalog's movie genre list.
func (c *HTTPClient) MovieGenres(ctx context.Context) ([]GenreItem, error) {
	var payload struct {
		Genres []GenreItem `json:"genres"`
	}
	if err := c.get(ctx, &payload, "genre", "movie", "list"); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

func (c *HTTPClient) get(ctx context.Context, out interface{}, elem ...string) error {
	endpoint := c.baseURL.JoinPath(elem...)
	if c.language != "" {
		q := endpoint.Query()
		q.Set("language", c.language)
		endpoint.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("catalog: unexpected status", "status", resp.StatusCode, "path", endpoint.Path)
		return &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// ParseReleaseDate converts the catalog's YYYY-MM-DD date. Blank or malformed
// values yield nil.
func ParseReleaseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil
	}
	return &t
}
