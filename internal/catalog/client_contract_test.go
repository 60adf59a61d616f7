package catalog

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestHTTPClientSmoke hits a live catalog (or cmd/catalog-mock) when
// CATALOG_URL is provided.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("CATALOG_URL")
	if baseURL == "" {
		t.Skip("CATALOG_URL not provided")
	}
	client, err := NewHTTPClient(Options{
		BaseURL: baseURL,
		Token:   os.Getenv("CATALOG_BEARER_TOKEN"),
		Timeout: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items, err := client.DiscoverMovies(ctx)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(items) == 0 {
		t.Fatalf("expected at least one movie")
	}
}
