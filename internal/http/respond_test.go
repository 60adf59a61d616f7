package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Clark-Hu/moviewatch/internal/logger"
)

func TestSafeReferer(t *testing.T) {
	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{"empty", "", "/fallback"},
		{"same host", "http://example.com/movies?page=2", "/movies?page=2"},
		{"relative", "/watchlist", "/watchlist"},
		{"other host", "https://evil.example.org/movies", "/fallback"},
		{"protocol relative path", "http://example.com//evil.example.org", "/fallback"},
		{"no path", "http://example.com", "/fallback"},
		{"unparseable", "http://[::1", "/fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://example.com/watchlist", nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			if got := safeReferer(req, "/fallback"); got != tt.want {
				t.Fatalf("safeReferer(%q) = %q, want %q", tt.referer, got, tt.want)
			}
		})
	}
}

func TestFlashRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	setFlash(rec, FlashDanger, "Rating must be between 1 and 5.")
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	flash := popFlash(rec, req)
	if flash == nil || flash.Level != FlashDanger || flash.Message != "Rating must be between 1 and 5." {
		t.Fatalf("unexpected flash %+v", flash)
	}
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("flash cookie was not cleared: %+v", cleared)
	}
}

func TestPopFlashRejectsMalformed(t *testing.T) {
	for _, value := range []string{"", "nolevel", "warning%7Chello", "%zz"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if value != "" {
			req.AddCookie(&http.Cookie{Name: flashCookieName, Value: value})
		}
		flash := popFlash(httptest.NewRecorder(), req)
		if value == "warning%7Chello" {
			if flash == nil || flash.Level != FlashInfo {
				t.Fatalf("unknown level should downgrade to info, got %+v", flash)
			}
			continue
		}
		if flash != nil {
			t.Fatalf("popFlash(%q) = %+v, want nil", value, flash)
		}
	}
}

func TestVerifyBearer(t *testing.T) {
	s := &Server{}
	s.cfg.AuthToken = "secret"
	cases := map[string]bool{
		"Bearer secret":   true,
		"Bearer  secret ": true,
		"Bearer wrong":    false,
		"Bearer secre":    false,
		"Bearer secretX":  false,
		"Bearer Secret":   false,
		"secret":          false,
		"":                false,
	}
	for header, want := range cases {
		if got := s.verifyBearer(header); got != want {
			t.Fatalf("verifyBearer(%q) = %v, want %v", header, got, want)
		}
	}
}

func TestLimitAuthAttempts(t *testing.T) {
	s := &Server{logger: logger.Nop()}
	s.cfg.AuthRatePerMinute = 2

	calls := 0
	h := s.limitAuthAttempts(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	})

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec.Code
	}

	if code := do("10.0.0.1:5000"); code != http.StatusNoContent {
		t.Fatalf("first attempt = %d", code)
	}
	if code := do("10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Fatalf("second attempt from same host = %d, want 429", code)
	}
	if code := do("10.0.0.2:5000"); code != http.StatusNoContent {
		t.Fatalf("other host should have its own bucket, got %d", code)
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}
}

func TestLimitAuthAttemptsDisabled(t *testing.T) {
	s := &Server{logger: logger.Nop()}
	h := s.limitAuthAttempts(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("attempt %d = %d", i, rec.Code)
		}
	}
}
