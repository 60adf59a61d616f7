package httpserver

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Clark-Hu/moviewatch/internal/apperr"
	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/logger"
)

type ctxKey int

const identityKey ctxKey = iota

// requestLogger logs one line per request, choosing the level from the
// response status class.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			kv := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			}
			switch {
			case status >= 500:
				log.Error("http request", kv...)
			case status >= 400:
				log.Warn("http request", kv...)
			default:
				log.Info("http request", kv...)
			}
		})
	}
}

// withIdentity resolves the session once per request.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := s.identity.CurrentUser(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser redirects anonymous callers to the login page.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentIdentity(r); !ok {
			setFlash(w, FlashInfo, "Please log in to access this page.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentIdentity(r *http.Request) (domain.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(domain.Identity)
	return id, ok
}

// limiterIdleTTL is how long a client bucket may sit unused before it is
// dropped. Any bucket is full again well before that.
const limiterIdleTTL = 5 * time.Minute

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out one token bucket per client address.
type ipLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
	buckets   map[string]*ipBucket
}

func newIPLimiter(perMinute int) *ipLimiter {
	burst := perMinute / 2
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		idle:    limiterIdleTTL,
		now:     time.Now,
		buckets: make(map[string]*ipBucket),
	}
}

func (l *ipLimiter) allow(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	b, ok := l.buckets[host]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[host] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for at least l.idle. Callers hold l.mu.
func (l *ipLimiter) sweep(now time.Time) {
	for host, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idle {
			delete(l.buckets, host)
		}
	}
	l.lastSweep = now
}

// limitAuthAttempts throttles credential submissions per client address.
// The address is the socket peer unless TrustProxyHeaders lets RealIP
// replace it. A zero AuthRatePerMinute disables it.
func (s *Server) limitAuthAttempts(next http.HandlerFunc) http.HandlerFunc {
	if s.cfg.AuthRatePerMinute <= 0 {
		return next
	}
	limiter := newIPLimiter(s.cfg.AuthRatePerMinute)
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.allow(r.RemoteAddr) {
			s.logger.Warn("http: auth attempts throttled", "remote", r.RemoteAddr, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			s.renderError(w, r, apperr.RateLimited("http.auth", "Too many attempts. Please wait a minute and try again."))
			return
		}
		next(w, r)
	}
}
