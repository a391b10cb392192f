package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CSRFHeader carries the token on state-changing API requests.
const CSRFHeader = "X-CSRF-Token"

const (
	errCSRF      = "CSRF_ERROR"
	errRateLimit = "RATE_LIMIT"
)

// writeEnvelopeError writes the failure envelope without a Handler, for use
// by middleware that runs before one is reached.
func writeEnvelopeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: &apiError{Code: code, Message: message},
	})
}

// CSRFMiddleware guards mutating requests with a rotating synchronizer token.
// After a rotation the previous token stays valid for a grace period so open
// editor pages can finish in-flight saves.
type CSRFMiddleware struct {
	mu        sync.RWMutex
	current   string
	previous  string
	rotatedAt time.Time

	interval time.Duration
	grace    time.Duration
	stop     chan struct{}
	log      zerolog.Logger
}

// NewCSRFMiddleware rotates the token hourly with a one minute grace period.
func NewCSRFMiddleware(log zerolog.Logger) (*CSRFMiddleware, error) {
	return NewCSRFMiddlewareWithRotation(time.Hour, time.Minute, log)
}

// NewCSRFMiddlewareWithRotation starts a guard with the given rotation
// interval and grace period. Call Stop to end the rotation goroutine.
func NewCSRFMiddlewareWithRotation(interval, grace time.Duration, log zerolog.Logger) (*CSRFMiddleware, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create initial CSRF token: %w", err)
	}

	c := &CSRFMiddleware{
		current:   token,
		rotatedAt: time.Now(),
		interval:  interval,
		grace:     grace,
		stop:      make(chan struct{}),
		log:       log.With().Str("component", "csrf").Logger(),
	}
	go c.run()
	return c, nil
}

func (c *CSRFMiddleware) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.rotate()
		case <-c.stop:
			return
		}
	}
}

// Stop ends token rotation.
func (c *CSRFMiddleware) Stop() {
	close(c.stop)
}

func (c *CSRFMiddleware) rotate() {
	token, err := newToken()
	if err != nil {
		c.log.Error().Err(err).Msg("failed to rotate token, keeping current")
		return
	}

	c.mu.Lock()
	c.previous, c.current = c.current, token
	c.rotatedAt = time.Now()
	c.mu.Unlock()
	c.log.Debug().Msg("token rotated")
}

// Token returns the token clients must echo in CSRFHeader.
func (c *CSRFMiddleware) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *CSRFMiddleware) accepts(token string) bool {
	if token == "" {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if equalTokens(token, c.current) {
		return true
	}
	return c.previous != "" && time.Since(c.rotatedAt) < c.grace && equalTokens(token, c.previous)
}

func equalTokens(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Wrap rejects mutating requests that lack a valid token.
func (c *CSRFMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if !c.accepts(r.Header.Get(CSRFHeader)) {
				c.log.Warn().Str("method", r.Method).Str("path", r.URL.Path).Msg("rejected request without valid token")
				writeEnvelopeError(w, http.StatusForbidden, errCSRF, "Invalid or missing CSRF token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter counts requests per client host in fixed windows.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*rateWindow
	limit      int
	window     time.Duration
	maxClients int
	now        func() time.Time
	stop       chan struct{}
	log        zerolog.Logger
}

// NewRateLimiter allows limit requests per window for up to 10k clients.
func NewRateLimiter(limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	return NewRateLimiterWithMax(limit, window, 10000, log)
}

// NewRateLimiterWithMax is NewRateLimiter with a bound on tracked clients.
// When the bound is reached the client with the oldest window is dropped.
func NewRateLimiterWithMax(limit int, window time.Duration, maxClients int, log zerolog.Logger) *RateLimiter {
	rl := &RateLimiter{
		clients:    make(map[string]*rateWindow),
		limit:      limit,
		window:     window,
		maxClients: maxClients,
		now:        time.Now,
		stop:       make(chan struct{}),
		log:        log.With().Str("component", "rate_limit").Logger(),
	}
	go rl.sweepLoop()
	return rl
}

// Stop ends the sweep goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			rl.sweepLocked(rl.now())
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for host, win := range rl.clients {
		if now.Sub(win.start) >= rl.window {
			delete(rl.clients, host)
		}
	}
}

// Allow records a request from host and reports whether it is within the limit.
func (rl *RateLimiter) Allow(host string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if win, ok := rl.clients[host]; ok && now.Sub(win.start) < rl.window {
		if win.count >= rl.limit {
			return false
		}
		win.count++
		return true
	}

	if _, ok := rl.clients[host]; !ok && len(rl.clients) >= rl.maxClients {
		rl.sweepLocked(now)
		if len(rl.clients) >= rl.maxClients {
			rl.evictOldestLocked()
		}
	}
	rl.clients[host] = &rateWindow{start: now, count: 1}
	return rl.limit > 0
}

func (rl *RateLimiter) evictOldestLocked() {
	var oldest string
	var oldestStart time.Time
	for host, win := range rl.clients {
		if oldest == "" || win.start.Before(oldestStart) {
			oldest, oldestStart = host, win.start
		}
	}
	if oldest != "" {
		delete(rl.clients, oldest)
		rl.log.Warn().Str("remote_host", oldest).Msg("evicted oldest client to stay under max clients")
	}
}

// Wrap rejects requests over the limit with 429.
func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RemoteAddr only: the editor runs locally without a proxy, so
		// X-Forwarded-For is never trusted.
		host := clientHost(r.RemoteAddr)
		if !rl.Allow(host) {
			rl.log.Warn().Str("remote_host", host).Msg("blocked request")
			w.Header().Set("Retry-After", fmt.Sprint(int(rl.window.Seconds())))
			writeEnvelopeError(w, http.StatusTooManyRequests, errRateLimit, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// LimitBodySize caps request bodies at maxBytes.
func LimitBodySize(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}
