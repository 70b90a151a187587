package http

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sydologie/diapoai/internal/adapters/secondary/monitoring"
	"github.com/sydologie/diapoai/internal/domain/ports"
)

const (
	// requests allowed per client and window
	rateLimit  = 300
	rateWindow = time.Minute
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Hijack lets the websocket upgrade reach the underlying connection
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// Flush forwards to the underlying writer when it can flush
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// createLoggingMiddleware logs every request at debug level
func createLoggingMiddleware(next http.Handler, clock ports.Clock, logger ports.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clock.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		logger.Debug(
			"HTTP %s %s - %d %d bytes in %v",
			r.Method,
			r.URL.Path,
			wrapped.status,
			wrapped.size,
			clock.Now().Sub(start),
		)
	})
}

// countingMiddleware counts every request in stats
func countingMiddleware(next http.Handler, stats *monitoring.Stats) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats.RecordRequest()
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware adds security headers to all responses
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// engine files may come from the CDN when they are not cached
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' https:; "+
				"style-src 'self' 'unsafe-inline' https:; "+
				"img-src 'self' data: https:; "+
				"font-src 'self' data: https:; "+
				"connect-src 'self' ws: wss:; "+
				"frame-ancestors 'none'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-DNS-Prefetch-Control", "off")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter counts requests per client IP in a sliding window
type rateLimiter struct {
	clock ports.Clock

	mu          sync.Mutex
	clients     map[string]*clientInfo
	lastCleanup time.Time
}

type clientInfo struct {
	lastSeen time.Time
	requests []time.Time
}

func newRateLimiter(clock ports.Clock) *rateLimiter {
	return &rateLimiter{
		clock:       clock,
		clients:     make(map[string]*clientInfo),
		lastCleanup: clock.Now(),
	}
}

// isAllowed checks if the request is within rate limits
func (rl *rateLimiter) isAllowed(ip string, limit int, window time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	cutoff := now.Add(-window)
	rl.cleanupLocked(now, window)

	client, exists := rl.clients[ip]
	if !exists {
		rl.clients[ip] = &clientInfo{lastSeen: now, requests: []time.Time{now}}
		return true
	}
	client.lastSeen = now

	valid := client.requests[:0]
	for _, t := range client.requests {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	client.requests = valid

	if len(valid) >= limit {
		return false
	}
	client.requests = append(client.requests, now)
	return true
}

// cleanupLocked forgets clients idle for more than five windows
func (rl *rateLimiter) cleanupLocked(now time.Time, window time.Duration) {
	idle := 5 * window
	if now.Sub(rl.lastCleanup) < idle {
		return
	}
	rl.lastCleanup = now
	for ip, info := range rl.clients {
		if now.Sub(info.lastSeen) > idle {
			delete(rl.clients, ip)
		}
	}
}

// rateLimitMiddleware implements rate limiting per IP
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.isAllowed(getClientIP(r), rateLimit, rateWindow) {
			w.Header().Set("Retry-After", "60")
			s.writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the real client IP address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// createRecoveryMiddleware turns a handler panic into a 500
func createRecoveryMiddleware(next http.Handler, logger ports.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered in HTTP handler: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
