package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/eldtechnologies/omnidesk/internal/metrics"
)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	PerMinute int      // sustained requests per client IP
	Burst     int      // bucket size; defaults to PerMinute
	Whitelist []string // IPs or CIDRs exempt from rate limiting
	Endpoint  string   // metrics label
}

// RateLimiter is a per-IP token bucket.
type RateLimiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	limit        rate.Limit
	burst        int
	endpoint     string
	logger       zerolog.Logger
	whitelist    []*net.IPNet
	whitelistIPs map[string]bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(logger zerolog.Logger, cfg RateLimiterConfig) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.PerMinute
	}

	rl := &RateLimiter{
		buckets:      make(map[string]*bucket),
		limit:        rate.Limit(float64(cfg.PerMinute) / 60),
		burst:        cfg.Burst,
		endpoint:     cfg.Endpoint,
		logger:       logger,
		whitelistIPs: make(map[string]bool),
	}

	for _, entry := range cfg.Whitelist {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn().Str("entry", entry).Err(err).Msg("invalid CIDR in whitelist")
				continue
			}
			rl.whitelist = append(rl.whitelist, ipNet)
		} else {
			rl.whitelistIPs[entry] = true
		}
	}

	return rl
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		lim := rl.limiterFor(ip)
		if !lim.Allow() {
			metrics.RateLimitHits.WithLabelValues(rl.endpoint).Inc()
			rl.logger.Warn().Str("ip", ip).Str("endpoint", rl.endpoint).Msg("rate limit exceeded")

			retry := time.Duration(float64(time.Second) / float64(rl.limit))
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			jsonError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[ip] = b
	}
	b.lastSeen = now

	// Opportunistic sweep of idle buckets
	if len(rl.buckets) > 1024 {
		for k, v := range rl.buckets {
			if now.Sub(v.lastSeen) > 10*time.Minute {
				delete(rl.buckets, k)
			}
		}
	}
	return b.limiter
}

func (rl *RateLimiter) isWhitelisted(ip string) bool {
	if rl.whitelistIPs[ip] {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range rl.whitelist {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP has
// already rewritten from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
