package httpx

import (
	"math"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/examania/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: RequestsPerWindow refill over Window,
// with up to Burst spent at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

func (c RateLimitConfig) limit() rate.Limit {
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// Profiles used by the session routes. Each can be overridden through
// RATELIMIT_<PROFILE>_REQUESTS, RATELIMIT_<PROFILE>_WINDOW_SEC and
// RATELIMIT_<PROFILE>_BURST.
var (
	// StrictLimit: login, register, bootstrap.
	StrictLimit = ParseRateLimitFromEnv("STRICT", RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5})

	// ModerateLimit: refresh, and login per address across all emails.
	ModerateLimit = ParseRateLimitFromEnv("MODERATE", RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 20})

	// LenientLimit: session lookups and probes.
	LenientLimit = ParseRateLimitFromEnv("LENIENT", RateLimitConfig{RequestsPerWindow: 100, Window: time.Minute, Burst: 100})

	// PublicLimit: gated page loads.
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000})
)

// ParseRateLimitFromEnv applies RATELIMIT_<profile>_* overrides to def.
// Values that are missing, unparsable or not positive leave the default.
func ParseRateLimitFromEnv(profile string, def RateLimitConfig) RateLimitConfig {
	prefix := "RATELIMIT_" + profile + "_"

	cfg := def
	if n, ok := positiveEnvInt(prefix + "REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt(prefix + "WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt(prefix + "BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnvInt(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// RateLimitMiddleware throttles requests per key. Requests whose key comes
// back empty are not limited.
func RateLimitMiddleware(cfg RateLimitConfig, key KeyExtractor) Middleware {
	buckets := newBucketSet(cfg.limit(), cfg.Burst, max(cfg.Window, 5*time.Minute))

	limitHeader := strconv.Itoa(cfg.RequestsPerWindow)
	windowHeader := cfg.Window.String()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit key missing, request not limited", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			wait, ok := buckets.take(k, time.Now())
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
			slogx.FromContext(r.Context()).Warn("rate limited",
				"key", k,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)

			h := w.Header()
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			h.Set("X-RateLimit-Limit", limitHeader)
			h.Set("X-RateLimit-Window", windowHeader)
			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "Too many requests. Please try again later.",
			})
		})
	}
}

// RateLimitByIP keys on the client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByUser keys on the authenticated subject plus address; anonymous
// callers share the address bucket.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor))
}

// RateLimitByIPAndJSONField keys on address plus a body field, so one address
// guessing passwords for many emails gets a bucket per email.
func RateLimitByIPAndJSONField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, JSONFieldKeyExtractor(field)))
}
