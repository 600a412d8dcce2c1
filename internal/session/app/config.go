package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/examania/internal/session/domain"
	"github.com/aussiebroadwan/examania/internal/session/gate"
	"github.com/aussiebroadwan/examania/internal/session/service"
	"github.com/aussiebroadwan/examania/pkg/jwtx"
)

type Config struct {
	AccessSecret  string // Required: HS256 secret for access tokens
	RefreshSecret string // Required: HS256 secret for refresh tokens, must differ from AccessSecret
	Issuer        string // Optional: iss claim, checked on verify when set (default: examania)

	AccessTTL        time.Duration // Optional: access token and cookie lifetime (default: 15m)
	RefreshTTL       time.Duration // Optional: refresh token and cookie lifetime (default: 7d)
	RenewalThreshold time.Duration // Optional: remaining lifetime below which the gate renews (default: 5m)
	RenewalTimeout   time.Duration // Optional: bound on each user lookup during renewal (default: 3s)
	RenewalRetries   int           // Optional: extra lookup attempts after a store failure (default: 1)

	DatabaseFile   string // Optional: path to SQLite database file (default: ./session.db)
	PepperFile     string // Optional: path to the password pepper, created if missing (default: ./pepper)
	BootstrapToken string // Optional: enables POST /v1/bootstrap
	DefaultRole    string // Optional: role given to self-registered accounts (default: TEACHER)

	CookieSecure    bool     // Optional: Secure flag on session cookies (default: true outside dev)
	PublicRoutes    []string // Optional: comma separated (default: /login,/register)
	ProtectedRoutes []string // Optional: comma separated (default: /dashboard,/inicio,/perfil)
	LoginPath       string   // Optional: redirect target without a session (default: /login)
	HomePath        string   // Optional: redirect target with a session (default: /dashboard)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	routes := gate.DefaultRoutes()
	env := getEnvOrDefault("ENV", "dev")

	return Config{
		AccessSecret:  os.Getenv("SESSION_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("SESSION_REFRESH_SECRET"),
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "examania"),

		AccessTTL:        getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:       getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		RenewalThreshold: getEnvDurationOrDefault("RENEWAL_THRESHOLD", service.DefaultRenewalThreshold),
		RenewalTimeout:   getEnvDurationOrDefault("RENEWAL_TIMEOUT", service.DefaultRenewalTimeout),
		RenewalRetries:   getEnvIntOrDefault("RENEWAL_RETRIES", service.DefaultRenewalRetries),

		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "session.db"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),
		DefaultRole:    getEnvOrDefault("DEFAULT_ROLE", domain.RoleTeacher.String()),

		CookieSecure:    getEnvBoolOrDefault("COOKIE_SECURE", env != "dev"),
		PublicRoutes:    getEnvListOrDefault("PUBLIC_ROUTES", routes.Public),
		ProtectedRoutes: getEnvListOrDefault("PROTECTED_ROUTES", routes.Protected),
		LoginPath:       getEnvOrDefault("LOGIN_PATH", routes.Login),
		HomePath:        getEnvOrDefault("HOME_PATH", routes.Home),

		Env:                 env,
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports every problem at once. There are no fallback secrets: the
// service refuses to start without both.
func (c Config) Validate() error {
	var errs []error

	switch {
	case c.AccessSecret == "" || c.RefreshSecret == "":
		errs = append(errs, errors.New("SESSION_ACCESS_SECRET and SESSION_REFRESH_SECRET are required"))
	case c.AccessSecret == c.RefreshSecret:
		errs = append(errs, errors.New("SESSION_ACCESS_SECRET and SESSION_REFRESH_SECRET must differ"))
	}

	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	} else if c.AccessTTL > c.RefreshTTL {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL (%s) must not exceed REFRESH_TOKEN_TTL (%s)", c.AccessTTL, c.RefreshTTL))
	}
	if c.RenewalThreshold <= 0 || c.RenewalThreshold >= c.AccessTTL {
		errs = append(errs, fmt.Errorf("RENEWAL_THRESHOLD must be positive and below ACCESS_TOKEN_TTL"))
	}
	if c.RenewalTimeout <= 0 {
		errs = append(errs, errors.New("RENEWAL_TIMEOUT must be positive"))
	}
	if c.RenewalRetries < 0 {
		errs = append(errs, errors.New("RENEWAL_RETRIES must not be negative"))
	}

	if _, err := domain.ParseRole(c.DefaultRole); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_ROLE %q: %w", c.DefaultRole, err))
	}

	errs = append(errs, c.validateRoutes()...)

	return errors.Join(errs...)
}

func (c Config) validateRoutes() []error {
	var errs []error
	for _, p := range append(append([]string{c.LoginPath, c.HomePath}, c.PublicRoutes...), c.ProtectedRoutes...) {
		if !strings.HasPrefix(p, "/") || p == "/" {
			errs = append(errs, fmt.Errorf("route %q must be an absolute path other than /", p))
		}
	}

	routes := c.Routes()
	if routes.Classify(c.LoginPath) == gate.ClassProtected {
		errs = append(errs, fmt.Errorf("LOGIN_PATH %q is protected, the gate would loop", c.LoginPath))
	}
	if routes.Classify(c.HomePath) == gate.ClassPublic {
		errs = append(errs, fmt.Errorf("HOME_PATH %q is public, the gate would loop", c.HomePath))
	}
	return errs
}

// Routes is the gate's path classification.
func (c Config) Routes() gate.Routes {
	return gate.Routes{
		Public:    c.PublicRoutes,
		Protected: c.ProtectedRoutes,
		Login:     c.LoginPath,
		Home:      c.HomePath,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
