package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres|mysql
	DBDSN    string
	SiteID   string // tags event_log rows

	AuthSecret  string
	RolesFromDB bool

	RedisAddr     string // empty disables the template cache
	RedisPassword string
	RedisDB       int
	TemplateTTL   time.Duration

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// client side
	APIBaseURL         string
	APITimeout         time.Duration
	ReportDir          string
	BlockCheckFailOpen bool

	ShutdownTimeout time.Duration
}

// Load reads a .env file when present, then the environment.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),
		SiteID:   envOr("SITE_ID", "local"),

		AuthSecret:  envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		RolesFromDB: envBool("ROLES_FROM_DB", mode == ModeOnline),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		TemplateTTL:   envDuration("TEMPLATE_CACHE_TTL", 10*time.Minute),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://evaluaciones.example.com"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		APIBaseURL:         envOr("API_BASE_URL", "http://localhost:8080"),
		APITimeout:         envDuration("API_TIMEOUT", 15*time.Second),
		ReportDir:          envOr("REPORT_DIR", "./reportes"),
		BlockCheckFailOpen: envBool("BLOCK_CHECK_FAIL_OPEN", false),

		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// CORSOrigins returns the origin list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}
func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
