package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Gateway backends.
const (
	GatewayREST     = "rest"
	GatewayPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Site     SiteConfig     `yaml:"site"`
	Gateway  string         `yaml:"gateway"`
	LogLevel string         `yaml:"log_level"`
	GinMode  string         `yaml:"gin_mode"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	CORSOrigins string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// NotifyChannel is the LISTEN channel fed by the change triggers.
	NotifyChannel string `yaml:"notify_channel"`
}

type SupabaseConfig struct {
	URL            string        `yaml:"url"`
	AnonKey        string        `yaml:"anon_key"`
	ServiceRoleKey string        `yaml:"service_role_key"`
	JWTSecret      string        `yaml:"jwt_secret"`
	Bucket         string        `yaml:"bucket"`
	Timeout        time.Duration `yaml:"timeout"`
}

type SiteConfig struct {
	// FallbackPath points at the static events.json served when the
	// backend is unreachable.
	FallbackPath string `yaml:"fallback_path"`
	// ResourcesFallbackPath points at the static resources.json.
	ResourcesFallbackPath string `yaml:"resources_fallback_path"`
	// HealthCron is the schedule of the backend connection probe.
	HealthCron string `yaml:"health_cron"`
	Timezone   string `yaml:"timezone"`
	// FeaturedFallbackLimit caps the upcoming events shown when no event
	// is featured.
	FeaturedFallbackLimit int    `yaml:"featured_fallback_limit"`
	CalendarName          string `yaml:"calendar_name"`
}

func New() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:           getEnv("DATABASE_URL", ""),
			Host:          getEnv("DB_HOST", ""),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			DBName:        getEnv("DB_NAME", "community_hub"),
			SSLMode:       getEnv("DB_SSLMODE", "require"),
			NotifyChannel: getEnv("DB_NOTIFY_CHANNEL", "events_changes"),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", ""),
			AnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
			ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			JWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
			Bucket:         getEnv("SUPABASE_BUCKET", "event-flyers"),
			Timeout:        getDuration("SUPABASE_TIMEOUT", 15*time.Second),
		},
		Site: SiteConfig{
			FallbackPath:          getEnv("FALLBACK_EVENTS_PATH", "events.json"),
			ResourcesFallbackPath: getEnv("FALLBACK_RESOURCES_PATH", "resources.json"),
			HealthCron:            getEnv("HEALTH_CRON", "*/5 * * * *"),
			Timezone:              getEnv("SITE_TIMEZONE", "America/New_York"),
			FeaturedFallbackLimit: 5,
			CalendarName:          getEnv("CALENDAR_NAME", "Community Events"),
		},
		Gateway:  getEnv("GATEWAY", GatewayREST),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		GinMode:  getEnv("GIN_MODE", "debug"),
	}
}

// Load builds the configuration from the environment and, when CONFIG_FILE
// is set, overlays the YAML file on top of it.
func Load() (*Config, error) {
	cfg := New()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the keys present in a YAML file onto cfg.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Gateway {
	case GatewayREST:
		if c.Supabase.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the %q gateway", GatewayREST)
		}
		if c.Supabase.AnonKey == "" && c.Supabase.ServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_ANON_KEY or SUPABASE_SERVICE_ROLE_KEY is required")
		}
	case GatewayPostgres:
		if !c.HasDatabase() {
			return fmt.Errorf("DATABASE_URL or DB_HOST is required for the %q gateway", GatewayPostgres)
		}
	default:
		return fmt.Errorf("unknown gateway %q", c.Gateway)
	}
	if c.Site.FeaturedFallbackLimit <= 0 {
		c.Site.FeaturedFallbackLimit = 5
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// HasDatabase reports whether a direct Postgres connection is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != "" || c.Database.Host != ""
}

func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return c.buildDatabaseURL()
}

func (c *Config) buildDatabaseURL() string {
	var sb strings.Builder

	sb.WriteString("postgres://")
	sb.WriteString(c.Database.User)
	if c.Database.Password != "" {
		sb.WriteString(":")
		sb.WriteString(c.Database.Password)
	}
	sb.WriteString("@")
	sb.WriteString(c.Database.Host)
	sb.WriteString(":")
	sb.WriteString(c.Database.Port)
	sb.WriteString("/")
	sb.WriteString(c.Database.DBName)

	if c.Database.SSLMode != "" {
		sb.WriteString("?sslmode=")
		sb.WriteString(c.Database.SSLMode)
	}

	return sb.String()
}

func (c *Config) GetCORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Location returns the site's time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
