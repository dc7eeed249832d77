package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the process configuration. It is read-only after Load.
type Settings struct {
	ProjectName string `mapstructure:"PROJECT_NAME"`
	Version     string `mapstructure:"VERSION"`
	APIV1Str    string `mapstructure:"API_V1_STR"`
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`

	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	TestDatabaseURL string `mapstructure:"TEST_DATABASE_URL"`

	SecretKey                string `mapstructure:"SECRET_KEY"`
	Algorithm                string `mapstructure:"ALGORITHM"`
	AccessTokenExpireMinutes int    `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	PermissionsFile          string `mapstructure:"PERMISSIONS_FILE"`

	RedisURL    string `mapstructure:"REDIS_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	GoogleAPIKey     string        `mapstructure:"GOOGLE_API_KEY"`
	AIBaseURL        string        `mapstructure:"AI_BASE_URL"`
	AIModel          string        `mapstructure:"AI_MODEL"`
	AIRequestTimeout time.Duration `mapstructure:"AI_REQUEST_TIMEOUT"`

	UploadDir   string `mapstructure:"UPLOAD_DIR"`
	MaxFileSize int64  `mapstructure:"MAX_FILE_SIZE"`

	SMTPTLS      bool   `mapstructure:"SMTP_TLS"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	EmailsFrom   string `mapstructure:"EMAILS_FROM"`

	// BackendCORSOrigins is assembled by ParseCORSOrigins, not by mapstructure.
	BackendCORSOrigins []string `mapstructure:"-"`
	AllowedHosts       []string `mapstructure:"ALLOWED_HOSTS"`

	LogLevel string `mapstructure:"LOG_LEVEL"`

	OTelEnabled         bool          `mapstructure:"OTEL_ENABLED"`
	OTelEndpoint        string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelServiceName     string        `mapstructure:"OTEL_SERVICE_NAME"`
	OTelTracesSampler   string        `mapstructure:"OTEL_TRACES_SAMPLER"`
	OTelMetricsInterval time.Duration `mapstructure:"OTEL_METRICS_EXPORT_INTERVAL"`
}

var keys = []string{
	"PROJECT_NAME", "VERSION", "API_V1_STR", "PORT", "ENVIRONMENT",
	"DATABASE_URL", "TEST_DATABASE_URL",
	"SECRET_KEY", "ALGORITHM", "ACCESS_TOKEN_EXPIRE_MINUTES", "PERMISSIONS_FILE",
	"REDIS_URL", "RABBITMQ_URL",
	"AI_BASE_URL", "AI_MODEL", "AI_REQUEST_TIMEOUT",
	"UPLOAD_DIR", "MAX_FILE_SIZE",
	"SMTP_TLS", "SMTP_PORT", "SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD", "EMAILS_FROM",
	"BACKEND_CORS_ORIGINS", "ALLOWED_HOSTS",
	"LOG_LEVEL",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME",
	"OTEL_TRACES_SAMPLER", "OTEL_METRICS_EXPORT_INTERVAL",
}

var (
	once     sync.Once
	settings *Settings
	loadErr  error
)

// Get returns the process-wide settings, loading them on first use.
func Get() (*Settings, error) {
	once.Do(func() {
		settings, loadErr = Load()
	})
	return settings, loadErr
}

// Load reads settings from the environment and an optional .env file in
// the working directory. Environment variables win over the file.
func Load() (*Settings, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(envFile string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PROJECT_NAME", "Family Health Keeper")
	v.SetDefault("VERSION", "1.0.0")
	v.SetDefault("API_V1_STR", "/api/v1")
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("PERMISSIONS_FILE", "permissions.yml")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("AI_MODEL", "gemini-2.5-flash")
	v.SetDefault("AI_REQUEST_TIMEOUT", "60s")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_FILE_SIZE", 10485760)
	v.SetDefault("SMTP_TLS", true)
	v.SetDefault("ALLOWED_HOSTS", []string{"localhost", "127.0.0.1"})
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_SERVICE_NAME", "health-keeper-api")
	v.SetDefault("OTEL_TRACES_SAMPLER", "always_on")
	v.SetDefault("OTEL_METRICS_EXPORT_INTERVAL", "30s")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	// One credential source: GOOGLE_API_KEY, with GEMINI_API_KEY accepted as an alias.
	_ = v.BindEnv("GOOGLE_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY")

	// The dotenv file is optional.
	_ = v.ReadInConfig()

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	origins, err := ParseCORSOrigins(v.Get("BACKEND_CORS_ORIGINS"))
	if err != nil {
		return nil, fmt.Errorf("BACKEND_CORS_ORIGINS: %w", err)
	}
	s.BackendCORSOrigins = origins
	s.AllowedHosts = trimAll(s.AllowedHosts)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseCORSOrigins accepts either a comma-separated string, a JSON list
// encoded as a string, or an already built list. Any other shape is rejected.
func ParseCORSOrigins(raw interface{}) ([]string, error) {
	var origins []string
	switch v := raw.(type) {
	case nil:
		return []string{}, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return []string{}, nil
		}
		if strings.HasPrefix(trimmed, "[") {
			if err := json.Unmarshal([]byte(trimmed), &origins); err != nil {
				return nil, fmt.Errorf("invalid origin list %q: %w", v, err)
			}
		} else {
			for _, part := range strings.Split(v, ",") {
				origins = append(origins, strings.TrimSpace(part))
			}
		}
	case []string:
		origins = v
	case []interface{}:
		origins = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid origin %v", item)
			}
			origins = append(origins, s)
		}
	default:
		return nil, fmt.Errorf("unsupported origin value %v", raw)
	}

	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid origin %q: must be an http(s) URL", o)
		}
	}
	return origins, nil
}

// Validate checks the settings that have no safe default.
func (s *Settings) Validate() error {
	if s.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if s.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	switch s.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("ALGORITHM must be one of HS256, HS384, HS512, got %q", s.Algorithm)
	}
	if s.AccessTokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if s.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	return nil
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (s *Settings) AccessTokenTTL() time.Duration {
	return time.Duration(s.AccessTokenExpireMinutes) * time.Minute
}

// MailEnabled reports whether outbound mail is configured.
func (s *Settings) MailEnabled() bool {
	return s.SMTPHost != ""
}

func (s *Settings) IsDev() bool {
	return s.Environment == "development"
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
