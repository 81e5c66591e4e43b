package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Uploads    UploadsConfig
	AWS        AWSConfig
	Completion CompletionConfig
	Formation  FormationConfig
	Seed       SeedConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend string // "file" (default) or "postgres"
	DataDir string // directory holding the collection files for the file backend
}

// DatabaseConfig holds PostgreSQL connection settings (postgres store backend only).
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Redis is optional; when disabled the
// formation lock and chat fan-out stay in-process and async formation jobs are unavailable.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// UploadsConfig controls where course summary PDFs are stored.
type UploadsConfig struct {
	Backend      string // "local" (default) or "s3"
	Dir          string // local directory
	PublicPrefix string // reference prefix stored on the course, e.g. /uploads
	MaxSizeMB    int
}

// AWSConfig holds AWS credentials and the uploads bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UploadsBucket   string
	PublicBaseURL   string // public front for uploads; empty means the bucket URL
}

// CompletionConfig configures the OpenAI-compatible chat completion service.
type CompletionConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	TimeoutSec  int
	JSONMode    bool // sends response_format=json_object
}

// FormationConfig configures team formation runs.
type FormationConfig struct {
	TeamSize       int
	LockTTLSeconds int
	RunTimeoutSec  int
}

// SeedConfig holds first-start seed data.
type SeedConfig struct {
	QuestionsFile string // optional YAML question catalogue; embedded default otherwise
	AdminUsername string
	AdminPassword string
	AdminCompany  string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Timeout returns the completion call timeout.
func (c CompletionConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// LockTTL returns how long a formation lock may be held before it expires.
func (c FormationConfig) LockTTL() time.Duration {
	if c.LockTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// RunTimeout bounds a single formation run, including store reads and writes.
func (c FormationConfig) RunTimeout() time.Duration {
	if c.RunTimeoutSec <= 0 {
		return 3 * time.Minute
	}
	return time.Duration(c.RunTimeoutSec) * time.Second
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 180),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", "file")),
			DataDir: getEnv("STORE_DATA_DIR", "db"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "internhub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Uploads: UploadsConfig{
			Backend:      strings.ToLower(getEnv("UPLOADS_BACKEND", "local")),
			Dir:          getEnv("UPLOADS_DIR", "public/uploads"),
			PublicPrefix: getEnv("UPLOADS_PUBLIC_PREFIX", "/uploads"),
			MaxSizeMB:    getEnvInt("UPLOADS_MAX_SIZE_MB", 20),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			UploadsBucket:   getEnv("AWS_S3_UPLOADS_BUCKET", "internhub-uploads"),
			PublicBaseURL:   getEnv("AWS_S3_PUBLIC_BASE_URL", ""),
		},
		Completion: CompletionConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.7),
			TimeoutSec:  getEnvInt("OPENAI_TIMEOUT_SEC", 120),
			JSONMode:    getEnvBool("OPENAI_JSON_MODE", true),
		},
		Formation: FormationConfig{
			TeamSize:       getEnvInt("FORMATION_TEAM_SIZE", 5),
			LockTTLSeconds: getEnvInt("FORMATION_LOCK_TTL_SEC", 300),
			RunTimeoutSec:  getEnvInt("FORMATION_RUN_TIMEOUT_SEC", 180),
		},
		Seed: SeedConfig{
			QuestionsFile: getEnv("QUESTIONS_FILE", ""),
			AdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", ""),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
			AdminCompany:  getEnv("BOOTSTRAP_ADMIN_COMPANY", ""),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Uploads.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown UPLOADS_BACKEND %q", c.Uploads.Backend)
	}
	if c.Formation.TeamSize < 2 {
		return fmt.Errorf("FORMATION_TEAM_SIZE must be at least 2, got %d", c.Formation.TeamSize)
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return fmt.Errorf("OPENAI_TEMPERATURE out of range: %v", c.Completion.Temperature)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
