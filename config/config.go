package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Minio    MinioConfig    `yaml:"minio"`
	Renderer RendererConfig `yaml:"renderer"`
	Redis    RedisConfig    `yaml:"redis"`
	Signing  SigningConfig  `yaml:"signing"`
	Auth     AuthConfig     `yaml:"auth"`
	Users    []User         `yaml:"users"`
}

type ServerConfig struct {
	Port            int `yaml:"port"`
	RateLimit       int `yaml:"rate_limit"` // requests per minute per client
	ShutdownSeconds int `yaml:"shutdown_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite or mysql
	DSN  string `yaml:"dsn"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// RendererConfig points at the HTML-to-PDF rendering service.
type RendererConfig struct {
	APIURL         string `yaml:"api_url"`
	APIToken       string `yaml:"api_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageSize       string `yaml:"page_size"`
}

// RedisConfig enables the shared idempotency store. An empty Addr keeps
// idempotency keys in process memory.
type RedisConfig struct {
	Addr                string `yaml:"addr"`
	Password            string `yaml:"password"`
	DB                  int    `yaml:"db"`
	IdempotencyTTLHours int    `yaml:"idempotency_ttl_hours"`
}

type SigningConfig struct {
	TokenTTLDays          int             `yaml:"token_ttl_days"`
	MinContentLength      int             `yaml:"min_content_length"`
	IdempotencyMaxEntries int             `yaml:"idempotency_max_entries"`
	Authority             AuthorityConfig `yaml:"authority"`
}

// AuthorityConfig registers the auto-sign identity at startup when TypedName
// is set. ImageObject is a key in the MinIO bucket.
type AuthorityConfig struct {
	TypedName   string `yaml:"typed_name"`
	Title       string `yaml:"title"`
	ImageObject string `yaml:"image_object"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

// User is a configured API account. PasswordHash is a bcrypt hash.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Tenant       string `yaml:"tenant"`
	Role         string `yaml:"role"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 100
	}
	if c.Server.ShutdownSeconds == 0 {
		c.Server.ShutdownSeconds = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Type == "sqlite" {
		c.Database.DSN = "docsign.db"
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Renderer.TimeoutSeconds == 0 {
		c.Renderer.TimeoutSeconds = 60
	}
	if c.Renderer.PageSize == "" {
		c.Renderer.PageSize = "Letter"
	}
	if c.Redis.IdempotencyTTLHours == 0 {
		c.Redis.IdempotencyTTLHours = 24
	}
	if c.Signing.TokenTTLDays == 0 {
		c.Signing.TokenTTLDays = 30
	}
	if c.Signing.MinContentLength == 0 {
		c.Signing.MinContentLength = 20
	}
	if c.Signing.IdempotencyMaxEntries == 0 {
		c.Signing.IdempotencyMaxEntries = 1000
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Database.Type == "mysql" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for mysql")
	}
	if c.Signing.TokenTTLDays < 0 || c.Signing.MinContentLength < 0 {
		return fmt.Errorf("signing settings must not be negative")
	}
	return nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
