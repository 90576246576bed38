package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Every field has an
// environment fallback so the YAML file is optional in deployments.
type Config struct {
	Server struct {
		Port           string `yaml:"port"`
		AllowedOrigins string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Redis struct {
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		SessionTTL string `yaml:"sessionTtl"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret     string `yaml:"jwtSecret"`
		AdminEmail    string `yaml:"adminEmail"`
		AdminPassword string `yaml:"adminPassword"`
	} `yaml:"auth"`
	Writer struct {
		Buffer int `yaml:"buffer"`
	} `yaml:"writer"`
}

// Load reads YAML config from path, then lets environment variables
// override it. A missing file is not an error; env-only setups are
// common in containers.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	overlay(&cfg.Server.Port, "PORT", "8080")
	overlay(&cfg.Server.AllowedOrigins, "CORS_ALLOWED_ORIGINS", "*")
	overlay(&cfg.Mongo.URI, "MONGO_URI", "mongodb://localhost:27017")
	overlay(&cfg.Mongo.Database, "MONGO_DB", "manara")
	overlay(&cfg.Redis.Addr, "REDIS_ADDR", "localhost:6379")
	overlay(&cfg.Redis.Password, "REDIS_PASSWORD", "")
	overlay(&cfg.Auth.JWTSecret, "JWT_SECRET", "dev-secret-change-me")
	overlay(&cfg.Auth.AdminEmail, "ADMIN_EMAIL", "")
	overlay(&cfg.Auth.AdminPassword, "ADMIN_PASSWORD", "")
	if cfg.Writer.Buffer == 0 {
		cfg.Writer.Buffer = 64
	}
	return cfg, nil
}

// SessionTTL parses the snapshot TTL or returns the fallback
func (c *Config) SessionTTL(fallback time.Duration) time.Duration {
	if c.Redis.SessionTTL == "" {
		return fallback
	}
	if d, err := time.ParseDuration(c.Redis.SessionTTL); err == nil {
		return d
	}
	return fallback
}

// overlay prefers the env var, then the YAML value, then the default
func overlay(dst *string, env, def string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
		return
	}
	if *dst == "" {
		*dst = def
	}
}
