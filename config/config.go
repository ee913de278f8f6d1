// Package config holds all configuration for the federated search service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Role decides which side of the federation this process runs as.
type Role string

const (
	// RoleGoverning owns index-write credentials and aggregates
	// configuration across scopes.
	RoleGoverning Role = "governing"
	// RoleBrand delegates backend access to the governing site.
	RoleBrand Role = "brand"
)

// Config holds all configuration for the service.
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Index      IndexConfig      `mapstructure:"index"`
	Search     SearchConfig     `mapstructure:"search"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Federation FederationConfig `mapstructure:"federation"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Role     Role   `mapstructure:"role"`
	SiteURL  string `mapstructure:"site_url"`
	Listen   string `mapstructure:"listen"`
	LogLevel string `mapstructure:"log_level"`
}

func (g GeneralConfig) Validate() error {
	if g.Role != RoleGoverning && g.Role != RoleBrand {
		return fmt.Errorf("general.role must be %q or %q", RoleGoverning, RoleBrand)
	}
	if strings.TrimSpace(g.SiteURL) == "" {
		return fmt.Errorf("general.site_url is required")
	}
	return nil
}

// IndexConfig contains record building and write settings.
type IndexConfig struct {
	RecordSizeLimit int    `mapstructure:"record_size_limit"`
	BatchSize       int    `mapstructure:"batch_size"`
	Path            string `mapstructure:"path"`             // on-disk index location; empty = in-memory
	ReindexSchedule string `mapstructure:"reindex_schedule"` // cron spec for periodic full reindex; empty = disabled
}

// SearchConfig contains query-side settings.
type SearchConfig struct {
	HitsPerPage    int `mapstructure:"hits_per_page"`
	ChunkBatchSize int `mapstructure:"chunk_batch_size"`
}

// StorageConfig contains backing store connection settings.
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings for the config store.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port, or empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if strings.TrimSpace(r.Host) == "" {
		return ""
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

// PostgresConfig contains content store connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles the connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// FederationConfig contains cross-site sync settings.
type FederationConfig struct {
	GoverningURL string        `mapstructure:"governing_url"`
	SharedSecret string        `mapstructure:"shared_secret"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	PushTimeout  time.Duration `mapstructure:"push_timeout"`
}

func (f FederationConfig) Validate(role Role) error {
	if role == RoleBrand {
		if strings.TrimSpace(f.GoverningURL) == "" {
			return fmt.Errorf("federation.governing_url is required for brand role")
		}
		if strings.TrimSpace(f.SharedSecret) == "" {
			return fmt.Errorf("federation.shared_secret is required for brand role")
		}
	}
	return nil
}

// LoadConfig loads config from file plus ONESEARCH_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.role", string(RoleGoverning))
	viper.SetDefault("general.listen", ":10080")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("index.record_size_limit", 9500)
	viper.SetDefault("index.batch_size", 100)
	viper.SetDefault("search.hits_per_page", 10)
	viper.SetDefault("search.chunk_batch_size", 20)
	viper.SetDefault("federation.cache_ttl", 7*24*time.Hour)
	viper.SetDefault("federation.push_timeout", 10*time.Second)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("ONESEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.General.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Federation.Validate(cfg.General.Role); err != nil {
		return nil, err
	}
	return &cfg, nil
}
