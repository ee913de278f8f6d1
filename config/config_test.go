package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{"general":{"site_url":"https://gov.example.com"}}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.Role != RoleGoverning {
		t.Errorf("default role = %q", cfg.General.Role)
	}
	if cfg.Index.RecordSizeLimit != 9500 {
		t.Errorf("record size limit = %d", cfg.Index.RecordSizeLimit)
	}
	if cfg.Search.ChunkBatchSize != 20 {
		t.Errorf("chunk batch size = %d", cfg.Search.ChunkBatchSize)
	}
}

func TestLoadConfigBrandRequiresFederation(t *testing.T) {
	path := writeConfig(t, `{"general":{"role":"brand","site_url":"https://brand.example.com"}}`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("brand role without governing_url must fail validation")
	}

	path = writeConfig(t, `{
		"general":{"role":"brand","site_url":"https://brand.example.com"},
		"federation":{"governing_url":"https://gov.example.com","shared_secret":"s3cret"}
	}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Federation.GoverningURL != "https://gov.example.com" {
		t.Errorf("governing url = %q", cfg.Federation.GoverningURL)
	}
}

func TestLoadConfigRejectsUnknownRole(t *testing.T) {
	path := writeConfig(t, `{"general":{"role":"observer","site_url":"https://x.example.com"}}`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("unknown role must fail validation")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", DBName: "content", User: "svc", Password: "pw"}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatalf("DSN: %v", err)
	}
	want := "postgres://svc:pw@db:5432/content?sslmode=disable"
	if dsn != want {
		t.Errorf("DSN = %q, want %q", dsn, want)
	}

	p = PostgresConfig{URL: "postgres://elsewhere/db"}
	if dsn, _ := p.DSN(); dsn != "postgres://elsewhere/db" {
		t.Errorf("explicit URL not preferred: %q", dsn)
	}

	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Error("unconfigured postgres must error")
	}
}

func TestRedisAddr(t *testing.T) {
	if got := (RedisConfig{}).Addr(); got != "" {
		t.Errorf("unconfigured addr = %q", got)
	}
	if got := (RedisConfig{Host: "cache"}).Addr(); got != "cache:6379" {
		t.Errorf("default port addr = %q", got)
	}
	if got := (RedisConfig{Host: "cache", Port: "7000"}).Addr(); got != "cache:7000" {
		t.Errorf("addr = %q", got)
	}
}
