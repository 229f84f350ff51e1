package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[search]
method = "nni"
max_trees = 20
max_rearrangements = 5000
replicates = 4
seed = 99
addseq = "random"

[matrix]
na_as_missing = true

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "48h"

[archive]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"
mongo_database = "trees"

[server]
addr = ":9090"
`)

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Search.Method != "nni" || cfg.Search.MaxTrees != 20 || cfg.Search.MaxRearrangements != 5000 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Search.Replicates != 4 || cfg.Search.Seed != 99 || cfg.Search.AddSeq != "random" {
		t.Errorf("search = %+v", cfg.Search)
	}
	if !cfg.Matrix.NAAsMissing {
		t.Error("matrix.na_as_missing not read")
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if ttl, err := cfg.cacheTTL(); err != nil || ttl != 48*time.Hour {
		t.Errorf("cacheTTL() = %v, %v", ttl, err)
	}
	if cfg.Archive.Backend != "mongo" || cfg.Archive.MongoDatabase != "trees" {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	if got := cfg.serverAddr(); got != ":9090" {
		t.Errorf("serverAddr() = %q", got)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, err := loadConfig(path, false)
	if err != nil {
		t.Fatalf("implicit missing config: %v", err)
	}
	if cfg.serverAddr() != defaultServerAddr {
		t.Errorf("serverAddr() = %q, want default", cfg.serverAddr())
	}
	if ttl, _ := cfg.cacheTTL(); ttl != 0 {
		t.Errorf("cacheTTL() = %v, want 0", ttl)
	}

	if _, err := loadConfig(path, true); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[search\nmethod = 1", "parse config"},
		{"cache backend", "[cache]\nbackend = \"memcached\"", "unknown cache backend"},
		{"redis addr", "[cache]\nbackend = \"redis\"", "redis_addr is required"},
		{"ttl", "[cache]\nttl = \"soon\"", "invalid cache.ttl"},
		{"archive backend", "[archive]\nbackend = \"s3\"", "unknown archive backend"},
		{"mongo uri", "[archive]\nbackend = \"mongo\"", "mongo_uri is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body), true)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}
