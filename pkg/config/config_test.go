package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skilltree.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("store backend = %s", cfg.Store.Backend)
	}
	if cfg.Cache.TTL.Std() != time.Minute {
		t.Errorf("cache ttl = %s", cfg.Cache.TTL.Std())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9090"

[store]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "45s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %s", cfg.Server.Addr)
	}
	if cfg.Store.Backend != StoreMongo || cfg.Store.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("store = %+v", cfg.Store)
	}
	// Unset mongo_database keeps its default.
	if cfg.Store.MongoDatabase != "skilltree" {
		t.Errorf("mongo database = %s", cfg.Store.MongoDatabase)
	}
	if cfg.Cache.TTL.Std() != 45*time.Second {
		t.Errorf("ttl = %s", cfg.Cache.TTL.Std())
	}
	// Sections absent from the file keep their defaults.
	if cfg.View.Width != 120 || cfg.View.Height != 40 {
		t.Errorf("view = %+v", cfg.View)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown store backend", "[store]\nbackend = \"sqlite\"\n"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n"},
		{"file cache without dir", "[cache]\nbackend = \"file\"\n"},
		{"redis cache without addr", "[cache]\nbackend = \"redis\"\n"},
		{"bad duration", "[cache]\nttl = \"soon\"\n"},
		{"zero viewport", "[view]\nwidth = 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
