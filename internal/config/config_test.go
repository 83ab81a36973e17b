package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	setEnv(t, map[string]string{
		"CLASS_NAME":       "M.4/1",
		"STORE_BACKEND":    "memory",
		"NOTIFIER":         "console",
		"LOCK_BACKEND":     "redis",
		"LOCK_WAIT":        "750ms",
		"STORE_TIMEOUT":    "2s",
		"REDIS_DB":         "3",
		"LINE_GROUP_ID":    "G1",
		"MIGRATE_ON_START": "false",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClassName != "M.4/1" || cfg.StoreBackend != "memory" || cfg.LineGroupID != "G1" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LockWait != 750*time.Millisecond || cfg.StoreTimeout != 2*time.Second {
		t.Errorf("durations = %s %s", cfg.LockWait, cfg.StoreTimeout)
	}
	if cfg.RedisDB != 3 || cfg.MigrateOnStart {
		t.Errorf("redis db = %d, migrate = %v", cfg.RedisDB, cfg.MigrateOnStart)
	}
	if cfg.Timezone != "Asia/Bangkok" || cfg.HTTPPort != "8081" {
		t.Errorf("defaults = %q %q", cfg.Timezone, cfg.HTTPPort)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	body := "CLASS_NAME=M.6/2\nSTORE_BACKEND=memory\nNOTIFIER=console\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides the real environment; register cleanup for
	// the keys it sets
	for _, k := range []string{"CLASS_NAME", "STORE_BACKEND", "NOTIFIER"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClassName != "M.6/2" {
		t.Errorf("class = %q", cfg.ClassName)
	}
}

func TestValidate(t *testing.T) {
	good := App{
		StoreBackend: "memory", LockBackend: "memory", Notifier: "console",
		ClassName: "M.4/1", Timezone: "Asia/Bangkok",
		StoreTimeout: time.Second, NotifyTimeout: time.Second, EventTimeout: time.Second, LockTTL: time.Second,
		RateLimitPerMin: 60,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("good config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*App)
		want   string
	}{
		{"line without secrets", func(a *App) { a.Notifier = "line" }, "LINE_CHANNEL_SECRET"},
		{"unknown store", func(a *App) { a.StoreBackend = "mongo" }, "STORE_BACKEND"},
		{"postgres without url", func(a *App) { a.StoreBackend = "postgres" }, "DATABASE_URL"},
		{"bad lock backend", func(a *App) { a.LockBackend = "etcd" }, "LOCK_BACKEND"},
		{"no class", func(a *App) { a.ClassName = "" }, "CLASS_NAME"},
		{"bad timezone", func(a *App) { a.Timezone = "Mars/Olympus" }, "TIMEZONE"},
		{"zero timeout", func(a *App) { a.StoreTimeout = 0 }, "STORE_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := good
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
