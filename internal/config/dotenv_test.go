package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// withHome points HOME at a fresh directory, clears every override variable
// and, when dotenv is non-empty, writes it to ~/.docidx/.env.
func withHome(t *testing.T, dotenv string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, o := range overrideKeys {
		t.Setenv(o.key, "")
	}
	if dotenv == "" {
		return home
	}
	dir := filepath.Join(home, ".docidx")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatal(err)
	}
	return home
}

func TestLoadDotEnv_NotExist(t *testing.T) {
	withHome(t, "")

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestLoadDotEnv_Syntax(t *testing.T) {
	withHome(t, strings.Join([]string{
		"# comment",
		"",
		"PLAIN=1",
		"export EXPORTED=two",
		`DOUBLE="with spaces"`,
		"SINGLE='x=y'",
		`MISMATCHED="open`,
		"  PADDED  =  v  ",
		"=novalue",
		"noequals",
	}, "\n"))

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	want := map[string]string{
		"PLAIN":      "1",
		"EXPORTED":   "two",
		"DOUBLE":     "with spaces",
		"SINGLE":     "x=y",
		"MISMATCHED": `"open`,
		"PADDED":     "v",
	}
	if len(m) != len(want) {
		t.Fatalf("got %d keys, want %d: %v", len(m), len(want), m)
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %q, want %q", k, m[k], v)
		}
	}
}

func TestGetConfigValue_EnvOverridesDotEnv(t *testing.T) {
	withHome(t, EnvListen+"=:1111\n")

	if v, err := GetConfigValue(EnvListen); err != nil || v != ":1111" {
		t.Fatalf("dotenv value: %q, %v", v, err)
	}
	t.Setenv(EnvListen, ":2222")
	if v, err := GetConfigValue(EnvListen); err != nil || v != ":2222" {
		t.Fatalf("expected env override, got %q, %v", v, err)
	}
}

func TestDotEnv_OverridesConfig(t *testing.T) {
	home := withHome(t, strings.Join([]string{
		"export " + EnvIndexPath + `="~/docs/searchindex.js"`,
		EnvCacheSize + "=3",
		EnvWatch + "=false",
	}, "\n"))

	cfg, err := LoadOrDefault(filepath.Join(home, "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.IndexPath != filepath.Join(home, "docs", "searchindex.js") {
		t.Fatalf("index path from .env not applied: %q", cfg.IndexPath)
	}
	if cfg.CacheSize != 3 || cfg.Watch {
		t.Fatalf(".env overrides not applied: %+v", cfg)
	}

	t.Setenv(EnvCacheSize, "9")
	cfg, err = LoadOrDefault(filepath.Join(home, "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.CacheSize != 9 {
		t.Fatalf("process env must win over .env: %+v", cfg)
	}
}

func TestDotEnv_InvalidCacheSize(t *testing.T) {
	home := withHome(t, EnvCacheSize+"=-1\n")

	_, err := LoadOrDefault(filepath.Join(home, "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), EnvCacheSize) {
		t.Fatalf("expected %s error, got %v", EnvCacheSize, err)
	}
}

func TestEnsureDotEnvTemplate_DoesNotOverwrite(t *testing.T) {
	home := withHome(t, EnvListen+"=keep\n")
	p := filepath.Join(home, ".docidx", ".env")

	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != EnvListen+"=keep\n" {
		t.Fatalf("template overwrote existing file: %q", string(b))
	}
}

func TestEnsureDotEnvTemplate_ListsEveryKey(t *testing.T) {
	withHome(t, "")

	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	for _, k := range []string{EnvIndexPath, EnvListen, EnvCacheSize, EnvWatch, EnvLogLevel, EnvLogFormat} {
		v, ok := m[k]
		if !ok || v != "" {
			t.Errorf("template entry %s = %q, present %v", k, v, ok)
		}
	}

	// An empty template must leave the defaults alone.
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if !cfg.Watch || cfg.CacheSize != 1024 {
		t.Fatalf("empty template changed defaults: %+v", cfg)
	}
}
