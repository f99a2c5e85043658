package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bluescreen10/storefront/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadFiles()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.API.BaseURL != "http://localhost:3001/api" {
		t.Fatalf("expected default base url got '%s'", cfg.API.BaseURL)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Payment.MountPoint != "pp-button" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestFilesOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	global := writeFile(t, dir, "global.yaml", "api:\n  base_url: http://global/api\nstore:\n  driver: redis\n  dsn: localhost:6379\n")
	project := writeFile(t, dir, "project.yaml", "store:\n  driver: memory\nlog:\n  level: debug\n")

	cfg, err := config.LoadFiles(global, project, filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.API.BaseURL != "http://global/api" {
		t.Fatalf("expected global base url got '%s'", cfg.API.BaseURL)
	}
	if cfg.Store.Driver != "memory" || cfg.Store.DSN != "localhost:6379" {
		t.Fatalf("expected project to override driver only got %+v", cfg.Store)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected level 'debug' got '%s'", cfg.Log.Level)
	}
}

func TestEnvOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	project := writeFile(t, dir, "project.yaml", "api:\n  base_url: http://file/api\n")
	t.Setenv("STOREFRONT_API_BASE_URL", "http://env/api")

	cfg, err := config.LoadFiles(project)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "http://env/api" {
		t.Fatalf("expected env base url got '%s'", cfg.API.BaseURL)
	}
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "STOREFRONT_SERVE_ADDR=0.0.0.0:9999\n")
	t.Cleanup(func() { os.Unsetenv("STOREFRONT_SERVE_ADDR") })

	cfg, err := config.LoadFiles()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serve.Addr != "0.0.0.0:9999" {
		t.Fatalf("expected addr from .env got '%s'", cfg.Serve.Addr)
	}
}

func TestUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_STORE_DRIVER", "cassandra")

	if _, err := config.LoadFiles(); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDriverIsNormalized(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_STORE_DRIVER", "MySQL")

	cfg, err := config.LoadFiles()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Driver != "mysql" {
		t.Fatalf("expected 'mysql' got '%s'", cfg.Store.Driver)
	}
}

func TestCodec(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadFiles()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Codec != "json" {
		t.Fatalf("expected default codec 'json' got '%s'", cfg.Store.Codec)
	}

	t.Setenv("STOREFRONT_STORE_CODEC", "GOB")
	cfg, err = config.LoadFiles()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Codec != "gob" {
		t.Fatalf("expected 'gob' got '%s'", cfg.Store.Codec)
	}

	t.Setenv("STOREFRONT_STORE_CODEC", "msgpack")
	if _, err := config.LoadFiles(); err == nil {
		t.Fatal("expected an error for unknown codec")
	}
}
