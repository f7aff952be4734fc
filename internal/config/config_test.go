package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
)

// isolate runs the test in an empty directory with no ekg variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	for _, k := range []string{"EKG_CONFIG", "EKG_DB", "EKG_ADDR", "EKG_PEAK_DISTANCE", "EKG_PEAK_HEIGHT"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Peaks != ekg.DefaultPeakParams() {
		t.Errorf("expected default peaks, got %+v", cfg.Peaks)
	}
	if cfg.DB != filepath.Join(dir, ".ekg", "ekg.db") {
		t.Errorf("unexpected db path %q", cfg.DB)
	}
	if cfg.Plot.Window != 10*time.Second || cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "ekg.yaml")
	yml := `db: /tmp/clinic.db
peaks:
  min_distance: 150
  min_height: 0.8
plot:
  window: 5s
server:
  addr: 127.0.0.1:9000
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB != "/tmp/clinic.db" {
		t.Errorf("expected db from file, got %q", cfg.DB)
	}
	if cfg.Peaks.MinDistance != 150 || cfg.Peaks.MinHeight != 0.8 {
		t.Errorf("expected peaks from file, got %+v", cfg.Peaks)
	}
	if cfg.Plot.Window != 5*time.Second {
		t.Errorf("expected 5s window, got %v", cfg.Plot.Window)
	}
	if cfg.Plot.Width != 1200 {
		t.Errorf("expected unset width to keep default, got %d", cfg.Plot.Width)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "ekg.yaml")
	os.WriteFile(path, []byte("peaks:\n  min_distance: 150\n"), 0o644)

	t.Setenv("EKG_CONFIG", path)
	t.Setenv("EKG_PEAK_DISTANCE", "250")
	t.Setenv("EKG_DB", "/data/ekg.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Peaks.MinDistance != 250 {
		t.Errorf("expected env distance 250, got %d", cfg.Peaks.MinDistance)
	}
	if cfg.DB != "/data/ekg.db" {
		t.Errorf("expected env db, got %q", cfg.DB)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("EKG_ADDR")
	os.WriteFile(filepath.Join(dir, ".env"), []byte("EKG_ADDR=:7070\n"), 0o644)
	t.Cleanup(func() { os.Unsetenv("EKG_ADDR") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected addr from .env, got %q", cfg.Server.Addr)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist for explicit missing file, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("peaks: [1, 2"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}

	t.Setenv("EKG_PEAK_HEIGHT", "tall")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric height")
	}

	t.Setenv("EKG_PEAK_HEIGHT", "")
	t.Setenv("EKG_PEAK_DISTANCE", "0")
	if _, err := Load(""); !errors.Is(err, ekg.ErrInvalidPeakDistance) {
		t.Errorf("expected ErrInvalidPeakDistance, got %v", err)
	}
}
