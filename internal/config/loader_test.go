package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: 127.0.0.1:9999\ndata_dir: /tmp/traind\nlog_level: debug\ndefault_preference: gpu_only\nrefresh_seconds: 5\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" || cfg.DataDir != "/tmp/traind" || cfg.LogLevel != "debug" || cfg.DefaultPreference != "gpu_only" || cfg.RefreshSeconds != 5 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":"127.0.0.1:7070","data_dir":"/d","log_file":"/var/log/traind.log","max_body_bytes":2048}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7070" || cfg.DataDir != "/d" || cfg.LogFile != "/var/log/traind.log" || cfg.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\"127.0.0.1:8081\"\ndata_dir=\"/x\"\ndefault_preference=\"cpu_only\"\nshutdown_grace_seconds=9\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8081" || cfg.DataDir != "/x" || cfg.DefaultPreference != "cpu_only" || cfg.ShutdownGraceSeconds != 9 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Addr != DefaultAddr || cfg.DataDir != DefaultDataDir || cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DefaultPreference != DefaultPreference || cfg.RefreshSeconds != DefaultRefreshSeconds {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownGraceSeconds != DefaultGraceSeconds || cfg.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	// Explicit values survive.
	cfg2 := Config{Addr: ":1", RefreshSeconds: 2}
	cfg2.ApplyDefaults()
	if cfg2.Addr != ":1" || cfg2.RefreshSeconds != 2 {
		t.Fatalf("defaults overwrote explicit values: %+v", cfg2)
	}
}
