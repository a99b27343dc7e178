package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "milldesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `version: 1
stores:
  hastings:
    type: postgresql
    host: localhost
    port: 5432
    database: attendance_hastings
    username: reader
    password: secret
llm:
  model: claude-sonnet-4-5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	s, ok := cfg.Store("hastings")
	if !ok {
		t.Fatal("expected hastings store")
	}
	if s.Type != "postgresql" {
		t.Errorf("expected type postgresql, got %s", s.Type)
	}
	if s.MaxConnections != 4 {
		t.Errorf("expected default max_connections 4, got %d", s.MaxConnections)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.LLM.TimeoutSeconds != 30 {
		t.Errorf("expected default llm timeout 30, got %d", cfg.LLM.TimeoutSeconds)
	}
	if len(cfg.Guard.AllowedTables) != 1 || cfg.Guard.AllowedTables[0] != "AttendanceReport" {
		t.Errorf("expected default allowed tables [AttendanceReport], got %v", cfg.Guard.AllowedTables)
	}
}

func TestLoadExpandsTildePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".milldesk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `version: 1
stores:
  hastings:
    type: postgresql
    host: localhost
    port: 5432
    database: attendance_hastings
    username: reader
    password: secret
`
	if err := os.WriteFile(filepath.Join(dir, "milldesk.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// The unexpanded default path is exactly what the CLI hands to Load.
	cfg, err := Load(DefaultPath)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", DefaultPath, err)
	}
	if _, ok := cfg.Store("hastings"); !ok {
		t.Error("expected hastings store from tilde-path config")
	}
}

func TestSaveExpandsTildePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &Config{
		Version: 1,
		Stores: map[string]StoreConfig{
			"hastings": {Type: "postgresql", Host: "localhost", Port: 5432},
		},
	}
	if err := cfg.Save(DefaultPath); err != nil {
		t.Fatalf("Save(%q) error: %v", DefaultPath, err)
	}

	want := filepath.Join(home, ".milldesk", "milldesk.yaml")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected config written to %s: %v", want, err)
	}
	if _, err := os.Stat("~"); err == nil {
		t.Error("a literal ~ directory was created in the working directory")
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	path := writeConfig(t, `version: 99
stores:
  hastings:
    type: postgresql
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid version")
	}
}

func TestLoadNoStores(t *testing.T) {
	path := writeConfig(t, `version: 1
llm:
  model: claude-sonnet-4-5
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for empty store set")
	}
}

func TestStoreLookupCaseInsensitive(t *testing.T) {
	path := writeConfig(t, `version: 1
stores:
  Hastings:
    type: postgresql
    host: localhost
    port: 5432
    database: attendance_hastings
    username: reader
    password: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := cfg.Store("HASTINGS"); !ok {
		t.Error("expected case-insensitive store lookup to succeed")
	}
	if _, ok := cfg.Store("gondalpara"); ok {
		t.Error("expected lookup of unconfigured store to fail")
	}
}

func TestStoreNamesSorted(t *testing.T) {
	path := writeConfig(t, `version: 1
stores:
  india:
    type: postgresql
  gondalpara:
    type: postgresql
  hastings:
    type: postgresql
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := cfg.StoreNames()
	want := []string{"gondalpara", "hastings", "india"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestResolveEnvSecret(t *testing.T) {
	t.Setenv("TEST_SECRET", "mysecret")
	val, err := ResolveValue("${ENV:TEST_SECRET}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "mysecret" {
		t.Errorf("expected mysecret, got %s", val)
	}
}

func TestResolvePlainValue(t *testing.T) {
	val, err := ResolveValue("plaintext")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "plaintext" {
		t.Errorf("expected plaintext, got %s", val)
	}
}

func TestMaxConnectionsCapped(t *testing.T) {
	path := writeConfig(t, `version: 1
stores:
  hastings:
    type: postgresql
    host: localhost
    port: 5432
    database: attendance_hastings
    username: reader
    password: secret
    max_connections: 100
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, _ := cfg.Store("hastings")
	if s.MaxConnections != 20 {
		t.Errorf("expected max_connections capped at 20, got %d", s.MaxConnections)
	}
}
