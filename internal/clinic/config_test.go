package clinic

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig(map[string]string{
		"VET_API_URL":   "http://localhost:8080/api/",
		"VET_PAGE_SIZE": "25",
		"VET_TIMEOUT":   "5s",
		"VET_LOG_LEVEL": "DEBUG",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if config.APIURL != "http://localhost:8080/api" {
		t.Errorf("trailing slash not trimmed: %q", config.APIURL)
	}
	if config.PageSize != 25 || config.Timeout != 5*time.Second || config.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", config)
	}
	if config.Brand != "Veterinaria CLI" {
		t.Errorf("default brand lost: %q", config.Brand)
	}
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing url": {"VET_PAGE_SIZE": "10"},
		"page size":   {"VET_API_URL": "http://x", "VET_PAGE_SIZE": "0"},
		"timeout":     {"VET_API_URL": "http://x", "VET_TIMEOUT": "soon"},
	}
	for name, values := range cases {
		if _, err := ParseConfig(values); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	config := DefaultConfig()
	config.APIURL = "http://clinic.local/api"
	config.LANURL = "http://192.168.1.10:8080/api"
	if err := SaveConfig(config, ConfigFile); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, ConfigFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600, got %v", info.Mode().Perm())
	}

	t.Setenv("VET_PAGE_SIZE", "7")
	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.APIURL != config.APIURL || loaded.LANURL != config.LANURL {
		t.Errorf("urls not round-tripped: %+v", loaded)
	}
	if loaded.PageSize != 7 {
		t.Errorf("env override ignored: page size %d", loaded.PageSize)
	}
}

func TestSessionPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	s := NewSession(path)
	if err := s.set(&User{ID: 2, Username: "vet1", Role: RoleVet}); err != nil {
		t.Fatalf("set: %v", err)
	}

	restored := NewSession(path)
	if err := restored.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if u := restored.Current(); u == nil || u.Username != "vet1" {
		t.Fatalf("session not restored: %+v", u)
	}

	if err := restored.set(nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file should be removed")
	}
}
