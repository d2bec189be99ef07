package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteDotEnvRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	values := map[string]string{"STUB_ADDR": ":9090", "API_BASE_URL": "http://localhost:9090"}

	if err := WriteDotEnv(path, values, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteDotEnv(path, values, false); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	if err := WriteDotEnv(path, values, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "API_BASE_URL=http://localhost:9090\nSTUB_ADDR=:9090\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"# comment",
		"",
		"HRCONSOLE_TEST_SET=from-file",
		"HRCONSOLE_TEST_KEPT=from-file",
		"not a pair",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HRCONSOLE_TEST_KEPT", "from-env")
	os.Unsetenv("HRCONSOLE_TEST_SET")
	defer os.Unsetenv("HRCONSOLE_TEST_SET")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("HRCONSOLE_TEST_SET"); got != "from-file" {
		t.Fatalf("unset variable: got %q", got)
	}
	if got := os.Getenv("HRCONSOLE_TEST_KEPT"); got != "from-env" {
		t.Fatalf("existing variable clobbered: got %q", got)
	}
}

func TestParseDotEnvLine(t *testing.T) {
	cases := []struct {
		line       string
		key, value string
		ok         bool
	}{
		{"API_BASE_URL=http://localhost:8080", "API_BASE_URL", "http://localhost:8080", true},
		{"export STUB_ADDR=:9090", "STUB_ADDR", ":9090", true},
		{`DOWNLOAD_DIR="my downloads"`, "DOWNLOAD_DIR", "my downloads", true},
		{"TOKEN_PATH='/tmp/token'", "TOKEN_PATH", "/tmp/token", true},
		{"# API_BASE_URL=commented", "", "", false},
		{"no equals here", "", "", false},
		{"=value without key", "", "", false},
	}
	for _, tc := range cases {
		key, value, ok := parseDotEnvLine(tc.line)
		if key != tc.key || value != tc.value || ok != tc.ok {
			t.Errorf("parseDotEnvLine(%q) = %q, %q, %v", tc.line, key, value, ok)
		}
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatalf("missing file should be fine: %v", err)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"API_BASE_URL", "STUB_ADDR", "STUB_JWT_SECRET", "DOWNLOAD_DIR", "TOKEN_PATH", "REFRESH_INTERVAL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := FromEnv()
	if cfg.APIBaseURL == "" || cfg.StubAddr == "" || cfg.StubSecret == "" {
		t.Fatalf("missing defaults: %+v", cfg)
	}
	if cfg.RefreshInterval <= 0 {
		t.Fatalf("refresh interval default: %v", cfg.RefreshInterval)
	}
}
