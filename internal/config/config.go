// Package config resolves runtime settings from the environment, with an
// optional .env file filling in anything the environment leaves unset.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
)

type Config struct {
	// APIBaseURL is where the console sends its requests, including the
	// /api prefix when the server mounts one.
	APIBaseURL string

	// StubAddr is the listen address for the development stub server.
	StubAddr string

	// StubSecret signs the stub's JWTs. Development only.
	StubSecret string

	// DownloadDir receives payslips and exports.
	DownloadDir string

	// TokenPath overrides where the session token persists. Empty picks
	// the user config dir.
	TokenPath string

	// RefreshInterval drives the attendance card clock.
	RefreshInterval time.Duration
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func FromEnv() Config {
	cfg := Config{
		APIBaseURL:      getenv("API_BASE_URL", "http://localhost:8080/api"),
		StubAddr:        getenv("STUB_ADDR", ":8080"),
		StubSecret:      getenv("STUB_JWT_SECRET", "dev-secret"),
		DownloadDir:     getenv("DOWNLOAD_DIR", "downloads"),
		TokenPath:       os.Getenv("TOKEN_PATH"),
		RefreshInterval: time.Second,
	}
	if raw := os.Getenv("REFRESH_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.RefreshInterval = d
		}
	}
	return cfg
}

// LoadDotEnv sets variables from path that the environment does not already
// define. A missing file is not an error. Lines may carry an `export ` prefix
// and values may be single- or double-quoted.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseDotEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func parseDotEnvLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")

	key, value, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	value = strings.TrimSpace(value)
	return key, unquote(value), true
}

func unquote(s string) string {
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// WriteDotEnv writes values sorted by key, refusing to clobber an existing
// file unless overwrite is set.
func WriteDotEnv(path string, values map[string]string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, values[k])
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}
