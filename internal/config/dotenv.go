package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// overrideKeys lists every DOCIDX_* variable finish consults, with the hint
// written above it in the .env template.
var overrideKeys = []struct {
	key  string
	hint string
}{
	{EnvIndexPath, "path of the served searchindex.js"},
	{EnvListen, "HTTP listen address for 'docidx serve'"},
	{EnvCacheSize, "result cache entries, 0 disables the cache"},
	{EnvWatch, "reload the index when it changes on disk (true/false)"},
	{EnvLogLevel, "debug, info, warn or error"},
	{EnvLogFormat, "text or json"},
}

// DotEnvPath returns the absolute path to docidx's dotenv file (~/.docidx/.env).
func DotEnvPath() (string, error) {
	dir, err := DocidxDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads ~/.docidx/.env. A missing file yields an empty map.
func LoadDotEnv() (map[string]string, error) {
	p, err := DotEnvPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open dotenv file %s: %w", p, err)
	}
	defer f.Close()

	vars, err := parseDotEnv(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", p, err)
	}
	return vars, nil
}

// parseDotEnv reads KEY=VALUE lines. Blank lines, '#' comments and lines
// without a key are skipped. A leading "export " is dropped, and a value
// wrapped in matching single or double quotes is unwrapped.
func parseDotEnv(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		k, v, ok := strings.Cut(line, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		vars[k] = unquote(strings.TrimSpace(v))
	}
	return vars, sc.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// GetConfigValue returns the effective value for key: the process
// environment first, then ~/.docidx/.env.
func GetConfigValue(key string) (string, error) {
	lookup, err := newLookup()
	if err != nil {
		return "", err
	}
	return lookup(key), nil
}

// newLookup reads the dotenv file once and returns a resolver that prefers
// non-empty process environment values over it.
func newLookup() (func(string) string, error) {
	dotenv, err := LoadDotEnv()
	if err != nil {
		return nil, err
	}
	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}, nil
}

// EnsureDotEnvTemplate creates ~/.docidx/.env listing every override key,
// each commented and left empty. An existing file is never touched.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	var body strings.Builder
	body.WriteString("# docidx overrides. Process environment variables take precedence.\n")
	for _, o := range overrideKeys {
		fmt.Fprintf(&body, "\n# %s\n%s=\n", o.hint, o.key)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(body.String()), 0o600); err != nil {
		return fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return nil
}
