// Package config loads persistent user settings and YAML render presets.
package config

import (
	"bufio"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Config keys.
const (
	KeyOutputDir = "output-dir"
	KeyTheme     = "theme"
)

// Environment variable fallbacks.
const (
	EnvOutputDir = "CODEVIDEO_OUTPUT_DIR"
	EnvTheme     = "CODEVIDEO_THEME"
)

// Keys lists every supported key in display order.
var Keys = []string{KeyOutputDir, KeyTheme}

// envFor maps each key to its environment fallback.
var envFor = map[string]string{
	KeyOutputDir: EnvOutputDir,
	KeyTheme:     EnvTheme,
}

// Config holds user settings loaded from ~/.config/go-codevideo/config.
type Config struct {
	OutputDir string
	Theme     string
}

// EnvVar returns the environment variable that backs key, or "" for an
// unknown key.
func EnvVar(key string) string {
	return envFor[key]
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-codevideo.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-codevideo"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-codevideo"), nil
}

func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the config file, then fills unset keys from the environment.
// A missing file yields an empty Config.
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.OutputDir = lookup(data, KeyOutputDir)
	cfg.Theme = lookup(data, KeyTheme)
	return cfg, nil
}

func lookup(data map[string]string, key string) string {
	if v := data[key]; v != "" {
		return v
	}
	return os.Getenv(envFor[key])
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return data, nil
}

// Save writes a single key=value to the config file, keeping other keys.
// Comments are not preserved.
func Save(key, value string) error {
	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes data sorted by key so the file diffs cleanly.
func writeFile(p string, data map[string]string) error {
	var b strings.Builder
	for _, key := range slices.Sorted(maps.Keys(data)) {
		fmt.Fprintf(&b, "%s=%s\n", key, data[key])
	}
	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(p, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Get reads a single value from the config file.
// Returns "" if the file or key does not exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return data[key], nil
}

// List returns all values stored in the config file.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}

// ResolveOutputPath joins a relative output onto outputDir.
// Absolute outputs and an empty outputDir leave output unchanged (cleaned).
func ResolveOutputPath(output, outputDir string) string {
	if filepath.IsAbs(output) || outputDir == "" {
		return filepath.Clean(output)
	}
	return filepath.Clean(filepath.Join(ExpandPath(outputDir), output))
}

// EnsureOutputDir checks that d is a writable directory, creating it if needed.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access directory: %w", err)
		}
		if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
			return fmt.Errorf("cannot create directory: %w", err)
		}
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	f, err := os.CreateTemp(d, ".go-codevideo-write-test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
