package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Plex contains connection settings for the media server.
type Plex struct {
	// URL and Token enable a direct connection. When either is empty the CLI
	// falls back to an interactive plex.tv login.
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	Library        string `toml:"library"`
	ClientName     string `toml:"client_name"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Auth contains settings for the interactive plex.tv login.
type Auth struct {
	MaxAttempts int `toml:"max_attempts"`
}

// Rules contains the locations of the YAML rule files.
type Rules struct {
	Dir             string `toml:"dir"`
	CollectionsFile string `toml:"collections_file"`
	CollectionsDir  string `toml:"collections_dir"`
	ActorsDir       string `toml:"actors_dir"`
}

// Paths contains directories owned by autocollect.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for autocollect.
//
// Configuration sections:
//   - Plex: direct-connect credentials, default library, HTTP timeout
//   - Auth: interactive login retry budget
//   - Rules: rules directory and the collection/actor file layout inside it
//   - Paths: state (client identity, run lock) and optional log directory
//   - Logging: log format and level
type Config struct {
	Plex    Plex    `toml:"plex"`
	Auth    Auth    `toml:"auth"`
	Rules   Rules   `toml:"rules"`
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`

	// Debug is set from the DEBUG environment variable or the --debug flag.
	Debug bool `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	loadDotEnv(".env")

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv seeds the process environment from a .env file when one exists.
// Variables already present in the environment are never overridden.
func loadDotEnv(path string) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	_ = godotenv.Load(path)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autocollect.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories autocollect writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HasDirectCredentials reports whether both a server URL and token are configured.
func (c *Config) HasDirectCredentials() bool {
	return c.Plex.URL != "" && c.Plex.Token != ""
}

// CollectionsFilePath returns the default collection rule file.
func (c *Config) CollectionsFilePath() string {
	return c.rulesPath(c.Rules.CollectionsFile)
}

// CollectionsDirPath returns the directory holding additional collection rule files.
func (c *Config) CollectionsDirPath() string {
	return c.rulesPath(c.Rules.CollectionsDir)
}

// ActorsDirPath returns the directory holding actor rule files.
func (c *Config) ActorsDirPath() string {
	return c.rulesPath(c.Rules.ActorsDir)
}

func (c *Config) rulesPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Rules.Dir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "autocollect")
	}
	return defaultStateDirFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
