package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizePlex()
	if err := c.normalizeRules(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if c.Auth.MaxAttempts == 0 {
		c.Auth.MaxAttempts = defaultAuthMaxAttempts
	}
	c.normalizeDebug()
	c.normalizeLogging()
	return nil
}

// normalizePlex applies PLEX_URL / PLEX_TOKEN only where the config file left
// the value empty; values from the file take precedence.
func (c *Config) normalizePlex() {
	c.Plex.URL = strings.TrimRight(strings.TrimSpace(c.Plex.URL), "/")
	if c.Plex.URL == "" {
		if value, ok := os.LookupEnv("PLEX_URL"); ok {
			c.Plex.URL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.Plex.Token = strings.TrimSpace(c.Plex.Token)
	if c.Plex.Token == "" {
		if value, ok := os.LookupEnv("PLEX_TOKEN"); ok {
			c.Plex.Token = strings.TrimSpace(value)
		}
	}
	c.Plex.Library = strings.TrimSpace(c.Plex.Library)
	c.Plex.ClientName = strings.TrimSpace(c.Plex.ClientName)
	if c.Plex.ClientName == "" {
		c.Plex.ClientName = defaultClientName
	}
	if c.Plex.TimeoutSeconds == 0 {
		c.Plex.TimeoutSeconds = defaultPlexTimeoutSeconds
	}
}

func (c *Config) normalizeRules() error {
	var err error
	if strings.TrimSpace(c.Rules.Dir) == "" {
		c.Rules.Dir = defaultRulesDir
	}
	if c.Rules.Dir, err = expandPath(c.Rules.Dir); err != nil {
		return fmt.Errorf("rules.dir: %w", err)
	}
	if strings.TrimSpace(c.Rules.CollectionsFile) == "" {
		c.Rules.CollectionsFile = defaultCollectionsFile
	}
	if strings.TrimSpace(c.Rules.CollectionsDir) == "" {
		c.Rules.CollectionsDir = defaultCollectionsDir
	}
	if strings.TrimSpace(c.Rules.ActorsDir) == "" {
		c.Rules.ActorsDir = defaultActorsDir
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDebug() {
	if value, ok := os.LookupEnv("DEBUG"); ok && strings.TrimSpace(value) != "" {
		c.Debug = true
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Debug {
		c.Logging.Level = "debug"
	}
}
