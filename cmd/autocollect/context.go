package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"autocollect/internal/config"
	"autocollect/internal/logging"
)

type commandContext struct {
	configFlag   *string
	rulesDirFlag *string
	debugFlag    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, rulesDirFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		rulesDirFlag: rulesDirFlag,
		debugFlag:    debugFlag,
	}
}

// ensureConfig loads the configuration once and applies the command-line
// overrides on top of it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configPathFlag())
		if err != nil {
			c.configErr = err
			return
		}
		if c.rulesDirFlag != nil && strings.TrimSpace(*c.rulesDirFlag) != "" {
			dir, err := config.ExpandPath(strings.TrimSpace(*c.rulesDirFlag))
			if err != nil {
				c.configErr = fmt.Errorf("resolve rules dir: %w", err)
				return
			}
			cfg.Rules.Dir = dir
		}
		if c.debugFlag != nil && *c.debugFlag {
			cfg.Debug = true
			cfg.Logging.Level = "debug"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) configPathFlag() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
