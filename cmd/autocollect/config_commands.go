package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"autocollect/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set plex.url and plex.token (or export PLEX_URL / PLEX_TOKEN) to skip the interactive plex.tv login.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and report the rule file layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range configStatusLines(cfg, ctx.configPath, ctx.configExists, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func configStatusLines(cfg *config.Config, path string, exists bool, colorize bool) []string {
	var lines []string
	if exists {
		lines = append(lines, renderStatusLine("Config file", statusOK, path, colorize))
	} else {
		lines = append(lines, renderStatusLine("Config file", statusWarn, path+" not found; defaults in use", colorize))
	}

	if cfg.HasDirectCredentials() {
		lines = append(lines, renderStatusLine("Plex", statusOK, "direct connection to "+cfg.Plex.URL, colorize))
	} else {
		lines = append(lines, renderStatusLine("Plex", statusInfo, "interactive plex.tv login", colorize))
	}
	if cfg.Plex.Library != "" {
		lines = append(lines, renderStatusLine("Library", statusInfo, cfg.Plex.Library, colorize))
	} else {
		lines = append(lines, renderStatusLine("Library", statusInfo, "chosen at run time", colorize))
	}

	kind, message := ruleFileStatus(cfg.CollectionsFilePath())
	lines = append(lines, renderStatusLine("Collections file", kind, message, colorize))
	kind, message = ruleDirStatus(cfg.CollectionsDirPath())
	lines = append(lines, renderStatusLine("Collections dir", kind, message, colorize))
	kind, message = ruleDirStatus(cfg.ActorsDirPath())
	lines = append(lines, renderStatusLine("Actors dir", kind, message, colorize))
	lines = append(lines, renderStatusLine("State dir", statusOK, cfg.Paths.StateDir, colorize))
	return lines
}

func ruleFileStatus(path string) (statusKind, string) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return statusWarn, path + " missing"
	case err != nil:
		return statusError, fmt.Sprintf("%s: %v", path, err)
	case !info.Mode().IsRegular():
		return statusError, path + " is not a regular file"
	case info.Size() == 0:
		return statusWarn, path + " empty"
	default:
		return statusOK, path
	}
}

func ruleDirStatus(dir string) (statusKind, string) {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return statusWarn, dir + " missing"
	case err != nil:
		return statusError, fmt.Sprintf("%s: %v", dir, err)
	case !info.IsDir():
		return statusError, dir + " is not a directory"
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return statusError, fmt.Sprintf("%s: %v", dir, err)
	}
	return statusOK, fmt.Sprintf("%s (%d rule files)", dir, len(matches))
}
