package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"autocollect/internal/announce"
	"autocollect/internal/config"
	"autocollect/internal/dispatch"
	"autocollect/internal/logging"
	"autocollect/internal/prompt"
	"autocollect/internal/rules"
	"autocollect/internal/runlock"
	"autocollect/internal/services/plex"
)

type runOptions struct {
	library string
	dryRun  bool
}

// runPass loads the rules, opens the Plex session and dispatches every rule
// once over the flattened library.
func runPass(cmd *cobra.Command, ctx *commandContext, opts runOptions, files []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	lock, err := runlock.Acquire(cfg.Paths.StateDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release run lock", logging.String("path", lock.Path()), logging.Error(err))
		}
	}()

	out := cmd.OutOrStdout()
	reporter := announce.New(out)

	bundle, err := loadRules(cfg, logger, reporter, files)
	if err != nil {
		return err
	}
	reporter.Break()
	if cfg.Debug {
		fmt.Fprintln(out, renderRules(bundle))
	}
	if bundle.Empty() {
		fmt.Fprintln(out, "No rules loaded. Nothing to do.")
		return nil
	}

	plexOpts := plex.OptionsFromConfig(cfg)
	if library := strings.TrimSpace(opts.library); library != "" {
		plexOpts.Library = library
	}
	connector := plex.NewConnector(plexOpts,
		plex.WithPrompter(prompt.New(cmd.InOrStdin(), out)),
		plex.WithLogger(logger),
	)
	session, err := connector.Open(cmd.Context())
	if err != nil {
		return err
	}

	if opts.dryRun {
		reporter.DryRun()
	}
	dispatcher := dispatch.New(session.Server, reporter, logger, dispatch.Options{DryRun: opts.dryRun})
	summary, err := dispatcher.Run(cmd.Context(), bundle, session.Items)
	reporter.Break()
	fmt.Fprintln(out, renderSummary(summary))
	if err != nil {
		return err
	}
	if summary.Failures > 0 {
		return fmt.Errorf("%d of %d matched edits failed; see the log for details", summary.Failures, summary.Matches)
	}
	return nil
}

// loadRules reads the files named on the command line as collection rules,
// or the configured default layout when none are given.
func loadRules(cfg *config.Config, logger *slog.Logger, announcer rules.Announcer, files []string) (rules.Bundle, error) {
	loader := rules.NewLoader(logger, announcer)
	if len(files) > 0 {
		return loader.LoadExplicit(files)
	}
	return loader.Discover(rules.Layout{
		CollectionsFile: cfg.CollectionsFilePath(),
		CollectionsDir:  cfg.CollectionsDirPath(),
		ActorsDir:       cfg.ActorsDirPath(),
	})
}
