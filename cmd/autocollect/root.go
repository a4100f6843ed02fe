package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var rulesDirFlag string
	var debugFlag bool
	var opts runOptions

	ctx := newCommandContext(&configFlag, &rulesDirFlag, &debugFlag)

	rootCmd := &cobra.Command{
		Use:           "autocollect [collection.yml ...]",
		Short:         "Automatically create Plex collections and actor tags",
		Long:          "Match Plex library items against YAML rules by title or file path and add them to collections or tag them with actors.\n\nWith file arguments only those files are read, as collection rules. Otherwise collections.yml, collections.d/*.yml and actors.d/*.yml are read from the rules directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd, ctx, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&rulesDirFlag, "rules-dir", "", "Directory holding collections.yml, collections.d and actors.d")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging and print the loaded rules")
	rootCmd.Flags().StringVarP(&opts.library, "library", "l", "", "Library section to process (default: from config, else choose interactively)")
	rootCmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Announce matches without editing Plex")

	rootCmd.AddCommand(newRulesCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
