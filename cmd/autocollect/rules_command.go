package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autocollect/internal/announce"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [collection.yml ...]",
		Short: "Load the rule files and print them without contacting Plex",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			reporter := announce.New(out)
			bundle, err := loadRules(cfg, logger, reporter, args)
			if err != nil {
				return err
			}
			reporter.Break()
			if bundle.Empty() {
				fmt.Fprintln(out, "No rules loaded.")
				return nil
			}
			fmt.Fprintln(out, renderRules(bundle))
			fmt.Fprintf(out, "%d collection rules, %d actor rules\n", bundle.Collections.Len(), bundle.Actors.Len())
			return nil
		},
	}
}
