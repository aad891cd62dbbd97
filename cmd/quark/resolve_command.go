package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quark/internal/drive"
	"quark/internal/logging"
	"quark/internal/pipeline"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a remote path to its folder identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client, err := drive.NewClient(cfg, logging.NewNop())
			if err != nil {
				return err
			}

			folderID, err := pipeline.ResolvePath(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), folderID)
			return nil
		},
	}
}
