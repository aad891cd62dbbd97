package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quark/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the quark configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigValidateCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var path string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(path)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return err
			}

			if _, statErr := os.Stat(expanded); statErr == nil && !overwrite {
				return fmt.Errorf("%s already exists (use --force to overwrite)", expanded)
			}

			if err := config.CreateSample(expanded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", expanded)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit it and set drive.cookie (or export QUARK_COOKIE) before running quark unzip.")
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination path for the sample file")
	cmd.Flags().BoolVar(&overwrite, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load and validate the configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configFlag, err := cmd.Flags().GetString("config")
			if err != nil {
				configFlag = ""
			}

			cfg, resolvedPath, exists, err := config.Load(strings.TrimSpace(configFlag))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Configuration at %s is valid.\n", resolvedPath)
			} else {
				fmt.Fprintf(out, "No configuration file at %s; defaults are valid.\n", resolvedPath)
			}
			fmt.Fprintf(out, "  target directory: %s\n", cfg.Pipeline.TargetDirectory)
			fmt.Fprintf(out, "  log directory:    %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "  data directory:   %s\n", cfg.Paths.DataDir)
			return nil
		},
	}
}
