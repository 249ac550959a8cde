// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/config"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/xdg"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path in use",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), configPath(root))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath(root)
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "wrote " + path)
			return nil
		},
	})

	return cmd
}

func configPath(root *rootOptions) string {
	if root.configFile != "" {
		return root.configFile
	}
	return xdg.ConfigFile()
}
