// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/config"
)

// rootOptions holds persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

// NewRootCmd creates the root command with production dependencies.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "vetclinic",
		Short: "Veterinary clinic staff accounts and sessions",
		Long: `vetclinic serves the clinic's staff authentication API: account
registration with ADMIN, VET and RECEPTION roles, password login issuing
short-lived signed access tokens in an HTTP-only cookie, and a protected
dashboard. Accounts are stored in PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/vetclinic/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(opts, deps))
	cmd.AddCommand(newMigrateCmd(opts, deps))
	cmd.AddCommand(newStatusCmd(opts, deps))
	cmd.AddCommand(newHashPasswordCmd())
	cmd.AddCommand(newCreateUserCmd(opts, deps))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

// loadConfig resolves the effective configuration for cmd. Flags are read
// from cmd.Flags(), which cobra merges with the inherited persistent set.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		Path:  opts.configFile,
		Flags: cmd.Flags(),
	})
}
