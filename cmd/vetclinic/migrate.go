// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/store"
)

func newMigrateCmd(root *rootOptions, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL schema migrations.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, root, deps, func(m Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				v, _, err := m.Version()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
				return nil
			})
		},
	})

	var yes bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops every account)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all data; rerun with --yes")
			}
			return withMigrator(cmd, root, deps, func(m Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "all migrations rolled back")
				return nil
			})
		},
	}
	down.Flags().BoolVar(&yes, "yes", false, "confirm the rollback")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, root, deps, func(m Migrator) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				return printMigrationStatus(cmd, st)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, root, deps, func(m Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if dirty {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", v)
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied and clear the dirty flag",
		Long: `Record VERSION as the current schema version without running any SQL.
Use this after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, root, deps, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "forced schema version to %d\n", v)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator opens a migrator from the command's configuration, runs fn and
// closes the migrator. A close failure is reported only when fn succeeded.
func withMigrator(cmd *cobra.Command, root *rootOptions, deps *Deps, fn func(Migrator) error) (err error) {
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}

	m, err := deps.MigratorFactory(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(m)
}

// parseForceVersion accepts a non-negative decimal version.
func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer")
	}
	if v < 0 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be non-negative")
	}
	return v, nil
}

func printMigrationStatus(cmd *cobra.Command, st store.Status) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tNAME\tSTATE")
	rows := []struct {
		versions []uint
		state    string
	}{
		{st.Applied, "applied"},
		{st.Pending, "pending"},
	}
	for _, row := range rows {
		for _, v := range row.versions {
			name, err := store.MigrationName(v)
			if err != nil {
				return err
			}
			state := row.state
			if st.Dirty && v == st.Version {
				state = "dirty"
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", v, name, state)
		}
	}
	return w.Flush()
}
