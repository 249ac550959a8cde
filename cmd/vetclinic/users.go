// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth/postgres"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/store"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print the stored hash record for a password",
		Long: `Hash PASSWORD, or the first line of standard input when no argument is
given, and print the iter:digest:salt:key record as stored in the database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = line
			}
			if password == "" {
				return oops.Code("PASSWORD_REQUIRED").Errorf("password cannot be empty")
			}

			record, err := auth.NewPBKDF2Hasher().Hash(password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), record)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("STDIN_READ_FAILED").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type createUserOptions struct {
	email         string
	password      string
	passwordStdin bool
	role          string
}

func newCreateUserCmd(root *rootOptions, deps *Deps) *cobra.Command {
	opts := &createUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a staff account",
		Long: `Create an account directly in the database, applying the same rules as
registration over HTTP. Useful for bootstrapping the first ADMIN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateUser(cmd, root, opts, deps)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.password, "password", "", "account password")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from standard input")
	cmd.Flags().StringVar(&opts.role, "role", string(auth.DefaultRole), "account role (ADMIN, VET, RECEPTION)")
	_ = cmd.MarkFlagRequired("email")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")

	return cmd
}

func runCreateUser(cmd *cobra.Command, root *rootOptions, opts *createUserOptions, deps *Deps) error {
	role, err := auth.ParseRole(strings.ToUpper(strings.TrimSpace(opts.role)))
	if err != nil {
		return err
	}

	password := opts.password
	if opts.passwordStdin {
		if password, err = readLine(cmd.InOrStdin()); err != nil {
			return err
		}
	}
	if password == "" {
		return oops.Code("PASSWORD_REQUIRED").Errorf("set --password or --password-stdin")
	}

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL, store.PoolConfig{
		MaxConns:       1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// create-user never issues tokens; any signing key satisfies the service.
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	tokens, err := auth.NewJWTTokenService(secret)
	if err != nil {
		return err
	}
	svc, err := auth.NewService(postgres.NewUserRepository(db), auth.NewPBKDF2Hasher(), tokens)
	if err != nil {
		return err
	}

	res, err := svc.RegisterUser(ctx, auth.RegisterInput{
		Email:    strings.TrimSpace(opts.email),
		Password: password,
		Role:     role,
	})
	if err != nil {
		return err
	}
	if !res.OK() {
		return oops.Code(res.Code().String()).With("email", opts.email).Errorf("account rejected: %s", res.Code())
	}

	out, err := json.MarshalIndent(res.Value(), "", "  ")
	if err != nil {
		return oops.Wrapf(err, "marshal user")
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
