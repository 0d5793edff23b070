package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealgrid/dealgrid/internal/direct"
	"github.com/dealgrid/dealgrid/internal/migrate"
	"github.com/dealgrid/dealgrid/internal/model"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Self-hosted deployment administration"}
	cmd.AddCommand(
		newAdminMigrateCmd(a),
		newAdminUserAddCmd(a),
		newAdminUsersCmd(a),
		newAdminImportCmd(a),
	)
	return cmd
}

func newAdminMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensure(cmd); err != nil {
				return err
			}
			if a.cfg.DatabaseDSN == "" {
				return errors.New("DEALGRID_DATABASE_DSN not set")
			}
			if err := migrate.Up(cmd.Context(), a.cfg.DatabaseDSN); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newAdminUserAddCmd(a *app) *cobra.Command {
	var email, name, password, role, tenant string
	cmd := &cobra.Command{
		Use:   "user-add",
		Short: "Provision a local account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			db, ok := be.(*direct.Backend)
			if !ok {
				return fmt.Errorf("user-add needs the postgres backend, current is %q", be.Name())
			}
			if password == "" {
				b, err := promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = string(b)
			}
			u, err := db.CreateUser(cmd.Context(), email, name, password, role, tenant)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", "member", "account role")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant key (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newAdminUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			q, err := listQueryFromFlags(cmd)
			if err != nil {
				return err
			}
			users, page, err := be.Users().List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pageOut[model.User]{Data: users, Pagination: page})
		},
	}
	addListFlags(cmd)
	return cmd
}

func newAdminImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <collection> <file.json>",
		Short: "Bulk-load documents into a collection",
		Long: `Reads a JSON array of documents and upserts them into the named
collection of the postgres backend. Hosted-API exports load as they are:
numeric ids move aside to "_apiId", the external key becomes the id, and
date fields may arrive as RFC 3339 strings, Unix seconds or {seconds}
objects. "-" reads the array from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			db, ok := be.(*direct.Backend)
			if !ok {
				return fmt.Errorf("import needs the postgres backend, current is %q", be.Name())
			}
			raw, err := readAll(args[1])
			if err != nil {
				return err
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			var docs []map[string]any
			if err := dec.Decode(&docs); err != nil {
				return err
			}
			n, err := db.ImportDocuments(cmd.Context(), args[0], docs)
			if err != nil {
				return fmt.Errorf("imported %d, then: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d documents into %s\n", n, args[0])
			return nil
		},
	}
}
