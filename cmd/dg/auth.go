package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dealgrid/dealgrid/internal/claims"
	"github.com/dealgrid/dealgrid/internal/model"
)

func newLoginCmd(a *app) *cobra.Command {
	var remember bool
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store the session tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			pw := password
			if pw == "" {
				b, err := promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				pw = string(b)
			}
			user, err := be.Auth().Login(cmd.Context(), strings.TrimSpace(args[0]), pw, remember)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().BoolVar(&remember, "remember", false, "keep the session across reboots")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			if err := be.Auth().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensure(cmd); err != nil {
				return err
			}
			raw := a.tokens.Access()
			if raw == "" {
				return fmt.Errorf("not signed in")
			}
			c, err := claims.Parse(raw)
			if err != nil {
				return err
			}
			out := struct {
				*model.Claims
				Scope   string `json:"scope"`
				Expired bool   `json:"expired"`
			}{c, a.tokens.Scope(), c.Expired(time.Now())}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func promptPassword(cmd *cobra.Command, prompt string) ([]byte, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	return pass, err
}
