package main

import (
	"github.com/spf13/cobra"
)

func newTenantCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "tenant", Short: "Organization settings"}
	cmd.AddCommand(newTenantShowCmd(a), newTenantUpdateCmd(a))
	return cmd
}

func newTenantShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			t, err := be.Tenants().Current(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), t)
		},
	}
}

func newTenantUpdateCmd(a *app) *cobra.Command {
	var name, plan string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update tenant fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			t, err := be.Tenants().Current(cmd.Context())
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				t.Name = name
			}
			if flags.Changed("plan") {
				t.Plan = plan
			}
			updated, err := be.Tenants().Update(cmd.Context(), t)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "tenant name")
	cmd.Flags().StringVar(&plan, "plan", "", "subscription plan")
	return cmd
}
