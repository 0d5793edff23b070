package main

import (
	"github.com/spf13/cobra"

	"github.com/dealgrid/dealgrid/internal/model"
)

func newClientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "clients", Short: "Manage client organizations"}
	cmd.AddCommand(
		newClientsListCmd(a),
		newClientsGetCmd(a),
		newClientsSearchCmd(a),
		newClientsCreateCmd(a),
		newClientsUpdateCmd(a),
		newClientsDeleteCmd(a),
	)
	return cmd
}

func newClientsListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
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
			items, page, err := be.Clients().List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pageOut[model.Client]{Data: items, Pagination: page})
		},
	}
	addListFlags(cmd)
	return cmd
}

func newClientsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			c, err := be.Clients().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
}

func newClientsSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search clients by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			q, err := listQueryFromFlags(cmd)
			if err != nil {
				return err
			}
			items, page, err := be.Clients().Search(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pageOut[model.Client]{Data: items, Pagination: page})
		},
	}
	addListFlags(cmd)
	return cmd
}

func newClientsCreateCmd(a *app) *cobra.Command {
	var c model.Client
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			c.Active = true
			created, err := be.Clients().Create(cmd.Context(), &c)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringVar(&c.Name, "name", "", "client name (required)")
	cmd.Flags().StringVar(&c.Industry, "industry", "", "industry")
	cmd.Flags().StringVar(&c.Website, "website", "", "website URL")
	cmd.Flags().StringVar(&c.OwnerID, "owner", "", "account owner user key")
	cmd.Flags().StringVar(&c.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newClientsUpdateCmd(a *app) *cobra.Command {
	var name, industry, website, owner, notes string
	var active bool
	cmd := &cobra.Command{
		Use:   "update <key>",
		Short: "Update client fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			c, err := be.Clients().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				c.Name = name
			}
			if flags.Changed("industry") {
				c.Industry = industry
			}
			if flags.Changed("website") {
				c.Website = website
			}
			if flags.Changed("owner") {
				c.OwnerID = owner
			}
			if flags.Changed("notes") {
				c.Notes = notes
			}
			if flags.Changed("active") {
				c.Active = active
			}
			updated, err := be.Clients().Update(cmd.Context(), c)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "client name")
	cmd.Flags().StringVar(&industry, "industry", "", "industry")
	cmd.Flags().StringVar(&website, "website", "", "website URL")
	cmd.Flags().StringVar(&owner, "owner", "", "account owner user key")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().BoolVar(&active, "active", true, "active flag")
	return cmd
}

func newClientsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			return be.Clients().Delete(cmd.Context(), args[0])
		},
	}
}
