package main

import (
	"github.com/spf13/cobra"

	"github.com/dealgrid/dealgrid/internal/model"
)

func newDealsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "deals", Short: "Manage pipeline deals"}
	cmd.AddCommand(
		newDealsListCmd(a),
		newDealsGetCmd(a),
		newDealsByClientCmd(a),
		newDealsCreateCmd(a),
		newDealsUpdateStageCmd(a),
		newDealsDeleteCmd(a),
	)
	return cmd
}

func newDealsListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals",
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
			items, page, err := be.Deals().List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pageOut[model.Deal]{Data: items, Pagination: page})
		},
	}
	addListFlags(cmd)
	return cmd
}

func newDealsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show one deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			d, err := be.Deals().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
}

func newDealsByClientCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "by-client <clientKey>",
		Short: "List the deals of one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			items, err := be.Deals().ByClient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
}

func newDealsCreateCmd(a *app) *cobra.Command {
	var d model.Deal
	var closeDate string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			if d.ExpectedClose, err = parseDate(closeDate); err != nil {
				return err
			}
			created, err := be.Deals().Create(cmd.Context(), &d)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringVar(&d.ClientID, "client", "", "client key (required)")
	cmd.Flags().StringVar(&d.Title, "title", "", "deal title (required)")
	cmd.Flags().StringVar(&d.StageID, "stage", "", "pipeline stage key")
	cmd.Flags().StringVar(&d.ProductLineID, "line", "", "product line key")
	cmd.Flags().Float64Var(&d.Amount, "amount", 0, "deal amount")
	cmd.Flags().StringVar(&d.Currency, "currency", "", "ISO currency code")
	cmd.Flags().IntVar(&d.Probability, "probability", 0, "win probability percent")
	cmd.Flags().StringVar(&closeDate, "close", "", "expected close date (2006-01-02)")
	cmd.Flags().StringVar(&d.OwnerID, "owner", "", "deal owner user key")
	cmd.Flags().StringVar(&d.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newDealsUpdateStageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-stage <dealKey> <stageKey>",
		Short: "Move a deal to another pipeline stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			d, err := be.Deals().UpdateStage(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
}

func newDealsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a deal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			return be.Deals().Delete(cmd.Context(), args[0])
		},
	}
}
