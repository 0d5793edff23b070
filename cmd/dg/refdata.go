package main

import (
	"github.com/spf13/cobra"

	"github.com/dealgrid/dealgrid/internal/model"
)

func newRefdataCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "refdata", Short: "Pipeline stages and product lines"}

	stages := &cobra.Command{Use: "stages", Short: "Manage pipeline stages"}
	stages.AddCommand(newStagesListCmd(a), newStagesSaveCmd(a), newStagesDeleteCmd(a))

	lines := &cobra.Command{Use: "lines", Short: "Manage product lines"}
	lines.AddCommand(newLinesListCmd(a), newLinesSaveCmd(a), newLinesDeleteCmd(a))

	cmd.AddCommand(stages, lines)
	return cmd
}

func newStagesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pipeline stages in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			stages, err := be.Reference().Stages(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stages)
		},
	}
}

func newStagesSaveCmd(a *app) *cobra.Command {
	var st model.Stage
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			saved, err := be.Reference().SaveStage(cmd.Context(), &st)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), saved)
		},
	}
	cmd.Flags().StringVar(&st.ID, "key", "", "stage key (omit to create)")
	cmd.Flags().StringVar(&st.Name, "name", "", "stage name (required)")
	cmd.Flags().IntVar(&st.SortOrder, "order", 0, "pipeline position")
	cmd.Flags().IntVar(&st.WinPercent, "win", 0, "default win probability percent")
	cmd.Flags().BoolVar(&st.IsTerminal, "terminal", false, "deals in this stage are closed")
	cmd.Flags().BoolVar(&st.IsWon, "won", false, "terminal stage counts as won")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newStagesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			return be.Reference().DeleteStage(cmd.Context(), args[0])
		},
	}
}

func newLinesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List product lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			lines, err := be.Reference().ProductLines(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), lines)
		},
	}
}

func newLinesSaveCmd(a *app) *cobra.Command {
	var p model.ProductLine
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a product line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			saved, err := be.Reference().SaveProductLine(cmd.Context(), &p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), saved)
		},
	}
	cmd.Flags().StringVar(&p.ID, "key", "", "product line key (omit to create)")
	cmd.Flags().StringVar(&p.Name, "name", "", "product line name (required)")
	cmd.Flags().StringVar(&p.Code, "code", "", "short code")
	cmd.Flags().BoolVar(&p.Active, "active", true, "active flag")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLinesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a product line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			return be.Reference().DeleteProductLine(cmd.Context(), args[0])
		},
	}
}
