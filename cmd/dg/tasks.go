package main

import (
	"github.com/spf13/cobra"

	"github.com/dealgrid/dealgrid/internal/model"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "tasks", Short: "Manage follow-up tasks"}
	cmd.AddCommand(
		newTasksListCmd(a),
		newTasksGetCmd(a),
		newTasksAddCmd(a),
		newTasksDoneCmd(a),
		newTasksDeleteCmd(a),
	)
	return cmd
}

func newTasksListCmd(a *app) *cobra.Command {
	var dealKey string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally for one deal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			if dealKey != "" {
				items, err := be.Tasks().ByDeal(cmd.Context(), dealKey)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			}
			q, err := listQueryFromFlags(cmd)
			if err != nil {
				return err
			}
			items, page, err := be.Tasks().List(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pageOut[model.Task]{Data: items, Pagination: page})
		},
	}
	addListFlags(cmd)
	cmd.Flags().StringVar(&dealKey, "deal", "", "only tasks of this deal")
	return cmd
}

func newTasksGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			tk, err := be.Tasks().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tk)
		},
	}
}

func newTasksAddCmd(a *app) *cobra.Command {
	var tk model.Task
	var due string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			if tk.DueDate, err = parseDate(due); err != nil {
				return err
			}
			created, err := be.Tasks().Create(cmd.Context(), &tk)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringVar(&tk.Title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&tk.DealID, "deal", "", "deal key the task belongs to")
	cmd.Flags().StringVar(&tk.ClientID, "client", "", "client key the task belongs to")
	cmd.Flags().StringVar(&tk.AssigneeID, "assignee", "", "assignee user key")
	cmd.Flags().StringVar(&due, "due", "", "due date (2006-01-02)")
	cmd.Flags().StringVar(&tk.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <key>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			tk, err := be.Tasks().Complete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tk)
		},
	}
}

func newTasksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			return be.Tasks().Delete(cmd.Context(), args[0])
		},
	}
}
