package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newDocsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "docs", Short: "Files attached to entities"}
	cmd.AddCommand(newDocsUploadCmd(a), newDocsListCmd(a), newDocsDeleteCmd(a))
	return cmd
}

func newDocsUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <kind> <entityKey> <file>",
		Short: "Attach a file to a client, deal or task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[2])
			if err != nil {
				return err
			}
			defer f.Close()
			att, err := be.Documents().Upload(cmd.Context(), args[0], args[1], filepath.Base(args[2]), f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), att)
		},
	}
}

func newDocsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind> <entityKey>",
		Short: "List the files attached to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			atts, err := be.Documents().ByEntity(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), atts)
		},
	}
}

func newDocsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete an attached file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := a.open(cmd)
			if err != nil {
				return err
			}
			return be.Documents().Delete(cmd.Context(), args[0])
		},
	}
}
