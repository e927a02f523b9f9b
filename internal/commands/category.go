package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/model"
)

func newCategoryCommand(root *rootOptions) *cobra.Command {
	categoryCmd := &cobra.Command{
		Use:   "category",
		Short: "Manage expense categories",
	}
	categoryCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List expense categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(root, func(s *session) error {
					all, err := s.categories.List(cmd.Context())
					if err != nil {
						return err
					}
					printCategories(cmd.OutOrStdout(), all)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add an expense category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(root, func(s *session) error {
					c, err := s.categories.Create(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					printCategories(cmd.OutOrStdout(), []model.Category{c})
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <category>",
			Short: "Delete an expense category; expenses filed under it keep the name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(root, func(s *session) error {
					c, err := s.categories.Find(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if err := s.categories.Delete(cmd.Context(), c.ID); err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", c.Name)
					return err
				})
			},
		},
	)
	return categoryCmd
}

func printCategories(w io.Writer, all []model.Category) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCATEGORÍA")
	for _, c := range all {
		fmt.Fprintf(tw, "%s\t%s\n", id.Short(c.ID), c.Name)
	}
	tw.Flush()
}
