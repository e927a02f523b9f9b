package commands

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/export"
)

func newExportCommand(root *rootOptions) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export records as CSV",
	}
	exportCmd.AddCommand(
		newExportKindCommand(root, "expenses", "gastos", func(cmd *cobra.Command, s *session, w io.Writer) error {
			all, err := s.expenses.List(cmd.Context())
			if err != nil {
				return err
			}
			return export.WriteExpenses(w, all)
		}),
		newExportKindCommand(root, "usd", "dolares", func(cmd *cobra.Command, s *session, w io.Writer) error {
			all, err := s.dollars.Movements(cmd.Context())
			if err != nil {
				return err
			}
			return export.WriteMovements(w, all)
		}),
	)
	return exportCmd
}

func newExportKindCommand(root *rootOptions, use, prefix string, write func(*cobra.Command, *session, io.Writer) error) *cobra.Command {
	var (
		outPath string
		dated   bool
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: "Export " + use + " as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(root, func(s *session) error {
				path := outPath
				if dated {
					path = filepath.Join(s.dir, export.FileName(prefix, s.ledger.Now()))
				}
				return writeTo(cmd, path, func(w io.Writer) error {
					return write(cmd, s, w)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (stdout when empty)")
	cmd.Flags().BoolVar(&dated, "dated", false, "write "+prefix+"_YYYY-MM-DD.csv in the data directory")
	return cmd
}
