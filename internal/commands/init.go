package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/finanzas-dev/finanzas/internal/accounts"
	"github.com/finanzas-dev/finanzas/internal/categories"
	"github.com/finanzas-dev/finanzas/internal/config"
	"github.com/finanzas-dev/finanzas/internal/id"
)

type initOptions struct {
	userID  string
	home    string
	foreign string
	driver  string
	noSeed  bool
}

func newInitCommand(root *rootOptions) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a data directory with a config file, default accounts and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(root.dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			if err := writeInitConfig(absDir, opts); err != nil {
				return err
			}
			return withSession(root, func(s *session) error {
				return runInit(cmd, s, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "", "user ID (generated when empty)")
	cmd.Flags().StringVar(&opts.home, "home", "ARS", "home currency of the accounts")
	cmd.Flags().StringVar(&opts.foreign, "foreign", "USD", "foreign currency of the dollar pool")
	cmd.Flags().StringVar(&opts.driver, "store", "sqlite", "store driver: sqlite (memory is for tests and keeps nothing between commands)")
	cmd.Flags().BoolVar(&opts.noSeed, "no-seed", false, "skip creating the default accounts and categories")

	return cmd
}

func writeInitConfig(dir string, opts initOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	userID := opts.userID
	if userID == "" {
		userID = id.New()
	}
	cfg := config.Default(userID)
	cfg.Currency.Home = opts.home
	cfg.Currency.Foreign = opts.foreign
	cfg.Store.Driver = opts.driver
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func runInit(cmd *cobra.Command, s *session, opts initOptions) error {
	out := cmd.OutOrStdout()
	if !opts.noSeed {
		created, err := s.ledger.Seed(cmd.Context(), accounts.Defaults())
		if err != nil {
			return err
		}
		printAccounts(out, created, s.cfg.Currency.Home)
		cats, err := s.categories.Seed(cmd.Context(), categories.DefaultNames())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d expense categories created\n", len(cats))
	}
	if _, err := fmt.Fprintf(out, "Initialized finanzas data at %s (user %s)\n", s.dir, s.cfg.User.ID); err != nil {
		return err
	}
	if s.cfg.Store.Driver == "memory" {
		_, err := fmt.Fprintln(out, "Note: the memory store is discarded when each command exits")
		return err
	}
	return nil
}
