package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finanzas-dev/finanzas/internal/accounts"
	"github.com/finanzas-dev/finanzas/internal/categories"
	"github.com/finanzas-dev/finanzas/internal/config"
	"github.com/finanzas-dev/finanzas/internal/credits"
	"github.com/finanzas-dev/finanzas/internal/dollars"
	"github.com/finanzas-dev/finanzas/internal/expenses"
	"github.com/finanzas-dev/finanzas/internal/incomes"
	"github.com/finanzas-dev/finanzas/internal/logger"
	"github.com/finanzas-dev/finanzas/internal/store"
)

// session is one CLI invocation's view of a data directory: its config,
// the opened store and the services built on it.
type session struct {
	dir string
	cfg *config.Config
	log zerolog.Logger

	repo       *store.Repository
	ledger     *accounts.Service
	categories *categories.Service
	expenses   *expenses.Service
	incomes    *incomes.Service
	dollars    *dollars.Service
	credits    *credits.Service

	closers []io.Closer
}

func openSession(dir string) (*session, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfgPath := filepath.Join(absDir, config.FileName)
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no %s in %s (run finanzas init first)", config.FileName, absDir)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if cfg.User.ID == "" {
		return nil, fmt.Errorf("%s: user.id is empty", cfgPath)
	}
	tolerance, err := decimal.NewFromString(cfg.Credits.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("parsing credits.tolerance %q: %w", cfg.Credits.Tolerance, err)
	}

	logCloser, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setting up logger: %w", err)
	}
	s := &session{
		dir:     absDir,
		cfg:     cfg,
		log:     logger.WithUserID(logger.WithComponent("cli"), cfg.User.ID),
		closers: []io.Closer{logCloser},
	}

	backend, err := openBackend(absDir, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.repo = store.New(backend, cfg.User.ID)
	s.closers = append([]io.Closer{s.repo}, s.closers...)
	s.repo.Subscribe(s.logChange)

	s.ledger = accounts.NewService(s.repo)
	s.categories = categories.NewService(s.repo)
	s.expenses = expenses.NewService(s.repo, s.ledger)
	s.incomes = incomes.NewService(s.repo, s.ledger)
	s.dollars = dollars.NewService(s.repo, s.ledger)
	s.credits = credits.NewService(s.repo, s.ledger, credits.WithTolerance(tolerance))
	return s, nil
}

func openBackend(dir string, cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		backend, err := store.OpenSQLite(cfg.StorePath(dir), store.SQLOptions{
			LogSQL: cfg.Store.LogSQL,
			Logger: logger.WithComponent("sql"),
		})
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		return backend, nil
	case "memory":
		return store.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (s *session) logChange(c store.Change) {
	for _, op := range c.Ops {
		s.log.Debug().
			Str("op", op.Kind.String()).
			Str("collection", string(op.Doc.Collection())).
			Str("id", op.Doc.DocID()).
			Int64("version", op.Doc.DocVersion()).
			Msg("document written")
	}
}

// Close releases the store and the log file, in that order.
func (s *session) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withSession opens the data directory named by opts, runs fn and closes it.
func withSession(opts *rootOptions, fn func(s *session) error) error {
	s, err := openSession(opts.dir)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
