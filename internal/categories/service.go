// Package categories manages the user's expense categories.
package categories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/finanzas-dev/finanzas/internal/id"
	"github.com/finanzas-dev/finanzas/internal/logger"
	"github.com/finanzas-dev/finanzas/internal/model"
	"github.com/finanzas-dev/finanzas/internal/store"
)

// Service adds, lists and deletes categories. Names are unique per user,
// compared case-insensitively.
type Service struct {
	repo *store.Repository
	now  func() time.Time
	log  zerolog.Logger

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a category Service over repo.
func NewService(repo *store.Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
		log:  logger.WithUserID(logger.WithComponent("categories"), repo.UserID()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a category. A name already in use fails with
// model.ErrCategoryExists.
func (s *Service) Create(ctx context.Context, name string) (model.Category, error) {
	created, err := s.add(ctx, []string{name}, false)
	if err != nil {
		return model.Category{}, fmt.Errorf("creating category %q: %w", strings.TrimSpace(name), err)
	}
	s.log.Info().Str("category", created[0].ID).Str("name", created[0].Name).Msg("category created")
	return created[0], nil
}

// Seed creates the named categories that do not exist yet and returns the
// ones it created.
func (s *Service) Seed(ctx context.Context, names []string) ([]model.Category, error) {
	created, err := s.add(ctx, names, true)
	if err != nil {
		return nil, fmt.Errorf("seeding categories: %w", err)
	}
	if len(created) > 0 {
		s.log.Info().Int("count", len(created)).Msg("default categories created")
	}
	return created, nil
}

func (s *Service) add(ctx context.Context, names []string, skipExisting bool) ([]model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[strings.ToLower(c.Name)] = true
	}

	now := s.now()
	var (
		docs []*model.Category
		ops  []store.Op
	)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.New("category name is required")
		}
		key := strings.ToLower(name)
		if have[key] {
			if skipExisting {
				continue
			}
			return nil, model.ErrCategoryExists
		}
		have[key] = true
		c := &model.Category{ID: id.New(), Name: name, CreatedAt: now}
		docs = append(docs, c)
		ops = append(ops, store.Create(c))
	}
	if err := s.repo.WriteGrouped(ctx, ops); err != nil {
		return nil, err
	}
	out := make([]model.Category, len(docs))
	for i, c := range docs {
		out[i] = *c
	}
	return out, nil
}

// List returns every category ordered by name.
func (s *Service) List(ctx context.Context) ([]model.Category, error) {
	all, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return all, nil
}

// Find returns the category whose name (case-insensitive), ID or ID prefix
// matches ref.
func (s *Service) Find(ctx context.Context, ref string) (model.Category, error) {
	all, err := s.repo.LoadCategories(ctx)
	if err != nil {
		return model.Category{}, err
	}
	if c, ok := Match(all, ref); ok {
		return c, nil
	}
	ids := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID
	}
	match, err := id.Resolve(ref, ids)
	if err != nil {
		return model.Category{}, fmt.Errorf("category %q: %w", ref, model.ErrCategoryNotFound)
	}
	for _, c := range all {
		if c.ID == match {
			return c, nil
		}
	}
	return model.Category{}, fmt.Errorf("category %q: %w", ref, model.ErrCategoryNotFound)
}

// Delete removes a category. Expenses filed under it keep the name.
func (s *Service) Delete(ctx context.Context, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.GetCategory(ctx, categoryID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("category %s: %w", categoryID, model.ErrCategoryNotFound)
	}
	if err != nil {
		return err
	}
	if err := s.repo.WriteGrouped(ctx, []store.Op{store.Delete(&c)}); err != nil {
		return fmt.Errorf("deleting category %s: %w", categoryID, err)
	}
	s.log.Info().Str("category", categoryID).Str("name", c.Name).Msg("category deleted")
	return nil
}

// Match returns the category named name, ignoring case and surrounding
// spaces.
func Match(all []model.Category, name string) (model.Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range all {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}
