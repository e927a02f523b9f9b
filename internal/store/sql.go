package store

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/finanzas-dev/finanzas/internal/model"
)

// document is the single table behind every collection.
type document struct {
	UserID     string `gorm:"primaryKey;size:64"`
	Collection string `gorm:"primaryKey;size:32"`
	ID         string `gorm:"primaryKey;size:64"`
	Version    int64  `gorm:"not null"`
	Body       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (document) TableName() string { return "documents" }

// SQLBackend stores documents in a relational database through gorm. Each
// Apply runs in one database transaction.
type SQLBackend struct {
	db *gorm.DB
}

// SQLOptions tunes OpenSQLite.
type SQLOptions struct {
	// LogSQL routes gorm's statement log to Logger.
	LogSQL bool
	Logger zerolog.Logger
}

// sqlitePragmas run on the single pooled connection. busy_timeout makes a
// locked database wait before failing with SQLITE_BUSY (ErrUnavailable).
var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA busy_timeout = 5000;",
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
func OpenSQLite(path string, opts SQLOptions) (*SQLBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	gl := gormlogger.Default.LogMode(gormlogger.Silent)
	if opts.LogSQL {
		gl = gormlogger.New(stdlog.New(opts.Logger, "", 0), gormlogger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      gormlogger.Info,
		})
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	// One long-lived connection keeps SQLite transactions serialized and
	// the pragmas below in effect.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	return NewSQLBackend(db)
}

// NewSQLBackend wraps an open gorm DB and migrates the documents table.
func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

// Get returns one record.
func (s *SQLBackend) Get(ctx context.Context, userID string, coll model.Collection, id string) (Record, error) {
	var d document
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ? AND id = ?", userID, string(coll), id).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, classify(err)
	}
	return d.record(), nil
}

// List returns all records of a collection ordered by ID.
func (s *SQLBackend) List(ctx context.Context, userID string, coll model.Collection) ([]Record, error) {
	var docs []document
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ?", userID, string(coll)).
		Order("id").
		Find(&docs).Error
	if err != nil {
		return nil, classify(err)
	}
	out := make([]Record, len(docs))
	for i, d := range docs {
		out[i] = d.record()
	}
	return out, nil
}

// Apply runs every mutation inside one transaction; any failure rolls the
// whole group back.
func (s *SQLBackend) Apply(ctx context.Context, userID string, muts []Mutation) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for i, mut := range muts {
			if err := applyOne(tx, userID, mut, now); err != nil {
				return fmt.Errorf("mutation %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func applyOne(tx *gorm.DB, userID string, mut Mutation, now time.Time) error {
	where := tx.Model(&document{}).
		Where("user_id = ? AND collection = ? AND id = ?", userID, string(mut.Collection), mut.ID)

	switch mut.Kind {
	case OpCreate:
		var n int64
		if err := where.Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("create %s %s: %w", mut.Collection, mut.ID, ErrConflict)
		}
		return tx.Create(&document{
			UserID:     userID,
			Collection: string(mut.Collection),
			ID:         mut.ID,
			Version:    1,
			Body:       string(mut.Body),
			CreatedAt:  now,
			UpdatedAt:  now,
		}).Error
	case OpUpdate:
		res := where.Where("version = ?", mut.Version).Updates(map[string]any{
			"version":    mut.Version + 1,
			"body":       string(mut.Body),
			"updated_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrStale(tx, userID, mut)
		}
		return nil
	case OpDelete:
		q := where
		if mut.Version != 0 {
			q = q.Where("version = ?", mut.Version)
		}
		res := q.Delete(&document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return missingOrStale(tx, userID, mut)
		}
		return nil
	default:
		return fmt.Errorf("unknown kind %s", mut.Kind)
	}
}

func missingOrStale(tx *gorm.DB, userID string, mut Mutation) error {
	var n int64
	err := tx.Model(&document{}).
		Where("user_id = ? AND collection = ? AND id = ?", userID, string(mut.Collection), mut.ID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s %s: %w", mut.Kind, mut.Collection, mut.ID, ErrNotFound)
	}
	return fmt.Errorf("%s %s %s at version %d: %w", mut.Kind, mut.Collection, mut.ID, mut.Version, ErrConflict)
}

// Close closes the underlying connection pool.
func (s *SQLBackend) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d document) record() Record {
	return Record{
		Collection: model.Collection(d.Collection),
		ID:         d.ID,
		Version:    d.Version,
		Body:       []byte(d.Body),
	}
}

// classify maps driver errors that are worth retrying to ErrUnavailable.
func classify(err error) error {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return transient(err)
}
