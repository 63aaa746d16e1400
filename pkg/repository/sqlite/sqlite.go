package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
	"github.com/secmon-lab/amlcase/pkg/domain/model/errs"
	"github.com/secmon-lab/amlcase/pkg/utils/errutil"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLite is a case store on gorm with the pure-Go sqlite driver.
type SQLite struct {
	db *gorm.DB
	eb *goerr.Builder
}

var _ interfaces.Repository = &SQLite{}

type Option func(*config)

type config struct {
	autoMigrate bool
}

// WithAutoMigrate creates or updates tables when the store is opened.
func WithAutoMigrate() Option {
	return func(c *config) {
		c.autoMigrate = true
	}
}

// New opens the database at dsn. ":memory:" and "file::memory:" open a private in-memory database.
func New(ctx context.Context, dsn string, opts ...Option) (*SQLite, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	eb := goerr.NewBuilder(goerr.TV(errutil.RepositoryKey, "sqlite"))

	if err := ensureDirectory(dsn); err != nil {
		return nil, eb.Wrap(err, "failed to prepare sqlite directory", goerr.V("dsn", dsn))
	}

	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, eb.Wrap(err, "failed to open sqlite", goerr.T(errs.TagDatabase), goerr.V("dsn", dsn))
	}

	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// and keeps an in-memory database alive across calls.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, eb.Wrap(err, "failed to get sql.DB", goerr.T(errs.TagDatabase))
	}
	sqlDB.SetMaxOpenConns(1)

	repo := &SQLite{db: db, eb: eb}
	if cfg.autoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	logging.From(ctx).Info("sqlite repository opened", "dsn", dsn)
	return repo, nil
}

// Migrate creates tables and indexes.
func (r *SQLite) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return r.eb.Wrap(err, "failed to migrate schema", goerr.T(errs.TagDatabase))
	}
	return nil
}

func (r *SQLite) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return r.eb.Wrap(err, "failed to get sql.DB", goerr.T(errs.TagDatabase))
	}
	if err := sqlDB.Close(); err != nil {
		return r.eb.Wrap(err, "failed to close sqlite", goerr.T(errs.TagDatabase))
	}
	return nil
}

func ensureDirectory(dsn string) error {
	candidate := strings.TrimSpace(dsn)
	if candidate == "" || strings.Contains(candidate, ":memory:") {
		return nil
	}
	candidate = strings.TrimPrefix(candidate, "file:")
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}

	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
