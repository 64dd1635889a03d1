package infrastructure

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/shared/config"
)

// PostgresUniqueViolation is the SQLSTATE of a unique constraint violation
const PostgresUniqueViolation = "23505"

func NewPostgresDB(ctx context.Context, cfg config.Database) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return db, nil
}

// Migrate applies every *.sql file of migrations in name order, skipping
// files already recorded in schema_migrations. Each file runs in its own
// transaction.
func Migrate(ctx context.Context, db *sqlx.DB, migrations fs.FS, logger *zap.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return errors.Wrap(err, "failed to create schema_migrations")
	}

	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return errors.Wrap(err, "failed to list migrations")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var applied bool
		if err := db.GetContext(ctx, &applied,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, name); err != nil {
			return errors.Wrapf(err, "failed to check migration %s", name)
		}
		if applied {
			continue
		}

		script, err := fs.ReadFile(migrations, name)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", name)
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "failed to begin transaction")
		}

		if _, err := tx.ExecContext(ctx, string(script)); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to apply migration %s", name)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to record migration %s", name)
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "failed to commit migration %s", name)
		}

		logger.Info("migration applied", zap.String("version", name))
	}

	return nil
}
