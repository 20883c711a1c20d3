// Package db opens the server database and brings its schema up to date.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Migrator is the part of repomanager.RepositoryManager needed to open a
// database.
type Migrator interface {
	DriverName() string
	RunMigrations(ctx context.Context, db *sql.DB) error
}

const sqliteDriver = "sqlite"

// Open connects using m's driver, waits up to maxWait for the database to
// answer a ping and then applies migrations.
func Open(ctx context.Context, m Migrator, dsn string, l logging.Logger, maxWait time.Duration) (*sql.DB, error) {
	db, err := sql.Open(m.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// A single connection serializes writers on SQLite.
	if m.DriverName() == sqliteDriver {
		db.SetMaxOpenConns(1)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = maxWait

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			l.Warn(ctx, "database not ready", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return db, nil
}
