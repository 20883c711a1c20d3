// Package repomanager vends dialect-specific repositories bound to a
// dbx.DBTX and applies the matching embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/migrations"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type RepositoryManager interface {
	// DriverName is the database/sql driver to open DSNs with.
	DriverName() string
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
}

// gooseUp is a seam for testing the goose provider.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// PostgresRepositoryManager uses the pgx stdlib driver.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) DriverName() string { return "pgx" }

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := gooseUp(ctx, goose.DialectPostgres, db, migrations.Postgres()); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// SQLiteRepositoryManager uses modernc.org/sqlite.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) DriverName() string { return "sqlite" }

func (m *SQLiteRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := gooseUp(ctx, goose.DialectSQLite3, db, migrations.SQLite()); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// New returns the manager for driver ("postgres" or "sqlite").
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case "postgres", "pgx":
		return &PostgresRepositoryManager{}, nil
	case "sqlite":
		return &SQLiteRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
