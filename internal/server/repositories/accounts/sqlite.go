package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLiteRepository stores timestamps as unix milliseconds.
type SQLiteRepository struct {
	db    dbx.DBTX
	newID func() string
	now   func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, newID: uuid.NewString, now: time.Now}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func (r *SQLiteRepository) InsertIfAbsent(ctx context.Context, username, credentialHash string) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, username, credential_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (username) DO NOTHING
		 RETURNING id, username, credential_hash, created_at, updated_at`

	now := toMillis(r.now())
	a, err := r.scanOne(r.db.QueryRowContext(ctx, query, r.newID(), username, credentialHash, now, now))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || isConstraintViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, err
	}
	return a, nil
}

func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	query :=
		`SELECT id, username, credential_hash, created_at, updated_at FROM accounts
		 WHERE username = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, username, credential_hash, created_at, updated_at FROM accounts
		 WHERE id = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) List(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	query :=
		`SELECT id, username, credential_hash, created_at, updated_at FROM accounts
		 ORDER BY created_at, username
		 LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Account, 0, limit)
	for rows.Next() {
		var (
			a                models.Account
			created, updated int64
		)
		if err := rows.Scan(&a.ID, &a.Username, &a.CredentialHash, &created, &updated); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		a.CreatedAt, a.UpdatedAt = fromMillis(created), fromMillis(updated)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *SQLiteRepository) UpdateCredential(ctx context.Context, id, previousHash, credentialHash string) error {
	query := `UPDATE accounts SET credential_hash = ?, updated_at = ? WHERE id = ? AND credential_hash = ?`

	res, err := r.db.ExecContext(ctx, query, credentialHash, toMillis(r.now()), id, previousHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		a                models.Account
		created, updated int64
	)
	err := row.Scan(&a.ID, &a.Username, &a.CredentialHash, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.CreatedAt, a.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &a, nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT || code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}
