package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db    dbx.DBTX
	newID func() string
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, newID: uuid.NewString}
}

func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, username, credentialHash string) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, username, credential_hash)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO NOTHING
		 RETURNING id, username, credential_hash, created_at, updated_at`

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, r.newID(), username, credentialHash).
		Scan(&a.ID, &a.Username, &a.CredentialHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		// DO NOTHING yields no row when the username is taken
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	query :=
		`SELECT id, username, credential_hash, created_at, updated_at FROM accounts
		 WHERE username = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrNotFound
	}

	query :=
		`SELECT id, username, credential_hash, created_at, updated_at FROM accounts
		 WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	query :=
		`SELECT id, username, credential_hash, created_at, updated_at FROM accounts
		 ORDER BY created_at, username
		 OFFSET $1 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Account, 0, limit)
	for rows.Next() {
		a := &models.Account{}
		if err := rows.Scan(&a.ID, &a.Username, &a.CredentialHash, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) UpdateCredential(ctx context.Context, id, previousHash, credentialHash string) error {
	query :=
		`UPDATE accounts SET credential_hash = $2, updated_at = now()
		 WHERE id = $1 AND credential_hash = $3`

	res, err := r.db.ExecContext(ctx, query, id, credentialHash, previousHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.Username, &a.CredentialHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
