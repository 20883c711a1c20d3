// Package accounts persists registered identities. Username uniqueness is
// enforced by the database, never by in-process locking.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the identity store.
//
// InsertIfAbsent is atomic with respect to concurrent callers: for any
// username exactly one insert succeeds, the rest get common.ErrConflict.
// Lookups return common.ErrNotFound when nothing matches.
type Repository interface {
	InsertIfAbsent(ctx context.Context, username, credentialHash string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, offset, limit int) ([]*models.Account, error)
	// UpdateCredential swaps the stored hash only while it still equals
	// previousHash, so concurrent changes cannot silently overwrite each
	// other. A missing account or a stale previousHash yields common.ErrNotFound.
	UpdateCredential(ctx context.Context, id, previousHash, credentialHash string) error
}
