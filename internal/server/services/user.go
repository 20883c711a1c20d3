// Package services contains server-side business logic. UserService owns
// registration, login, token verification and the account read/update paths.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// PasswordHasher is satisfied by *credentials.Hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) (bool, error)
}

// Recorder receives one event per finished operation.
type Recorder interface {
	AuthEvent(op, outcome string)
}

// Outcomes reported to the Recorder.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeConflict     = "conflict"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	issuer      *auth.Issuer
	verifier    *auth.Verifier
	log         logging.Logger
	recorder    Recorder

	// hash of a throwaway password, verified against when the user is
	// missing so both login failure paths cost the same
	dummyHash string
}

type Option func(*UserService)

func WithLogger(l logging.Logger) Option {
	return func(s *UserService) { s.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *UserService) { s.recorder = r }
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h PasswordHasher, iss *auth.Issuer, ver *auth.Verifier, opts ...Option) *UserService {
	s := &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		issuer:      iss,
		verifier:    ver,
		log:         logging.Nop{},
		recorder:    nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("module", "users")
	// Hash of a random password nobody knows; only its cost matters.
	if pw, err := common.MakeRandHexString(16); err != nil {
		s.log.Warn(context.Background(), "dummy password unavailable", "error", err)
	} else if s.dummyHash, err = h.Hash(pw); err != nil {
		s.log.Warn(context.Background(), "dummy hash unavailable", "error", err)
	}
	return s
}

// Register validates the input, hashes the password and stores the account.
// A taken username yields common.ErrConflict; nothing is written on failure.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.Account, error) {
	const op = "register"

	if err := validateRegistration(username, password); err != nil {
		s.recorder.AuthEvent(op, OutcomeInvalid)
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error(ctx, "hash password", "error", err)
		s.recorder.AuthEvent(op, OutcomeError)
		return nil, fmt.Errorf("%w: hash password", common.ErrInternal)
	}

	account, err := s.repomanager.Accounts(s.db).InsertIfAbsent(ctx, username, hash)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			s.recorder.AuthEvent(op, OutcomeConflict)
			return nil, common.ErrConflict
		}
		s.log.Error(ctx, "insert account", "username", username, "error", err)
		s.recorder.AuthEvent(op, OutcomeError)
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	s.log.Info(ctx, "account registered", "user_id", account.ID, "username", account.Username)
	s.recorder.AuthEvent(op, OutcomeSuccess)
	return account, nil
}

// Login checks the credentials and mints an access token. Unknown usernames
// and wrong passwords are indistinguishable: both return
// common.ErrUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*auth.Token, error) {
	const op = "login"

	if err := validateLogin(username, password); err != nil {
		s.recorder.AuthEvent(op, OutcomeInvalid)
		return nil, err
	}

	account, err := s.repomanager.Accounts(s.db).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.burnVerify(ctx, password)
			s.recorder.AuthEvent(op, OutcomeUnauthorized)
			return nil, common.ErrUnauthorized
		}
		s.log.Error(ctx, "find account", "username", username, "error", err)
		s.recorder.AuthEvent(op, OutcomeError)
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	ok, err := s.hasher.Verify(password, account.CredentialHash)
	if err != nil {
		s.log.Error(ctx, "stored credential hash is corrupt", "user_id", account.ID, "error", err)
		s.recorder.AuthEvent(op, OutcomeError)
		return nil, fmt.Errorf("%w: corrupt credential", common.ErrInternal)
	}
	if !ok {
		s.recorder.AuthEvent(op, OutcomeUnauthorized)
		return nil, common.ErrUnauthorized
	}

	token, err := s.issuer.Issue(account.ID, account.Username)
	if err != nil {
		s.log.Error(ctx, "issue token", "user_id", account.ID, "error", err)
		s.recorder.AuthEvent(op, OutcomeError)
		return nil, err
	}

	s.log.Debug(ctx, "login ok", "user_id", account.ID)
	s.recorder.AuthEvent(op, OutcomeSuccess)
	return token, nil
}

func (s *UserService) burnVerify(ctx context.Context, password string) {
	if s.dummyHash == "" {
		s.log.Debug(ctx, "no dummy hash, skipping verify")
		return
	}
	_, _ = s.hasher.Verify(password, s.dummyHash)
}

// VerifyToken checks a presented access token without touching the store.
func (s *UserService) VerifyToken(ctx context.Context, token string) (*auth.Identity, error) {
	id, err := s.verifier.Verify(token)
	if err != nil {
		s.log.Debug(ctx, "token rejected", "reason", err)
		s.recorder.AuthEvent("verify", OutcomeUnauthorized)
		return nil, err
	}
	s.recorder.AuthEvent("verify", OutcomeSuccess)
	return id, nil
}

// ChangePassword replaces the stored credential after re-checking the
// current password. Tokens issued earlier stay valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	const op = "change_password"

	if err := validatePassword("new_password", next); err != nil {
		s.recorder.AuthEvent(op, OutcomeInvalid)
		return err
	}

	account, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Account, error) {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrUnauthorized
			}
			return nil, err
		}

		ok, err := s.hasher.Verify(current, account.CredentialHash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, common.ErrUnauthorized
		}

		hash, err := s.hasher.Hash(next)
		if err != nil {
			return nil, err
		}
		// a concurrent change replaced the hash we verified against
		if err := repo.UpdateCredential(ctx, account.ID, account.CredentialHash, hash); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrUnauthorized
			}
			return nil, err
		}
		return account, nil
	})

	switch {
	case err == nil:
		s.log.Info(ctx, "password changed", "user_id", account.ID, "username", account.Username)
		s.recorder.AuthEvent(op, OutcomeSuccess)
		return nil
	case errors.Is(err, common.ErrUnauthorized):
		s.recorder.AuthEvent(op, OutcomeUnauthorized)
		return common.ErrUnauthorized
	default:
		s.log.Error(ctx, "change password", "user_id", userID, "error", err)
		s.recorder.AuthEvent(op, OutcomeError)
		return fmt.Errorf("%w: %w", common.ErrInternal, err)
	}
}

// ListAccounts pages through accounts ordered by creation time.
func (s *UserService) ListAccounts(ctx context.Context, skip, limit int) ([]*models.Account, error) {
	skip, limit, err := normalizePage(skip, limit)
	if err != nil {
		return nil, err
	}

	out, err := s.repomanager.Accounts(s.db).List(ctx, skip, limit)
	if err != nil {
		s.log.Error(ctx, "list accounts", "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}
	return out, nil
}

// GetAccount returns common.ErrNotFound for unknown ids.
func (s *UserService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	a, err := s.repomanager.Accounts(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		s.log.Error(ctx, "get account", "id", id, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}
	return a, nil
}

// Ping checks database connectivity for readiness probes.
func (s *UserService) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
