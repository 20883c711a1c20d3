package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/credentials"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	testNow    = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	errBoom    = errors.New("boom")
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func cheapHasher() *credentials.Hasher {
	return credentials.New(credentials.Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func newTokens(t *testing.T, c *clock, ttl time.Duration) (*auth.Issuer, *auth.Verifier) {
	t.Helper()
	iss, err := auth.NewIssuer(testSecret, ttl, auth.WithNowTime(c.Now), auth.WithIssuer("auth-service"))
	require.NoError(t, err)
	return iss, auth.NewVerifier(testSecret, auth.WithNowTime(c.Now), auth.WithIssuer("auth-service"))
}

type recorded struct {
	op, outcome string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *fakeRecorder) AuthEvent(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{op, outcome})
}

func (r *fakeRecorder) last() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return recorded{}
	}
	return r.events[len(r.events)-1]
}

type env struct {
	svc      *UserService
	db       *sql.DB
	clock    *clock
	recorder *fakeRecorder
}

// newSQLiteEnv wires a UserService to a fresh on-disk SQLite database.
func newSQLiteEnv(t *testing.T, ttl time.Duration) *env {
	t.Helper()
	m := &repomanager.SQLiteRepositoryManager{}

	db, err := sql.Open(m.DriverName(), "file:"+filepath.Join(t.TempDir(), "svc.db")+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, m.RunMigrations(context.Background(), db))

	c := &clock{t: testNow}
	iss, ver := newTokens(t, c, ttl)
	rec := &fakeRecorder{}

	return &env{
		svc:      NewUserService(db, m, cheapHasher(), iss, ver, WithRecorder(rec)),
		db:       db,
		clock:    c,
		recorder: rec,
	}
}

func (e *env) countAccounts(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&n))
	return n
}

// --- fakes for failure paths ---

type fakeAccounts struct {
	insertOut *models.Account
	insertErr error
	findOut   *models.Account
	findErr   error
	listOut   []*models.Account
	listErr   error
	updateErr error

	gotOffset, gotLimit int
	previousHash        string
	updatedHash         string
}

func (f *fakeAccounts) InsertIfAbsent(_ context.Context, username, hash string) (*models.Account, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if f.insertOut != nil {
		return f.insertOut, nil
	}
	return &models.Account{ID: "id-1", Username: username, CredentialHash: hash}, nil
}

func (f *fakeAccounts) FindByUsername(context.Context, string) (*models.Account, error) {
	return f.findOut, f.findErr
}

func (f *fakeAccounts) FindByID(context.Context, string) (*models.Account, error) {
	return f.findOut, f.findErr
}

func (f *fakeAccounts) List(_ context.Context, offset, limit int) ([]*models.Account, error) {
	f.gotOffset, f.gotLimit = offset, limit
	return f.listOut, f.listErr
}

func (f *fakeAccounts) UpdateCredential(_ context.Context, _, previous, hash string) error {
	f.previousHash, f.updatedHash = previous, hash
	return f.updateErr
}

type fakeRepoManager struct {
	a *fakeAccounts
}

func (m *fakeRepoManager) DriverName() string                           { return "fake" }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return m.a }

type fakeHasher struct {
	hashErr   error
	verifyOK  bool
	verifyErr error
	verifies  int
}

func (h *fakeHasher) Hash(p string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + p, nil
}

func (h *fakeHasher) Verify(string, string) (bool, error) {
	h.verifies++
	return h.verifyOK, h.verifyErr
}
