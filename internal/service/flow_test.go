package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/videotube-server/internal/lock"
	"github.com/dtroode/videotube-server/internal/model"
	"github.com/dtroode/videotube-server/internal/password"
	"github.com/dtroode/videotube-server/internal/testutil"
	"github.com/dtroode/videotube-server/internal/token"
)

// memoryAccounts keeps accounts in memory and implements both account stores.
type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: make(map[uuid.UUID]model.Account)}
}

func (m *memoryAccounts) GetByIdentifier(_ context.Context, username, email string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if (username != "" && acc.Username == username) || (email != "" && acc.Email == email) {
			return acc, nil
		}
	}
	return model.Account{}, model.ErrNotFound
}

func (m *memoryAccounts) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, err := m.GetByIdentifier(ctx, username, email)
	return err == nil, nil
}

func (m *memoryAccounts) Create(_ context.Context, account model.Account) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return account, nil
}

func (m *memoryAccounts) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return acc, nil
}

func (m *memoryAccounts) SetRefreshToken(_ context.Context, id uuid.UUID, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return model.ErrNotFound
	}
	acc.RefreshToken = &refresh
	m.accounts[id] = acc
	return nil
}

func (m *memoryAccounts) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.RefreshToken = nil
		m.accounts[id] = acc
	}
	return nil
}

func (m *memoryAccounts) SwapRefreshToken(_ context.Context, id uuid.UUID, expected, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok || acc.RefreshToken == nil || *acc.RefreshToken != expected {
		return model.ErrTokenMismatch
	}
	acc.RefreshToken = &next
	m.accounts[id] = acc
	return nil
}

func (m *memoryAccounts) storedRefresh(id uuid.UUID) *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].RefreshToken
}

// noopLocker lets every caller through, leaving the conditional write as the only guard.
type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

type flowFixture struct {
	auth     *Auth
	accounts *memoryAccounts
	alice    model.Account
}

func newFlowFixture(t *testing.T, locker model.Locker) flowFixture {
	t.Helper()

	accounts := newMemoryAccounts()
	hasher := password.NewBcrypt(bcrypt.MinCost)
	manager := token.NewJWT(token.Params{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Hour,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    240 * time.Hour,
	})
	log := testutil.MakeNoopLogger()
	tokens := NewTokenService(manager, accounts, locker, log)

	hash, err := hasher.Hash("pw1")
	require.NoError(t, err)
	alice, err := accounts.Create(context.Background(), model.Account{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	return flowFixture{
		auth:     NewAuth(accounts, hasher, nil, tokens, log),
		accounts: accounts,
		alice:    alice,
	}
}

func TestFlow_LoginRefreshLogout(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, lock.NewLocal())

	res, err := f.auth.Login(ctx, model.LoginParams{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	r1 := res.Tokens.RefreshToken
	require.NotNil(t, f.accounts.storedRefresh(f.alice.ID))
	assert.Equal(t, r1, *f.accounts.storedRefresh(f.alice.ID))

	pair, err := f.auth.Refresh(ctx, r1)
	require.NoError(t, err)
	r2 := pair.RefreshToken
	assert.NotEqual(t, r1, r2)
	assert.Equal(t, r2, *f.accounts.storedRefresh(f.alice.ID))

	_, err = f.auth.Refresh(ctx, r1)
	requireAPIError(t, err, http.StatusUnauthorized)
	assert.Equal(t, r2, *f.accounts.storedRefresh(f.alice.ID), "failed rotation must not change the stored token")

	require.NoError(t, f.auth.Logout(ctx, f.alice.ID))
	assert.Nil(t, f.accounts.storedRefresh(f.alice.ID))

	_, err = f.auth.Refresh(ctx, r2)
	requireAPIError(t, err, http.StatusUnauthorized)
}

func TestFlow_SecondLoginSupersedesFirst(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, lock.NewLocal())

	first, err := f.auth.Login(ctx, model.LoginParams{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	second, err := f.auth.Login(ctx, model.LoginParams{Email: "alice@example.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = f.auth.Refresh(ctx, first.Tokens.RefreshToken)
	requireAPIError(t, err, http.StatusUnauthorized)

	_, err = f.auth.Refresh(ctx, second.Tokens.RefreshToken)
	require.NoError(t, err)
}

func TestFlow_WrongPasswordKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, lock.NewLocal())

	res, err := f.auth.Login(ctx, model.LoginParams{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, model.LoginParams{Username: "alice", Password: "nope"})
	requireAPIError(t, err, http.StatusUnauthorized)
	assert.Equal(t, res.Tokens.RefreshToken, *f.accounts.storedRefresh(f.alice.ID))
}

func TestFlow_InvalidRefreshTokenIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	f := newFlowFixture(t, lock.NewLocal())

	for _, presented := range []string{"not-a-jwt", "a.b.c", strings.Repeat("x", 300)} {
		_, err := f.auth.Refresh(ctx, presented)
		requireAPIError(t, err, http.StatusUnauthorized)
	}

	res, err := f.auth.Login(ctx, model.LoginParams{Username: "alice", Password: "pw1"})
	require.NoError(t, err)

	_, err = f.auth.Refresh(ctx, res.Tokens.AccessToken)
	requireAPIError(t, err, http.StatusUnauthorized)
}

func TestFlow_ConcurrentRotationHasOneWinner(t *testing.T) {
	lockers := map[string]model.Locker{
		"local lock": lock.NewLocal(),
		"no lock":    noopLocker{},
	}

	for name, locker := range lockers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFlowFixture(t, locker)

			res, err := f.auth.Login(ctx, model.LoginParams{Username: "alice", Password: "pw1"})
			require.NoError(t, err)

			const workers = 8
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				winners []string
				losers  int
			)
			start := make(chan struct{})
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					pair, err := f.auth.Refresh(ctx, res.Tokens.RefreshToken)
					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						losers++
						return
					}
					winners = append(winners, pair.RefreshToken)
				}()
			}
			close(start)
			wg.Wait()

			require.Len(t, winners, 1)
			assert.Equal(t, workers-1, losers)
			assert.Equal(t, winners[0], *f.accounts.storedRefresh(f.alice.ID))
		})
	}
}
