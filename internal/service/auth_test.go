package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/videotube-server/internal/lock"
	"github.com/dtroode/videotube-server/internal/mocks"
	"github.com/dtroode/videotube-server/internal/model"
	"github.com/dtroode/videotube-server/internal/testutil"
)

type authDeps struct {
	accounts *mocks.AccountStore
	sessions *mocks.SessionStore
	hasher   *mocks.PasswordHasher
	storage  *mocks.Storage
	manager  *mocks.TokenManager
}

func newTestAuth(t *testing.T) (*Auth, authDeps) {
	d := authDeps{
		accounts: mocks.NewAccountStore(t),
		sessions: mocks.NewSessionStore(t),
		hasher:   mocks.NewPasswordHasher(t),
		storage:  mocks.NewStorage(t),
		manager:  mocks.NewTokenManager(t),
	}
	log := testutil.MakeNoopLogger()
	tokens := NewTokenService(d.manager, d.sessions, lock.NewLocal(), log)
	return NewAuth(d.accounts, d.hasher, d.storage, tokens, log), d
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	account := model.Account{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		RefreshToken: strPtr("old"),
	}
	pair := model.TokenPair{AccessToken: "a1", RefreshToken: "r1"}

	t.Run("success by username", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.accounts.On("GetByIdentifier", mock.Anything, "alice", "").Return(account, nil).Once()
		d.hasher.On("Verify", "hash", "pw1").Return(true).Once()
		d.manager.On("Issue", account).Return(pair, nil).Once()
		d.sessions.On("SetRefreshToken", mock.Anything, account.ID, "r1").Return(nil).Once()

		res, err := a.Login(ctx, model.LoginParams{Username: " Alice ", Password: "pw1"})
		require.NoError(t, err)
		assert.Equal(t, pair, res.Tokens)
		assert.Equal(t, account.ID, res.Account.ID)
		assert.Equal(t, "alice", res.Account.Username)
	})

	t.Run("success by email", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.accounts.On("GetByIdentifier", mock.Anything, "", "alice@example.com").Return(account, nil).Once()
		d.hasher.On("Verify", "hash", "pw1").Return(true).Once()
		d.manager.On("Issue", account).Return(pair, nil).Once()
		d.sessions.On("SetRefreshToken", mock.Anything, account.ID, "r1").Return(nil).Once()

		_, err := a.Login(ctx, model.LoginParams{Email: "ALICE@example.com", Password: "pw1"})
		require.NoError(t, err)
	})

	t.Run("missing identifier", func(t *testing.T) {
		a, _ := newTestAuth(t)

		_, err := a.Login(ctx, model.LoginParams{Password: "pw1"})
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		assert.Equal(t, "username or email is required", apiErr.Message)
	})

	t.Run("missing password", func(t *testing.T) {
		a, _ := newTestAuth(t)

		_, err := a.Login(ctx, model.LoginParams{Username: "alice"})
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("unknown account", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.accounts.On("GetByIdentifier", mock.Anything, "bob", "").Return(model.Account{}, model.ErrNotFound).Once()

		_, err := a.Login(ctx, model.LoginParams{Username: "bob", Password: "pw1"})
		apiErr := requireAPIError(t, err, http.StatusNotFound)
		assert.Equal(t, "User does not exist", apiErr.Message)
	})

	t.Run("wrong password leaves session untouched", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.accounts.On("GetByIdentifier", mock.Anything, "alice", "").Return(account, nil).Once()
		d.hasher.On("Verify", "hash", "wrong").Return(false).Once()

		_, err := a.Login(ctx, model.LoginParams{Username: "alice", Password: "wrong"})
		apiErr := requireAPIError(t, err, http.StatusUnauthorized)
		assert.Equal(t, "Invalid user credentials", apiErr.Message)
		d.sessions.AssertNotCalled(t, "SetRefreshToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.accounts.On("GetByIdentifier", mock.Anything, "alice", "").Return(model.Account{}, errors.New("db")).Once()

		_, err := a.Login(ctx, model.LoginParams{Username: "alice", Password: "pw1"})
		requireAPIError(t, err, http.StatusInternalServerError)
	})
}

func TestAuth_Logout(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("clears session", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.sessions.On("ClearRefreshToken", mock.Anything, id).Return(nil).Twice()

		require.NoError(t, a.Logout(ctx, id))
		require.NoError(t, a.Logout(ctx, id))
	})

	t.Run("store failure", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.sessions.On("ClearRefreshToken", mock.Anything, id).Return(errors.New("db")).Once()

		requireAPIError(t, a.Logout(ctx, id), http.StatusInternalServerError)
	})
}

func TestAuth_Refresh(t *testing.T) {
	a, _ := newTestAuth(t)

	_, err := a.Refresh(context.Background(), "")
	requireAPIError(t, err, http.StatusUnauthorized)
}

func validRegisterParams() model.RegisterParams {
	return model.RegisterParams{
		FullName: "Alice Liddell",
		Email:    "Alice@Example.com",
		Username: "Alice",
		Password: "pw1",
		Avatar: &model.Upload{
			Filename:    "me.PNG",
			ContentType: "image/png",
			Size:        3,
			Reader:      strings.NewReader("png"),
		},
	}
}

func TestAuth_Register(t *testing.T) {
	ctx := context.Background()
	avatarKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "avatars/") && strings.HasSuffix(key, ".png")
	})
	coverKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "covers/")
	})

	t.Run("success", func(t *testing.T) {
		a, d := newTestAuth(t)
		params := validRegisterParams()
		params.CoverImage = &model.Upload{Filename: "c.jpg", ContentType: "image/jpeg", Size: 1, Reader: strings.NewReader("j")}

		d.accounts.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()
		d.storage.On("Upload", mock.Anything, avatarKey, mock.Anything, int64(3), "image/png").Return("http://cdn/avatar.png", nil).Once()
		d.storage.On("Upload", mock.Anything, coverKey, mock.Anything, int64(1), "image/jpeg").Return("http://cdn/cover.jpg", nil).Once()
		d.hasher.On("Hash", "pw1").Return("hash", nil).Once()
		d.accounts.On("Create", mock.Anything, mock.MatchedBy(func(acc model.Account) bool {
			return acc.Username == "alice" &&
				acc.Email == "alice@example.com" &&
				acc.FullName == "Alice Liddell" &&
				acc.PasswordHash == "hash" &&
				acc.Avatar == "http://cdn/avatar.png" &&
				acc.CoverImage == "http://cdn/cover.jpg" &&
				acc.ID != uuid.Nil
		})).Return(func(_ context.Context, acc model.Account) model.Account { return acc }, nil).Once()

		got, err := a.Register(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "http://cdn/cover.jpg", got.CoverImage)
	})

	t.Run("blank field", func(t *testing.T) {
		a, _ := newTestAuth(t)
		params := validRegisterParams()
		params.FullName = "   "

		_, err := a.Register(ctx, params)
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		assert.Equal(t, "All fields are required", apiErr.Message)
	})

	t.Run("invalid email", func(t *testing.T) {
		a, _ := newTestAuth(t)
		params := validRegisterParams()
		params.Email = "not-an-email"

		_, err := a.Register(ctx, params)
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("existing account", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.accounts.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(true, nil).Once()

		_, err := a.Register(ctx, validRegisterParams())
		requireAPIError(t, err, http.StatusConflict)
	})

	t.Run("missing avatar", func(t *testing.T) {
		a, d := newTestAuth(t)
		params := validRegisterParams()
		params.Avatar = nil
		d.accounts.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()

		_, err := a.Register(ctx, params)
		apiErr := requireAPIError(t, err, http.StatusBadRequest)
		assert.Equal(t, "Avatar file is required", apiErr.Message)
	})

	t.Run("avatar upload failure", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.accounts.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()
		d.storage.On("Upload", mock.Anything, avatarKey, mock.Anything, int64(3), "image/png").Return("", errors.New("s3")).Once()

		_, err := a.Register(ctx, validRegisterParams())
		requireAPIError(t, err, http.StatusBadRequest)
	})

	t.Run("cover upload failure removes avatar", func(t *testing.T) {
		a, d := newTestAuth(t)
		params := validRegisterParams()
		params.CoverImage = &model.Upload{Filename: "c.jpg", ContentType: "image/jpeg", Size: 1, Reader: strings.NewReader("j")}
		d.accounts.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()
		d.storage.On("Upload", mock.Anything, avatarKey, mock.Anything, int64(3), "image/png").Return("http://cdn/avatar.png", nil).Once()
		d.storage.On("Upload", mock.Anything, coverKey, mock.Anything, int64(1), "image/jpeg").Return("", errors.New("s3")).Once()
		d.storage.On("Delete", mock.Anything, avatarKey).Return(nil).Once()

		_, err := a.Register(ctx, params)
		requireAPIError(t, err, http.StatusInternalServerError)
	})

	t.Run("create conflict removes uploads", func(t *testing.T) {
		a, d := newTestAuth(t)
		d.accounts.On("ExistsByUsernameOrEmail", mock.Anything, "alice", "alice@example.com").Return(false, nil).Once()
		d.storage.On("Upload", mock.Anything, avatarKey, mock.Anything, int64(3), "image/png").Return("http://cdn/avatar.png", nil).Once()
		d.hasher.On("Hash", "pw1").Return("hash", nil).Once()
		d.accounts.On("Create", mock.Anything, mock.Anything).Return(model.Account{}, model.ErrAlreadyExists).Once()
		d.storage.On("Delete", mock.Anything, avatarKey).Return(errors.New("gone")).Once()

		_, err := a.Register(ctx, validRegisterParams())
		requireAPIError(t, err, http.StatusConflict)
	})
}
