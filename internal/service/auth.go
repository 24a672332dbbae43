package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/videotube-server/internal/apierrors"
	"github.com/dtroode/videotube-server/internal/logger"
	"github.com/dtroode/videotube-server/internal/model"
)

const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

type Auth struct {
	accounts     model.AccountStore
	hasher       model.PasswordHasher
	storage      model.Storage
	tokenService *TokenService
	logger       *logger.Logger
}

func NewAuth(
	accounts model.AccountStore,
	hasher model.PasswordHasher,
	storage model.Storage,
	tokenService *TokenService,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		accounts:     accounts,
		hasher:       hasher,
		storage:      storage,
		tokenService: tokenService,
		logger:       logger,
	}
}

// Register creates an account with uploaded avatar and optional cover image.
func (a *Auth) Register(ctx context.Context, params model.RegisterParams) (model.PublicAccount, error) {
	fullName := strings.TrimSpace(params.FullName)
	email := strings.ToLower(strings.TrimSpace(params.Email))
	username := strings.ToLower(strings.TrimSpace(params.Username))

	a.logger.Debug("Auth service: starting registration",
		"username", username,
		"email", email)

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(params.Password) == "" {
		return model.PublicAccount{}, apierrors.NewErrAllFieldsRequired()
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return model.PublicAccount{}, apierrors.NewErrBadRequest("Invalid email")
	}

	exists, err := a.accounts.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		a.logger.Error("Auth service: failed to check existing account",
			"username", username,
			"error", err.Error())
		return model.PublicAccount{}, apierrors.NewErrInternalServerError(fmt.Errorf("check account: %w", err))
	}
	if exists {
		a.logger.Info("Auth service: account already exists",
			"username", username,
			"email", email)
		return model.PublicAccount{}, apierrors.NewErrUserAlreadyExists()
	}

	if params.Avatar == nil {
		return model.PublicAccount{}, apierrors.NewErrAvatarRequired()
	}

	avatarKey, avatarURL, err := a.upload(ctx, avatarFolder, params.Avatar)
	if err != nil {
		a.logger.Error("Auth service: failed to upload avatar",
			"username", username,
			"error", err.Error())
		return model.PublicAccount{}, apierrors.NewErrAvatarRequired()
	}
	uploaded := []string{avatarKey}

	var coverURL string
	if params.CoverImage != nil {
		var coverKey string
		coverKey, coverURL, err = a.upload(ctx, coverFolder, params.CoverImage)
		if err != nil {
			a.logger.Error("Auth service: failed to upload cover image",
				"username", username,
				"error", err.Error())
			a.cleanup(ctx, uploaded)
			return model.PublicAccount{}, apierrors.NewErrInternalServerError(fmt.Errorf("upload cover image: %w", err))
		}
		uploaded = append(uploaded, coverKey)
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		a.cleanup(ctx, uploaded)
		return model.PublicAccount{}, apierrors.NewErrInternalServerError(err)
	}

	now := time.Now().UTC()
	created, err := a.accounts.Create(ctx, model.Account{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		a.cleanup(ctx, uploaded)
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.PublicAccount{}, apierrors.NewErrUserAlreadyExists()
		}
		a.logger.Error("Auth service: failed to create account",
			"username", username,
			"error", err.Error())
		return model.PublicAccount{}, apierrors.NewErrInternalServerError(fmt.Errorf("create account: %w", err))
	}

	a.logger.Info("Auth service: account registered",
		"account_id", created.ID,
		"username", created.Username)

	return created.Public(), nil
}

// Login verifies credentials and starts a session.
func (a *Auth) Login(ctx context.Context, params model.LoginParams) (model.LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(params.Username))
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if username == "" && email == "" {
		return model.LoginResult{}, apierrors.NewErrIdentifierRequired()
	}
	if params.Password == "" {
		return model.LoginResult{}, apierrors.NewErrBadRequest("password is required")
	}

	account, err := a.accounts.GetByIdentifier(ctx, username, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.LoginResult{}, apierrors.NewErrUserNotFound()
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get account",
			"username", username,
			"email", email,
			"error", err.Error())
		return model.LoginResult{}, apierrors.NewErrInternalServerError(fmt.Errorf("get account: %w", err))
	}

	if !a.hasher.Verify(account.PasswordHash, params.Password) {
		a.logger.Info("Auth service: invalid credentials",
			"account_id", account.ID)
		return model.LoginResult{}, apierrors.NewErrInvalidCredentials()
	}

	pair, err := a.tokenService.Issue(ctx, account)
	if err != nil {
		return model.LoginResult{}, err
	}

	a.logger.Info("Auth service: login completed",
		"account_id", account.ID)

	return model.LoginResult{Account: account.Public(), Tokens: pair}, nil
}

// Logout ends the account's session. Logging out twice is not an error.
func (a *Auth) Logout(ctx context.Context, accountID uuid.UUID) error {
	if err := a.tokenService.Revoke(ctx, accountID); err != nil {
		a.logger.Error("Auth service: failed to logout",
			"account_id", accountID,
			"error", err.Error())
		return apierrors.NewErrInternalServerError(err)
	}

	a.logger.Info("Auth service: logout completed",
		"account_id", accountID)

	return nil
}

// Refresh rotates the presented refresh token.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	return a.tokenService.Rotate(ctx, refreshToken)
}

func (a *Auth) upload(ctx context.Context, folder string, u *model.Upload) (key string, url string, err error) {
	key = folder + "/" + uuid.NewString() + strings.ToLower(path.Ext(u.Filename))
	url, err = a.storage.Upload(ctx, key, u.Reader, u.Size, u.ContentType)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// cleanup removes uploaded objects of a failed registration.
func (a *Auth) cleanup(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := a.storage.Delete(ctx, key); err != nil {
			a.logger.Warn("Auth service: failed to remove uploaded object",
				"key", key,
				"error", err.Error())
		}
	}
}
