package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/videotube-server/internal/apierrors"
	"github.com/dtroode/videotube-server/internal/logger"
	"github.com/dtroode/videotube-server/internal/model"
)

// TokenService issues, rotates and revokes token pairs. The refresh token
// stored on the account is the only one accepted for rotation.
type TokenService struct {
	manager model.TokenManager
	store   model.SessionStore
	locker  model.Locker
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.SessionStore, locker model.Locker, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, locker: locker, logger: logger}
}

// Issue mints a pair for account and stores its refresh token, superseding any earlier one.
func (s *TokenService) Issue(ctx context.Context, account model.Account) (model.TokenPair, error) {
	pair, err := s.manager.Issue(account)
	if err != nil {
		s.logger.Error("Token service: failed to issue tokens",
			"account_id", account.ID,
			"error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInternalServerError(fmt.Errorf("issue tokens: %w", err))
	}

	if err := s.store.SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		s.logger.Error("Token service: failed to persist refresh token",
			"account_id", account.ID,
			"error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInternalServerError(fmt.Errorf("persist refresh: %w", err))
	}

	return pair, nil
}

// Rotate exchanges the account's current refresh token for a new pair.
// Any verification failure is reported as unauthorized.
func (s *TokenService) Rotate(ctx context.Context, presented string) (model.TokenPair, error) {
	if strings.TrimSpace(presented) == "" {
		return model.TokenPair{}, apierrors.NewErrUnauthorizedRequest()
	}

	accountID, err := s.manager.ParseRefreshToken(presented)
	if err != nil {
		s.logger.Info("Token service: refresh token rejected",
			"error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken(err)
	}

	unlock, err := s.locker.Lock(ctx, accountID.String())
	if err != nil {
		s.logger.Error("Token service: failed to lock account for rotation",
			"account_id", accountID,
			"error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInternalServerError(fmt.Errorf("lock rotation: %w", err))
	}
	defer unlock()

	account, err := s.store.GetByID(ctx, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, apierrors.NewErrInvalidRefreshToken(nil)
	}
	if err != nil {
		s.logger.Error("Token service: failed to get account",
			"account_id", accountID,
			"error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInternalServerError(fmt.Errorf("get account: %w", err))
	}

	if account.RefreshToken == nil || !equalTokens(*account.RefreshToken, presented) {
		s.logger.Info("Token service: superseded refresh token presented",
			"account_id", accountID)
		return model.TokenPair{}, apierrors.NewErrRefreshTokenUsed()
	}

	pair, err := s.manager.Issue(account)
	if err != nil {
		s.logger.Error("Token service: failed to issue tokens",
			"account_id", accountID,
			"error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInternalServerError(fmt.Errorf("issue tokens: %w", err))
	}

	err = s.store.SwapRefreshToken(ctx, accountID, presented, pair.RefreshToken)
	if errors.Is(err, model.ErrTokenMismatch) {
		return model.TokenPair{}, apierrors.NewErrRefreshTokenUsed()
	}
	if err != nil {
		s.logger.Error("Token service: failed to persist rotated refresh token",
			"account_id", accountID,
			"error", err.Error())
		return model.TokenPair{}, apierrors.NewErrInternalServerError(fmt.Errorf("persist refresh: %w", err))
	}

	s.logger.Debug("Token service: refresh token rotated",
		"account_id", accountID)

	return pair, nil
}

// Revoke clears the stored refresh token so no outstanding one can be rotated.
func (s *TokenService) Revoke(ctx context.Context, accountID uuid.UUID) error {
	if err := s.store.ClearRefreshToken(ctx, accountID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// Authenticate validates an access token and returns its claims.
func (s *TokenService) Authenticate(_ context.Context, accessToken string) (model.AccessClaims, error) {
	return s.manager.ParseAccessToken(accessToken)
}

func equalTokens(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
