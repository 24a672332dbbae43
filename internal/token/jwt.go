package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/videotube-server/internal/model"
)

// AccessClaims are the claims of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	TokenType string    `json:"typ"`
}

// RefreshClaims are the claims of a refresh token.
type RefreshClaims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"id"`
	TokenType string    `json:"typ"`
}

// Params holds signing secrets and lifetimes.
type Params struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager with HMAC signed tokens and separate secrets per token kind.
type JWT struct {
	params Params
	now    func() time.Time
}

// NewJWT creates a new JWT token manager.
func NewJWT(params Params) *JWT {
	return &JWT{params: params, now: time.Now}
}

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// ErrTokenKind is returned when a token of the wrong kind is presented.
var ErrTokenKind = errors.New("token type mismatch")

// Issue mints an access and a refresh token for account.
func (j *JWT) Issue(account model.Account) (model.TokenPair, error) {
	now := j.now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.params.AccessTTL)),
		},
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		TokenType: typeAccess,
	})
	accessString, err := access.SignedString([]byte(j.params.AccessSecret))
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	// jti keeps refresh tokens minted in the same second distinct.
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.params.RefreshTTL)),
		},
		AccountID: account.ID,
		TokenType: typeRefresh,
	})
	refreshString, err := refresh.SignedString([]byte(j.params.RefreshSecret))
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return model.TokenPair{AccessToken: accessString, RefreshToken: refreshString}, nil
}

// ParseAccessToken validates an access token and returns its identity claims.
func (j *JWT) ParseAccessToken(tokenString string) (model.AccessClaims, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenString, claims, j.params.AccessSecret); err != nil {
		return model.AccessClaims{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if claims.TokenType != typeAccess {
		return model.AccessClaims{}, fmt.Errorf("%w: %s", ErrTokenKind, claims.TokenType)
	}
	return model.AccessClaims{
		AccountID: claims.AccountID,
		Username:  claims.Username,
		Email:     claims.Email,
	}, nil
}

// ParseRefreshToken validates a refresh token and returns the account id it was issued for.
func (j *JWT) ParseRefreshToken(tokenString string) (uuid.UUID, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenString, claims, j.params.RefreshSecret); err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse refresh token: %w", err)
	}
	if claims.TokenType != typeRefresh {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrTokenKind, claims.TokenType)
	}
	return claims.AccountID, nil
}

func (j *JWT) parse(tokenString string, claims jwt.Claims, secret string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("token is invalid")
	}
	return nil
}
