package model

import "github.com/google/uuid"

// TokenPair is a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AccessClaims are the identity claims carried by an access token.
type AccessClaims struct {
	AccountID uuid.UUID
	Username  string
	Email     string
}

// TokenManager issues and validates access/refresh tokens.
type TokenManager interface {
	Issue(account Account) (TokenPair, error)
	ParseAccessToken(token string) (AccessClaims, error)
	ParseRefreshToken(token string) (uuid.UUID, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}
