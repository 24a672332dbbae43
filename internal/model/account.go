package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	GetByIdentifier(ctx context.Context, username, email string) (Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, account Account) (Account, error)
}

// SessionStore persists the single valid refresh token of an account.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	// SwapRefreshToken replaces the stored token only if it still equals expected.
	// It returns ErrTokenMismatch otherwise.
	SwapRefreshToken(ctx context.Context, id uuid.UUID, expected, next string) error
}

// Account represents a stored user account.
type Account struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	Avatar       string
	CoverImage   string
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public returns a copy of the account safe to hand to clients.
func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		FullName:   a.FullName,
		Avatar:     a.Avatar,
		CoverImage: a.CoverImage,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// PublicAccount is an account without password hash and refresh token.
type PublicAccount struct {
	ID         uuid.UUID `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
