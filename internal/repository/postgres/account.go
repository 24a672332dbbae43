package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/videotube-server/internal/model"
)

var (
	_ model.AccountStore = (*AccountRepository)(nil)
	_ model.SessionStore = (*AccountRepository)(nil)
)

const uniqueViolation = "23505"

const accountColumns = `id, username, email, full_name, password_hash, avatar, cover_image, refresh_token, created_at, updated_at`

type AccountRepository struct {
	db *Connection
}

func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.FullName, &a.PasswordHash, &a.Avatar, &a.CoverImage,
		&a.RefreshToken, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// GetByIdentifier returns the account whose username or email matches.
func (r *AccountRepository) GetByIdentifier(ctx context.Context, username, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
			  WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
			  LIMIT 1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, username, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by identifier: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return exists, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, username, email, full_name, password_hash, avatar, cover_image, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.QueryRow(ctx, query,
		account.ID, account.Username, account.Email, account.FullName, account.PasswordHash,
		account.Avatar, account.CoverImage, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, model.ErrAlreadyExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

// SetRefreshToken touches only the refresh token column.
func (r *AccountRepository) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	const query = `UPDATE accounts SET refresh_token = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE accounts SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

func (r *AccountRepository) SwapRefreshToken(ctx context.Context, id uuid.UUID, expected, next string) error {
	const query = `UPDATE accounts SET refresh_token = $3, updated_at = NOW()
				   WHERE id = $1 AND refresh_token = $2`

	tag, err := r.db.Exec(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("failed to swap refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenMismatch
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
