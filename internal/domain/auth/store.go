package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"peopleops/internal/platform/querier"
)

type Store struct {
	DB querier.TxQuerier
}

func NewStore(db querier.TxQuerier) *Store {
	return &Store{DB: db}
}

const identityColumns = `
  id::text, username, email, first_name, last_name, role, is_staff, is_active,
  mfa_enabled, mfa_secret_enc, last_login, created_at, updated_at, password_hash`

func scanIdentity(row pgx.Row) (Identity, error) {
	var out Identity
	err := row.Scan(
		&out.ID, &out.Username, &out.Email, &out.FirstName, &out.LastName, &out.Role, &out.IsStaff, &out.IsActive,
		&out.MFAEnabled, &out.MFASecretEnc, &out.LastLogin, &out.CreatedAt, &out.UpdatedAt, &out.PasswordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Identity{}, ErrIdentityNotFound
	}
	return out, err
}

func (s *Store) FindByUsername(ctx context.Context, username string) (Identity, error) {
	return scanIdentity(s.DB.QueryRow(ctx, "SELECT "+identityColumns+" FROM identities WHERE username = $1", username))
}

func (s *Store) GetIdentity(ctx context.Context, id string) (Identity, error) {
	return scanIdentity(s.DB.QueryRow(ctx, "SELECT "+identityColumns+" FROM identities WHERE id::text = $1", id))
}

func (s *Store) ListIdentities(ctx context.Context, limit, offset int) ([]Identity, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM identities").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, "SELECT "+identityColumns+" FROM identities ORDER BY username LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Identity, 0, limit)
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, ident)
	}
	return out, total, rows.Err()
}

func (s *Store) CreateIdentity(ctx context.Context, ident Identity) (Identity, error) {
	created, err := scanIdentity(s.DB.QueryRow(ctx, `
    INSERT INTO identities (username, email, first_name, last_name, role, is_staff, password_hash)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+identityColumns,
		ident.Username, ident.Email, ident.FirstName, ident.LastName, ident.Role, ident.IsStaff, ident.PasswordHash,
	))
	if _, ok := querier.UniqueViolation(err); ok {
		return Identity{}, ErrUsernameTaken
	}
	return created, err
}

// MutateIdentity locks the identity row, lets fn edit it and writes the
// account fields back in one transaction.
func (s *Store) MutateIdentity(ctx context.Context, id string, fn func(*Identity) error) (Identity, error) {
	var updated Identity
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		ident, err := scanIdentity(tx.QueryRow(ctx, "SELECT "+identityColumns+" FROM identities WHERE id::text = $1 FOR UPDATE", id))
		if err != nil {
			return err
		}
		if err := fn(&ident); err != nil {
			return err
		}
		updated, err = scanIdentity(tx.QueryRow(ctx, `
      UPDATE identities
      SET username = $2, email = $3, first_name = $4, last_name = $5, role = $6, is_staff = $7,
          password_hash = $8, updated_at = now()
      WHERE id::text = $1
      RETURNING `+identityColumns,
			id, ident.Username, ident.Email, ident.FirstName, ident.LastName, ident.Role, ident.IsStaff, ident.PasswordHash,
		))
		if _, ok := querier.UniqueViolation(err); ok {
			return ErrUsernameTaken
		}
		return err
	})
	if err != nil {
		return Identity{}, err
	}
	return updated, nil
}

func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM identities WHERE id::text = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "UPDATE identities SET last_login = now() WHERE id::text = $1", id)
	return err
}

func (s *Store) CreateSession(ctx context.Context, identityID, refreshTokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (identity_id, refresh_token, expires_at)
    VALUES ($1,$2,$3)
  `, identityID, refreshTokenHash, expires)
	return err
}

// RotateSession swaps the stored refresh hash. It reports false when the old
// hash was already rotated or revoked, which makes a replayed refresh token fail.
func (s *Store) RotateSession(ctx context.Context, identityID, oldHash, newHash string, expires time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET refresh_token = $1, expires_at = $2, rotated_at = now()
    WHERE identity_id::text = $3 AND refresh_token = $4 AND revoked_at IS NULL AND expires_at > now()
  `, newHash, expires, identityID, oldHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) RevokeSession(ctx context.Context, identityID, refreshTokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE identity_id::text = $1 AND refresh_token = $2 AND revoked_at IS NULL", identityID, refreshTokenHash)
	return err
}

// UpdateMFASecret replaces the pending secret. It refuses to touch an
// identity whose second factor is already enabled.
func (s *Store) UpdateMFASecret(ctx context.Context, identityID string, secretEnc []byte) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE identities SET mfa_secret_enc = $1, updated_at = now()
    WHERE id::text = $2 AND NOT mfa_enabled
  `, secretEnc, identityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMFAAlreadyEnabled
	}
	return nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, identityID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE identities SET mfa_enabled = $1, updated_at = now() WHERE id::text = $2", enabled, identityID)
	return err
}
