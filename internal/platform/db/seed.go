package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleops/internal/domain/auth"
	"peopleops/internal/platform/config"
)

// Seed creates the bootstrap admin identity when credentials are configured.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	created, err := EnsureAdmin(ctx, pool, cfg.SeedAdminUsername, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	if created {
		slog.Info("seeded admin identity", "username", cfg.SeedAdminUsername)
	}
	return nil
}

// EnsureAdmin inserts an admin identity unless the username already exists.
// It reports whether a row was created.
func EnsureAdmin(ctx context.Context, pool *pgxpool.Pool, username, email, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return false, nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM identities WHERE username = $1", username).Scan(&id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO identities (username, email, password_hash, role, is_staff)
    VALUES ($1, $2, $3, $4, true)
    ON CONFLICT (username) DO NOTHING
  `, username, strings.TrimSpace(email), hash, auth.RoleAdmin)
	if err != nil {
		return false, err
	}
	return true, nil
}
