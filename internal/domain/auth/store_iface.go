package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	FindByUsername(ctx context.Context, username string) (Identity, error)
	GetIdentity(ctx context.Context, id string) (Identity, error)
	ListIdentities(ctx context.Context, limit, offset int) ([]Identity, int, error)
	CreateIdentity(ctx context.Context, ident Identity) (Identity, error)
	MutateIdentity(ctx context.Context, id string, fn func(*Identity) error) (Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
	CreateSession(ctx context.Context, identityID, refreshTokenHash string, expires time.Time) error
	RotateSession(ctx context.Context, identityID, oldHash, newHash string, expires time.Time) (bool, error)
	RevokeSession(ctx context.Context, identityID, refreshTokenHash string) error
	UpdateMFASecret(ctx context.Context, identityID string, secretEnc []byte) error
	SetMFAEnabled(ctx context.Context, identityID string, enabled bool) error
}
