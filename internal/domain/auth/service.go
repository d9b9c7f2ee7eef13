package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	cryptoutil "peopleops/internal/platform/crypto"
)

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Service struct {
	store  StoreAPI
	tokens TokenConfig
	crypto *cryptoutil.Service
	now    func() time.Time
}

func NewService(store StoreAPI, tokens TokenConfig, crypto *cryptoutil.Service) *Service {
	return &Service{store: store, tokens: tokens, crypto: crypto, now: time.Now}
}

// WithClock replaces the time source. Tests use it to pin token timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck spends one bcrypt comparison so unknown usernames take
// as long as wrong passwords.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = HashPassword("peopleops-timing-equalizer")
	})
	_ = CheckPassword(dummyHash, password)
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	ident, err := s.store.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrIdentityNotFound) {
		burnPasswordCheck(password)
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if err := CheckPassword(ident.PasswordHash, password); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	if !ident.IsActive {
		return Identity{}, ErrInvalidCredentials
	}
	return ident, nil
}

// Login authenticates, checks the second factor when enabled and opens a session.
func (s *Service) Login(ctx context.Context, username, password, mfaCode string) (Session, error) {
	ident, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	if ident.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return Session{}, ErrMFARequired
		}
		if err := s.verifyTOTP(ident, mfaCode); err != nil {
			return Session{}, err
		}
	}

	session, err := s.IssueSession(ctx, ident)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, ident.ID); err != nil {
		slog.Warn("update last_login failed", "identityId", ident.ID, "err", err)
	}
	return session, nil
}

// IssueSession signs an access token and a refresh token. Only the hash of
// the refresh token id is persisted.
func (s *Service) IssueSession(ctx context.Context, ident Identity) (Session, error) {
	refreshID := newTokenID()
	now := s.now()
	if err := s.store.CreateSession(ctx, ident.ID, HashToken(refreshID), now.Add(s.tokens.RefreshTTL)); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return s.signPair(ident, refreshID, now)
}

func (s *Service) signPair(ident Identity, refreshID string, now time.Time) (Session, error) {
	access, err := GenerateToken(s.tokens.Secret, Claims{
		IdentityID: ident.ID,
		Username:   ident.Username,
		Role:       ident.Role,
		TokenType:  TokenTypeAccess,
	}, now, s.tokens.AccessTTL)
	if err != nil {
		return Session{}, err
	}

	refreshClaims := Claims{IdentityID: ident.ID, Username: ident.Username, Role: ident.Role, TokenType: TokenTypeRefresh}
	refreshClaims.ID = refreshID
	refresh, err := GenerateToken(s.tokens.Secret, refreshClaims, now, s.tokens.RefreshTTL)
	if err != nil {
		return Session{}, err
	}

	return Session{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: now.Add(s.tokens.AccessTTL).UTC(),
		User:            ident.Profile(),
	}, nil
}

// Refresh exchanges a live refresh token for a new pair and rotates the
// stored session, so each refresh token is single-use. Role changes made
// since login take effect here because the identity is reloaded.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := ParseTokenOfType(s.tokens.Secret, refreshToken, TokenTypeRefresh)
	if err != nil || claims.ID == "" {
		return Session{}, ErrInvalidToken
	}

	ident, err := s.store.GetIdentity(ctx, claims.IdentityID)
	if errors.Is(err, ErrIdentityNotFound) {
		return Session{}, ErrSessionExpired
	}
	if err != nil {
		return Session{}, err
	}
	if !ident.IsActive {
		return Session{}, ErrSessionExpired
	}

	newID := newTokenID()
	now := s.now()
	rotated, err := s.store.RotateSession(ctx, ident.ID, HashToken(claims.ID), HashToken(newID), now.Add(s.tokens.RefreshTTL))
	if err != nil {
		return Session{}, err
	}
	if !rotated {
		return Session{}, ErrSessionExpired
	}
	return s.signPair(ident, newID, now)
}

// Logout revokes the session behind a refresh token. Unparseable tokens are
// ignored since there is nothing to revoke.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := ParseTokenOfType(s.tokens.Secret, refreshToken, TokenTypeRefresh)
	if err != nil || claims.ID == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, claims.IdentityID, HashToken(claims.ID))
}

// VerifyAccess resolves a bearer access token into a Principal.
func (s *Service) VerifyAccess(token string) (Principal, error) {
	claims, err := ParseTokenOfType(s.tokens.Secret, token, TokenTypeAccess)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	return NewPrincipal(claims.IdentityID, claims.Username, claims.Role), nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (Identity, error) {
	return s.store.GetIdentity(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context, limit, offset int) ([]Identity, int, error) {
	return s.store.ListIdentities(ctx, limit, offset)
}

// CreateAccount hashes the password and stores the identity. Admin accounts
// also get the staff flag.
func (s *Service) CreateAccount(ctx context.Context, in NewAccount) (Identity, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if in.Role == "" {
		in.Role = RoleEmployee
	}
	if err := validateAccountFields(in.Username, in.Email, in.Role); err != nil {
		return Identity{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return Identity{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Identity{}, err
	}
	return s.store.CreateIdentity(ctx, Identity{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         in.Role,
		IsStaff:      in.Role == RoleAdmin,
		IsActive:     true,
		PasswordHash: hash,
	})
}

// UpdateAccount applies a partial update. The password is re-hashed only
// when a new one is supplied.
func (s *Service) UpdateAccount(ctx context.Context, id string, upd AccountUpdate) (Identity, error) {
	var hash string
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return Identity{}, err
		}
		var err error
		if hash, err = HashPassword(*upd.Password); err != nil {
			return Identity{}, err
		}
	}
	return s.store.MutateIdentity(ctx, id, func(ident *Identity) error {
		if upd.Username != nil {
			ident.Username = strings.TrimSpace(*upd.Username)
		}
		if upd.Email != nil {
			ident.Email = strings.TrimSpace(*upd.Email)
		}
		if upd.FirstName != nil {
			ident.FirstName = strings.TrimSpace(*upd.FirstName)
		}
		if upd.LastName != nil {
			ident.LastName = strings.TrimSpace(*upd.LastName)
		}
		if upd.Role != nil {
			ident.Role = strings.ToLower(strings.TrimSpace(*upd.Role))
			ident.IsStaff = ident.Role == RoleAdmin
		}
		if err := validateAccountFields(ident.Username, ident.Email, ident.Role); err != nil {
			return err
		}
		if hash != "" {
			ident.PasswordHash = hash
		}
		return nil
	})
}

func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	return s.store.DeleteIdentity(ctx, id)
}

func validateAccountFields(username, email, role string) error {
	if username == "" {
		return ErrInvalidAccount.WithMessage("username is required")
	}
	if len(username) > 150 {
		return ErrInvalidAccount.WithMessage("username must be at most 150 characters")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return ErrInvalidAccount.WithMessage("email is not a valid address")
		}
	}
	if !ValidRole(role) {
		return ErrInvalidAccount.WithMessage("role must be one of admin, manager, employee")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrInvalidAccount.WithMessage(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
