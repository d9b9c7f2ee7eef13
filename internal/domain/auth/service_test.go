package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/domain/apperr"
	cryptoutil "peopleops/internal/platform/crypto"
)

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	crypto, err := cryptoutil.New("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	store := newFakeStore()
	svc := NewService(store, TokenConfig{Secret: "test-secret", AccessTTL: 15 * time.Minute, RefreshTTL: time.Hour}, crypto)
	return svc, store
}

func TestCreateAccountHashesAndGrantsStaffToAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	admin, err := svc.CreateAccount(ctx, NewAccount{Username: "root", Email: "root@example.com", Role: "Admin", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, admin.Role)
	assert.True(t, admin.IsStaff)
	assert.NotEqual(t, "correct-horse", admin.PasswordHash)
	require.NoError(t, CheckPassword(admin.PasswordHash, "correct-horse"))

	emp, err := svc.CreateAccount(ctx, NewAccount{Username: "eve", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, RoleEmployee, emp.Role)
	assert.False(t, emp.IsStaff)
}

func TestCreateAccountValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []NewAccount{
		{Username: "", Password: "password1"},
		{Username: "bob", Password: "short"},
		{Username: "bob", Password: "password1", Role: "owner"},
		{Username: "bob", Password: "password1", Email: "not-an-email"},
	}
	for _, in := range cases {
		_, err := svc.CreateAccount(ctx, in)
		assert.ErrorIs(t, err, apperr.ErrValidation, "input %+v", in)
	}

	_, err := svc.CreateAccount(ctx, NewAccount{Username: "bob", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, NewAccount{Username: "bob", Password: "password2"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateAccount(ctx, NewAccount{Username: "eve", Password: "password1"})
	require.NoError(t, err)

	ident, err := svc.Authenticate(ctx, "eve", "password1")
	require.NoError(t, err)
	assert.Equal(t, "eve", ident.Username)

	_, err = svc.Authenticate(ctx, "eve", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateAccountRehashesOnlyWhenPasswordSupplied(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateAccount(ctx, NewAccount{Username: "eve", Password: "password1"})
	require.NoError(t, err)

	email := "eve@example.com"
	updated, err := svc.UpdateAccount(ctx, created.ID, AccountUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)

	password := "new-password"
	role := RoleAdmin
	updated, err = svc.UpdateAccount(ctx, created.ID, AccountUpdate{Password: &password, Role: &role})
	require.NoError(t, err)
	assert.NotEqual(t, created.PasswordHash, updated.PasswordHash)
	assert.True(t, updated.IsStaff)
	require.NoError(t, CheckPassword(updated.PasswordHash, "new-password"))

	_, err = svc.UpdateAccount(ctx, "missing", AccountUpdate{Email: &email})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentAccountUpdatesKeepBothFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateAccount(ctx, NewAccount{Username: "eve", Password: "password1"})
	require.NoError(t, err)

	first, last := "Eve", "Moneypenny"
	var wg sync.WaitGroup
	for _, upd := range []AccountUpdate{{FirstName: &first}, {LastName: &last}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateAccount(ctx, created.ID, upd)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eve", got.FirstName)
	assert.Equal(t, "Moneypenny", got.LastName)
}

func TestLoginRefreshLogout(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateAccount(ctx, NewAccount{Username: "eve", Email: "eve@example.com", Password: "password1", Role: RoleManager})
	require.NoError(t, err)

	session, err := svc.Login(ctx, "eve", "password1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, Profile{ID: created.ID, Username: "eve", Email: "eve@example.com", Role: RoleManager}, session.User)
	assert.Equal(t, 1, store.lastLogin[created.ID])

	principal, err := svc.VerifyAccess(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, principal.IdentityID)
	assert.True(t, principal.Can(CapTasksUse))
	assert.False(t, principal.Can(CapRequestsReview))

	_, err = svc.VerifyAccess(session.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	rotated, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired, "a rotated refresh token is single-use")

	require.NoError(t, svc.Logout(ctx, rotated.RefreshToken))
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = svc.Refresh(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshPicksUpRoleChange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateAccount(ctx, NewAccount{Username: "eve", Password: "password1"})
	require.NoError(t, err)

	session, err := svc.Login(ctx, "eve", "password1", "")
	require.NoError(t, err)

	role := RoleAdmin
	_, err = svc.UpdateAccount(ctx, created.ID, AccountUpdate{Role: &role})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	principal, err := svc.VerifyAccess(refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, principal.IsAdmin())
}

func TestMFAFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateAccount(ctx, NewAccount{Username: "eve", Password: "password1"})
	require.NoError(t, err)

	err = svc.EnableMFA(ctx, created.ID, "123456")
	assert.ErrorIs(t, err, ErrMFANotSetUp)

	setup, err := svc.SetupMFA(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.OTPAuthURL, "otpauth://")

	assert.ErrorIs(t, svc.EnableMFA(ctx, created.ID, "000000x"), ErrMFAInvalid)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.EnableMFA(ctx, created.ID, code))

	_, err = svc.Login(ctx, "eve", "password1", "")
	assert.ErrorIs(t, err, ErrMFARequired)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	_, err = svc.Login(ctx, "eve", "password1", code)
	require.NoError(t, err)
}

func TestSetupMFAKeepsEnabledFactor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.CreateAccount(ctx, NewAccount{Username: "eve", Password: "password1"})
	require.NoError(t, err)

	setup, err := svc.SetupMFA(ctx, created.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.EnableMFA(ctx, created.ID, code))

	_, err = svc.SetupMFA(ctx, created.ID)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Login(ctx, "eve", "password1", "")
	assert.ErrorIs(t, err, ErrMFARequired)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.DisableMFA(ctx, created.ID, code))
	_, err = svc.SetupMFA(ctx, created.ID)
	assert.NoError(t, err)
}

func TestMFAUnavailableWithoutKey(t *testing.T) {
	crypto, err := cryptoutil.New("")
	require.NoError(t, err)
	svc := NewService(newFakeStore(), TokenConfig{Secret: "s", AccessTTL: time.Minute, RefreshTTL: time.Hour}, crypto)
	created, err := svc.CreateAccount(context.Background(), NewAccount{Username: "eve", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.SetupMFA(context.Background(), created.ID)
	assert.True(t, errors.Is(err, ErrMFAUnavailable))
}
