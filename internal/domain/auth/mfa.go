package auth

import (
	"context"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// SetupMFA generates a TOTP secret and stores it sealed. MFA stays disabled
// until EnableMFA confirms a code. An enabled factor must be disabled with a
// valid code before a new secret can be issued.
func (s *Service) SetupMFA(ctx context.Context, identityID string) (MFASetup, error) {
	if !s.crypto.Configured() {
		return MFASetup{}, ErrMFAUnavailable
	}
	ident, err := s.store.GetIdentity(ctx, identityID)
	if err != nil {
		return MFASetup{}, err
	}
	if ident.MFAEnabled {
		return MFASetup{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: ident.Username,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, err
	}
	sealed, err := s.crypto.SealFor(identityID, key.Secret())
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.store.UpdateMFASecret(ctx, identityID, sealed); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, identityID, code string) error {
	return s.confirmMFA(ctx, identityID, code, true)
}

func (s *Service) DisableMFA(ctx context.Context, identityID, code string) error {
	return s.confirmMFA(ctx, identityID, code, false)
}

func (s *Service) confirmMFA(ctx context.Context, identityID, code string, enabled bool) error {
	if !s.crypto.Configured() {
		return ErrMFAUnavailable
	}
	ident, err := s.store.GetIdentity(ctx, identityID)
	if err != nil {
		return err
	}
	if len(ident.MFASecretEnc) == 0 {
		return ErrMFANotSetUp
	}
	if err := s.verifyTOTP(ident, code); err != nil {
		return err
	}
	return s.store.SetMFAEnabled(ctx, identityID, enabled)
}

func (s *Service) verifyTOTP(ident Identity, code string) error {
	if !s.crypto.Configured() {
		return ErrMFAInvalid
	}
	secret, err := s.crypto.OpenFor(ident.ID, ident.MFASecretEnc)
	if err != nil || secret == "" {
		return ErrMFAInvalid
	}
	if !totp.Validate(code, secret) {
		return ErrMFAInvalid
	}
	return nil
}
