package usecase

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/veriphone/veriphone/internal/phonefactor/entity"
	"github.com/veriphone/veriphone/internal/pkg/goerror"
	"github.com/veriphone/veriphone/internal/pkg/secrets"
)

type SettingsUpdateInput struct {
	// UserID targets another user's settings; 0 means the caller.
	UserID         int64
	AccountSID     string `validate:"required,account_sid"`
	AuthToken      string `validate:"required,min=8"`
	SenderNumber   string `validate:"required,phone_e164"`
	ReceiverNumber string `validate:"required,phone_e164"`
}

// SettingsUpdate replaces the caller's (or, with edit rights, another user's)
// call-routing settings. An unauthorized write is a silent no-op so the
// permission structure is never leaked.
func (s *Usecase) SettingsUpdate(ctx context.Context, in SettingsUpdateInput) error {
	ctx, span := s.startSpan(ctx, "SettingsUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	targetID := in.UserID
	if targetID == 0 {
		targetID = clm.UserID
	}

	allowed, err := s.canEditSettings(ctx, clm, targetID)
	if err != nil {
		return err
	}
	if !allowed {
		slog.WarnContext(ctx, "unauthorized settings write ignored", "caller_id", clm.UserID, "target_id", targetID)
		return nil
	}

	ciphertext, err := s.encryptor.Encrypt([]byte(in.AuthToken), secrets.Scope{
		UserID:  targetID,
		Purpose: secrets.PurposeProviderAuthToken,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt auth token", "user_id", targetID, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMeta.SetProfile(ctx, targetID, entity.ProfilePatch{
		AccountSID:     in.AccountSID,
		AuthToken:      base64.StdEncoding.EncodeToString(ciphertext),
		SenderNumber:   in.SenderNumber,
		ReceiverNumber: in.ReceiverNumber,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to set phone factor profile", "user_id", targetID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
