package usecase

import (
	"context"
	"log/slog"

	"github.com/veriphone/veriphone/internal/pkg/goerror"
)

// maskedToken is what the API returns in place of a stored auth token.
const maskedToken = "********"

type (
	SettingsGetInput struct {
		// UserID targets another user's settings; 0 means the caller.
		UserID int64
	}

	SettingsGetOutput struct {
		AccountSID     string
		AuthToken      string // masked, never the stored value
		SenderNumber   string
		ReceiverNumber string
		Configured     bool
	}
)

func (s *Usecase) SettingsGet(ctx context.Context, in SettingsGetInput) (*SettingsGetOutput, error) {
	ctx, span := s.startSpan(ctx, "SettingsGet")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	targetID := in.UserID
	if targetID == 0 {
		targetID = clm.UserID
	}

	allowed, err := s.canEditSettings(ctx, clm, targetID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	profile, err := s.repoMeta.GetProfile(ctx, targetID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get phone factor profile", "user_id", targetID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &SettingsGetOutput{
		AccountSID:     profile.AccountSID,
		SenderNumber:   profile.SenderNumber,
		ReceiverNumber: profile.ReceiverNumber,
		Configured:     profile.Complete(),
	}
	if profile.AuthToken != "" {
		out.AuthToken = maskedToken
	}

	return out, nil
}
