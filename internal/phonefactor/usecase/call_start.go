package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/veriphone/veriphone/internal/phonefactor/entity"
	"github.com/veriphone/veriphone/internal/phonefactor/outbound/telephony"
	"github.com/veriphone/veriphone/internal/pkg/goerror"
	"github.com/veriphone/veriphone/internal/pkg/idempotency"
	"github.com/veriphone/veriphone/internal/pkg/secrets"
)

const defaultNonceTTL = 10 * time.Minute

type StartCallOutput struct {
	CallID int64
}

// StartCall asks the telephony provider to place a verification call to the
// caller's configured number. The code itself is not minted here; the
// provider fetches the spoken script from the callback once the call
// connects, and issuance happens at that moment.
func (s *Usecase) StartCall(ctx context.Context) (*StartCallOutput, error) {
	ctx, span := s.startSpan(ctx, "StartCall")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}
	userID := clm.UserID

	profile, err := s.repoMeta.GetProfile(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get phone factor profile", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !profile.Complete() {
		return nil, goerror.NewBusiness("Phone factor is not available for this account", goerror.CodeForbidden)
	}

	authToken, err := s.decryptAuthToken(ctx, userID, profile.AuthToken)
	if err != nil {
		return nil, err
	}

	callID := s.uid.Generate()

	execErr := s.idemp.Exec(ctx, "phone_factor:call:"+strconv.FormatInt(userID, 10), func(ctx context.Context) error {
		return s.placeCall(ctx, profile, authToken)
	}, idempotency.WithLockDuration(time.Minute), idempotency.WithStateTTL(time.Minute))
	if execErr != nil {
		switch {
		case errors.Is(execErr, idempotency.ErrAlreadyInProgress),
			errors.Is(execErr, idempotency.ErrAlreadyCompleted):
			return nil, goerror.NewBusiness("A verification call is already in progress", goerror.CodeTooManyRequest)
		case errors.Is(execErr, errCallRejected):
			// Generic by design of the error surface: no detail about which
			// field the provider rejected.
			return nil, goerror.NewBusiness("An error occurred while calling", goerror.CodeInvalidFormat)
		default:
			slog.ErrorContext(ctx, "failed to place verification call", "user_id", userID, "error", execErr)
			return nil, goerror.NewServer(execErr)
		}
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.repoMessaging.PublishCallPlaced(ctx, CallPlacedEvent{
			CallID:         callID,
			UserID:         userID,
			SenderNumber:   profile.SenderNumber,
			ReceiverNumber: profile.ReceiverNumber,
		})
	})

	return &StartCallOutput{CallID: callID}, nil
}

var errCallRejected = errors.New("usecase: provider rejected the call")

func (s *Usecase) placeCall(ctx context.Context, profile *entity.UserFactorProfile, authToken string) error {
	nonceTTL := s.cfg.GetMinute("modules.phone_factor.nonce_ttl_minutes")
	if nonceTTL <= 0 {
		nonceTTL = defaultNonceTTL
	}

	token, err := s.nonce.Issue(ctx, nonceAction, profile.UserID, nonceTTL)
	if err != nil {
		return err
	}

	callbackURL, err := s.callbackURL(profile.UserID, token)
	if err != nil {
		return err
	}

	if err := s.repoTelephony.Call(ctx, entity.CallRequest{
		AccountSID:  profile.AccountSID,
		AuthToken:   authToken,
		From:        profile.SenderNumber,
		To:          profile.ReceiverNumber,
		CallbackURL: callbackURL,
	}); err != nil {
		if errors.Is(err, telephony.ErrCallRejected) {
			slog.WarnContext(ctx, "provider rejected verification call", "user_id", profile.UserID)
			return errCallRejected
		}
		return err
	}

	return nil
}

func (s *Usecase) callbackURL(userID int64, nonceToken string) (string, error) {
	base := s.cfg.GetString("modules.phone_factor.callback_base_url")
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u = u.JoinPath("/api/v1/phone-factor/twiml")

	q := u.Query()
	q.Set("user", strconv.FormatInt(userID, 10))
	q.Set("nonce", nonceToken)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (s *Usecase) decryptAuthToken(ctx context.Context, userID int64, stored string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		slog.ErrorContext(ctx, "stored auth token is not valid base64", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	plain, err := s.encryptor.Decrypt(ciphertext, secrets.Scope{
		UserID:  userID,
		Purpose: secrets.PurposeProviderAuthToken,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt auth token", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	return string(plain), nil
}
