package usecase

import (
	"context"
	"log/slog"

	"github.com/veriphone/veriphone/internal/pkg/goerror"
)

type (
	VerifyInput struct {
		Code string `validate:"required,len=6,numeric"`
	}

	VerifyOutput struct {
		Matched bool
	}
)

// Verify checks the supplied code against the caller's stored digest.
//
// Absent digest means no active code: false. A mismatch deletes the digest,
// so each wrong guess costs a brand-new call. A match leaves the digest in
// place until the next issue overwrites it.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}
	userID := clm.UserID

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	matched, err := s.verifyCode(ctx, userID, in.Code)
	if err != nil {
		return nil, err
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.repoMessaging.PublishVerificationResult(ctx, VerificationResultEvent{
			UserID:  userID,
			Matched: matched,
		})
	})

	return &VerifyOutput{Matched: matched}, nil
}

func (s *Usecase) verifyCode(ctx context.Context, userID int64, code string) (bool, error) {
	stored, err := s.repoMeta.GetCodeDigest(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get code digest", "user_id", userID, "error", err)
		return false, goerror.NewServer(err)
	}

	if stored.Absent() {
		return false, nil
	}

	if ttl := s.cfg.GetMinute("modules.phone_factor.code_ttl_minutes"); stored.Stale(s.clock.Now(), ttl) {
		if err := s.repoMeta.DeleteCodeDigest(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "failed to delete stale code digest", "user_id", userID, "error", err)
			return false, goerror.NewServer(err)
		}
		return false, nil
	}

	if !s.hmac.Verify(stored.Digest, digestInput(userID, code)) {
		if err := s.repoMeta.DeleteCodeDigest(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "failed to invalidate code digest", "user_id", userID, "error", err)
			return false, goerror.NewServer(err)
		}
		return false, nil
	}

	return true, nil
}
