package usecase

import (
	"context"
	"log/slog"

	"github.com/veriphone/veriphone/internal/pkg/goerror"
)

type (
	AvailabilityInput struct {
		// UserID targets another user; 0 means the caller.
		UserID int64
	}

	AvailabilityOutput struct {
		Available bool
	}
)

// Availability reports whether the phone factor can be offered to the user.
// The factor is available iff all four call-routing settings are present.
func (s *Usecase) Availability(ctx context.Context, in AvailabilityInput) (*AvailabilityOutput, error) {
	ctx, span := s.startSpan(ctx, "Availability")
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

	return &AvailabilityOutput{Available: profile.Complete()}, nil
}
