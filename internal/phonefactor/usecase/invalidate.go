package usecase

import (
	"context"
	"log/slog"

	"github.com/veriphone/veriphone/internal/pkg/goerror"
)

// Invalidate explicitly deletes the caller's stored code digest. Deleting an
// absent digest is a no-op.
func (s *Usecase) Invalidate(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Invalidate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.repoMeta.DeleteCodeDigest(ctx, clm.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to delete code digest", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
