package meta

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/veriphone/veriphone/internal/phonefactor/entity"
)

var profileKeys = []string{keyAccountSID, keyAuthToken, keySenderNumber, keyReceiverNumber}

// GetProfile reads the four call-routing settings. Missing keys come back as
// empty strings; a user with no rows at all gets an all-empty profile.
func (s *Meta) GetProfile(ctx context.Context, userID int64) (p *entity.UserFactorProfile, err error) {
	ctx, span := s.startSpan(ctx, "GetProfile")
	defer func() { s.endSpan(span, err) }()

	values, err := s.get(ctx, userID, profileKeys)
	if err != nil {
		return nil, err
	}

	return &entity.UserFactorProfile{
		UserID:         userID,
		AccountSID:     values[keyAccountSID],
		AuthToken:      values[keyAuthToken],
		SenderNumber:   values[keySenderNumber],
		ReceiverNumber: values[keyReceiverNumber],
	}, nil
}

// SetProfile replaces all four call-routing settings in one transaction.
func (s *Meta) SetProfile(ctx context.Context, userID int64, patch entity.ProfilePatch) (err error) {
	ctx, span := s.startSpan(ctx, "SetProfile")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	pairs := map[string]string{
		keyAccountSID:     patch.AccountSID,
		keyAuthToken:      patch.AuthToken,
		keySenderNumber:   patch.SenderNumber,
		keyReceiverNumber: patch.ReceiverNumber,
	}
	for _, key := range profileKeys {
		if err := s.upsert(ctx, tx, userID, key, pairs[key]); err != nil {
			return s.mapError(err)
		}
	}

	return tx.Commit(ctx)
}
