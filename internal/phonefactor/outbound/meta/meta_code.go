package meta

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/veriphone/veriphone/internal/phonefactor/entity"
)

// GetCodeDigest reads the stored code digest and its issue time. An absent
// digest is a normal outcome and comes back as a zero-value CodeDigest.
func (s *Meta) GetCodeDigest(ctx context.Context, userID int64) (c entity.CodeDigest, err error) {
	ctx, span := s.startSpan(ctx, "GetCodeDigest")
	defer func() { s.endSpan(span, err) }()

	values, err := s.get(ctx, userID, []string{keyCodeDigest, keyCodeIssuedAt})
	if err != nil {
		return entity.CodeDigest{}, err
	}

	c = entity.CodeDigest{UserID: userID, Digest: values[keyCodeDigest]}
	if raw := values[keyCodeIssuedAt]; raw != "" {
		if ts, perr := time.Parse(time.RFC3339, raw); perr == nil {
			c.IssuedAt = ts
		}
	}

	return c, nil
}

// SetCodeDigest overwrites the stored digest and issue time. Overwriting
// silently invalidates any previously issued code.
func (s *Meta) SetCodeDigest(ctx context.Context, userID int64, digest string, issuedAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "SetCodeDigest")
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

	if err := s.upsert(ctx, tx, userID, keyCodeDigest, digest); err != nil {
		return s.mapError(err)
	}
	if err := s.upsert(ctx, tx, userID, keyCodeIssuedAt, issuedAt.UTC().Format(time.RFC3339)); err != nil {
		return s.mapError(err)
	}

	return tx.Commit(ctx)
}

// DeleteCodeDigest removes the stored digest and its issue time. Deleting an
// absent digest is a no-op.
func (s *Meta) DeleteCodeDigest(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteCodeDigest")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`DELETE FROM phone_factor_user_meta WHERE user_id = $1 AND meta_key = ANY($2)`,
		userID, []string{keyCodeDigest, keyCodeIssuedAt})
	return s.mapError(err)
}
