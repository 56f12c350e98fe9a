// Package meta is the per-user key-value store adapter. It persists the four
// call-routing settings and the one code digest as rows in
// phone_factor_user_meta, mirroring a host user-meta model.
package meta

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veriphone/veriphone/internal/pkg/goerror"
	"github.com/veriphone/veriphone/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logical meta keys, one row each per user.
const (
	keyAccountSID     = "phone_factor_account_sid"
	keyAuthToken      = "phone_factor_auth_token"
	keySenderNumber   = "phone_factor_sender_number"
	keyReceiverNumber = "phone_factor_receiver_number"
	keyCodeDigest     = "phone_factor_code_digest"
	keyCodeIssuedAt   = "phone_factor_code_issued_at"
)

type Meta struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewMeta(conn *pgxpool.Pool, ins instrument.Instrumentation) *Meta {
	return &Meta{conn: conn, ins: ins}
}

func (s *Meta) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *Meta) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("phonefactor.outbound.meta").Start(ctx, name)
}

func (s *Meta) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Meta) get(ctx context.Context, userID int64, keys []string) (map[string]string, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT meta_key, meta_value FROM phone_factor_user_meta WHERE user_id = $1 AND meta_key = ANY($2)`,
		userID, keys)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	values := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, s.mapError(err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return values, nil
}

func (s *Meta) upsert(ctx context.Context, tx pgx.Tx, userID int64, key, value string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO phone_factor_user_meta (user_id, meta_key, meta_value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, meta_key) DO UPDATE SET meta_value = EXCLUDED.meta_value`,
		userID, key, value)
	return err
}
