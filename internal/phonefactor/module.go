// Package phonefactor implements the voice-call second-factor verification
// module: per-user call-routing settings, one-time code lifecycle, call
// placement, and the provider callback that speaks the code.
package phonefactor

import (
	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veriphone/veriphone/internal/phonefactor/inbound"
	"github.com/veriphone/veriphone/internal/phonefactor/outbound/meta"
	"github.com/veriphone/veriphone/internal/phonefactor/outbound/mq"
	"github.com/veriphone/veriphone/internal/phonefactor/outbound/telephony"
	"github.com/veriphone/veriphone/internal/phonefactor/usecase"
	"github.com/veriphone/veriphone/internal/pkg/clock"
	"github.com/veriphone/veriphone/internal/pkg/config"
	"github.com/veriphone/veriphone/internal/pkg/goroutine"
	"github.com/veriphone/veriphone/internal/pkg/hash"
	"github.com/veriphone/veriphone/internal/pkg/idempotency"
	"github.com/veriphone/veriphone/internal/pkg/instrument"
	"github.com/veriphone/veriphone/internal/pkg/messaging"
	"github.com/veriphone/veriphone/internal/pkg/nonce"
	"github.com/veriphone/veriphone/internal/pkg/passcode"
	"github.com/veriphone/veriphone/internal/pkg/router"
	"github.com/veriphone/veriphone/internal/pkg/secrets"
	"github.com/veriphone/veriphone/internal/pkg/uid"
	"github.com/veriphone/veriphone/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Enforcer    *casbin.Enforcer           `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Publisher        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Encryptor   secrets.Encryptor          `validate:"required"`
	Passcode    passcode.Generator         `validate:"required"`
	Nonce       nonce.Store                `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoMeta := meta.NewMeta(dep.DBConn, dep.Instrument)
	repoTelephony := telephony.NewTwilio(telephony.Config{
		BaseURL: dep.Config.GetString("modules.phone_factor.twilio.base_url"),
		Timeout: dep.Config.GetSecond("modules.phone_factor.twilio.timeout_seconds"),
	}, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoMeta:      repoMeta,
		RepoTelephony: repoTelephony,
		RepoMessaging: repoMsg,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Encryptor:     dep.Encryptor,
		Passcode:      dep.Passcode,
		Nonce:         dep.Nonce,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
