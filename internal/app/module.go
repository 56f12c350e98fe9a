package app

import (
	"log/slog"
	"os"

	"github.com/veriphone/veriphone/internal/phonefactor"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.phone_factor.enabled") {
		if err := phonefactor.New(phonefactor.Dependency{
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			HMAC:        a.hmac,
			Encryptor:   a.encryptor,
			Passcode:    a.passcode,
			Nonce:       a.nonce,
			Clock:       a.clock,
			Validator:   a.validator,
			Router:      a.router,
			DBConn:      a.dbConn,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Goroutine:   a.goroutine,
			Enforcer:    a.casbin,
		}); err != nil {
			slog.Error("failed to init module phone_factor", "error", err)
			os.Exit(1)
		}
	}
}
