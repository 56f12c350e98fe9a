package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/veriphone/veriphone/internal/pkg/clock"
	"github.com/veriphone/veriphone/internal/pkg/config"
	"github.com/veriphone/veriphone/internal/pkg/goroutine"
	"github.com/veriphone/veriphone/internal/pkg/hash"
	"github.com/veriphone/veriphone/internal/pkg/idempotency"
	"github.com/veriphone/veriphone/internal/pkg/instrument"
	"github.com/veriphone/veriphone/internal/pkg/jwt"
	"github.com/veriphone/veriphone/internal/pkg/messaging"
	"github.com/veriphone/veriphone/internal/pkg/nonce"
	"github.com/veriphone/veriphone/internal/pkg/passcode"
	"github.com/veriphone/veriphone/internal/pkg/router"
	"github.com/veriphone/veriphone/internal/pkg/secrets"
	"github.com/veriphone/veriphone/internal/pkg/uid"
	"github.com/veriphone/veriphone/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT
	encryptor secrets.Encryptor
	passcode  passcode.Generator

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	nonce     nonce.Store
	messaging messaging.Publisher
	casbin    *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
