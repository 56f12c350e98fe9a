package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/veriphone/veriphone/internal/phonefactor/entity"
	"github.com/veriphone/veriphone/internal/pkg/clock"
	"github.com/veriphone/veriphone/internal/pkg/config"
	"github.com/veriphone/veriphone/internal/pkg/goerror"
	"github.com/veriphone/veriphone/internal/pkg/goroutine"
	"github.com/veriphone/veriphone/internal/pkg/hash"
	"github.com/veriphone/veriphone/internal/pkg/idempotency"
	"github.com/veriphone/veriphone/internal/pkg/instrument"
	"github.com/veriphone/veriphone/internal/pkg/jwt"
	"github.com/veriphone/veriphone/internal/pkg/nonce"
	"github.com/veriphone/veriphone/internal/pkg/passcode"
	"github.com/veriphone/veriphone/internal/pkg/secrets"
	"github.com/veriphone/veriphone/internal/pkg/uid"
	"github.com/veriphone/veriphone/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// nonceAction scopes callback nonces to the TwiML script fetch.
const nonceAction = "phone-factor-twiml"

// Casbin object/action guarding writes to another user's settings.
const (
	authzObjectSettings = "phone_factor_settings"
	authzActionEdit     = "edit"
)

type CallPlacedEvent struct {
	CallID         int64
	UserID         int64
	SenderNumber   string
	ReceiverNumber string
}

type VerificationResultEvent struct {
	UserID  int64
	Matched bool
}

type repoMessaging interface {
	PublishCallPlaced(ctx context.Context, msg CallPlacedEvent) error
	PublishVerificationResult(ctx context.Context, msg VerificationResultEvent) error
}

type repoMeta interface {
	GetProfile(ctx context.Context, userID int64) (*entity.UserFactorProfile, error)
	SetProfile(ctx context.Context, userID int64, patch entity.ProfilePatch) error

	GetCodeDigest(ctx context.Context, userID int64) (entity.CodeDigest, error)
	SetCodeDigest(ctx context.Context, userID int64, digest string, issuedAt time.Time) error
	DeleteCodeDigest(ctx context.Context, userID int64) error
}

type repoTelephony interface {
	Call(ctx context.Context, req entity.CallRequest) error
}

type Usecase struct {
	repoMeta      repoMeta
	repoTelephony repoTelephony
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	encryptor     secrets.Encryptor
	passcode      passcode.Generator
	nonce         nonce.Store
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	enforcer      *casbin.Enforcer
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoMeta      repoMeta
	RepoTelephony repoTelephony
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Encryptor     secrets.Encryptor
	Passcode      passcode.Generator
	Nonce         nonce.Store
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Enforcer      *casbin.Enforcer
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoMeta:      dep.RepoMeta,
		repoTelephony: dep.RepoTelephony,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		encryptor:     dep.Encryptor,
		passcode:      dep.Passcode,
		nonce:         dep.Nonce,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("phonefactor.usecase").Start(ctx, name)
}

// canEditSettings reports whether the authenticated caller may write the
// target user's settings: the user themself, or a subject the enforcer
// grants edit rights on phone_factor_settings.
func (s *Usecase) canEditSettings(ctx context.Context, clm *jwt.Claims, targetUserID int64) (bool, error) {
	if clm.UserID == targetUserID {
		return true, nil
	}

	ok, err := s.enforcer.Enforce(clm.Subject, authzObjectSettings, authzActionEdit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "user_id", clm.Subject, "error", err)
		return false, goerror.NewServer(err)
	}

	return ok, nil
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}

// codeDigest scopes the digest input with the user ID so a digest issued for
// one user can never validate for another.
func (s *Usecase) codeDigest(userID int64, code string) (string, error) {
	digest, err := s.hmac.Hash(digestInput(userID, code))
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func digestInput(userID int64, code string) string {
	return strconv.FormatInt(userID, 10) + ":" + code
}
