package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	golangjwt "github.com/golang-jwt/jwt/v5"
	"github.com/veriphone/veriphone/internal/phonefactor/entity"
	"github.com/veriphone/veriphone/internal/phonefactor/outbound/telephony"
	"github.com/veriphone/veriphone/internal/pkg/goerror"
	"github.com/veriphone/veriphone/internal/pkg/goroutine"
	"github.com/veriphone/veriphone/internal/pkg/hash"
	"github.com/veriphone/veriphone/internal/pkg/idempotency"
	"github.com/veriphone/veriphone/internal/pkg/instrument"
	"github.com/veriphone/veriphone/internal/pkg/jwt"
	"github.com/veriphone/veriphone/internal/pkg/secrets"
	"github.com/veriphone/veriphone/internal/pkg/validator"
)

const (
	testAccountSID = "AC0123456789abcdef0123456789abcdef"
	testAuthToken  = "super-secret-token"
	testSender     = "+15005550006"
	testReceiver   = "+15005550010"
)

type fakeMeta struct {
	mu       sync.Mutex
	profiles map[int64]entity.UserFactorProfile
	digests  map[int64]entity.CodeDigest
	err      error
}

func newFakeMeta() *fakeMeta {
	return &fakeMeta{
		profiles: make(map[int64]entity.UserFactorProfile),
		digests:  make(map[int64]entity.CodeDigest),
	}
}

func (f *fakeMeta) GetProfile(_ context.Context, userID int64) (*entity.UserFactorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := f.profiles[userID]
	p.UserID = userID
	return &p, nil
}

func (f *fakeMeta) SetProfile(_ context.Context, userID int64, patch entity.ProfilePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.profiles[userID] = entity.UserFactorProfile{
		UserID:         userID,
		AccountSID:     patch.AccountSID,
		AuthToken:      patch.AuthToken,
		SenderNumber:   patch.SenderNumber,
		ReceiverNumber: patch.ReceiverNumber,
	}
	return nil
}

func (f *fakeMeta) GetCodeDigest(_ context.Context, userID int64) (entity.CodeDigest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return entity.CodeDigest{}, f.err
	}
	d := f.digests[userID]
	d.UserID = userID
	return d, nil
}

func (f *fakeMeta) SetCodeDigest(_ context.Context, userID int64, digest string, issuedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.digests[userID] = entity.CodeDigest{UserID: userID, Digest: digest, IssuedAt: issuedAt}
	return nil
}

func (f *fakeMeta) DeleteCodeDigest(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.digests, userID)
	return nil
}

func (f *fakeMeta) digest(userID int64) (entity.CodeDigest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.digests[userID]
	return d, ok
}

type fakeTelephony struct {
	mu    sync.Mutex
	calls []entity.CallRequest
	err   error
}

func (f *fakeTelephony) Call(_ context.Context, req entity.CallRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, req)
	return nil
}

type fakeMessaging struct {
	mu      sync.Mutex
	placed  []CallPlacedEvent
	results []VerificationResultEvent
}

func (f *fakeMessaging) PublishCallPlaced(_ context.Context, msg CallPlacedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, msg)
	return nil
}

func (f *fakeMessaging) PublishVerificationResult(_ context.Context, msg VerificationResultEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, msg)
	return nil
}

type fakeIdempotency struct {
	err  error
	keys []string
}

func (f *fakeIdempotency) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}

func (f *fakeIdempotency) MarkCompleted(context.Context, string, time.Duration) error { return nil }

func (f *fakeIdempotency) MarkFailed(context.Context, string, time.Duration) error { return nil }

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	return fn(ctx)
}

type fakeNonce struct {
	mu     sync.Mutex
	tokens map[string]string
	n      int
}

func newFakeNonce() *fakeNonce {
	return &fakeNonce{tokens: make(map[string]string)}
}

func (f *fakeNonce) key(action string, userID int64) string {
	return action + ":" + strconv.FormatInt(userID, 10)
}

func (f *fakeNonce) Issue(_ context.Context, action string, userID int64, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	token := fmt.Sprintf("nonce-%d", f.n)
	f.tokens[f.key(action, userID)] = token
	return token, nil
}

func (f *fakeNonce) Consume(_ context.Context, action string, userID int64, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tokens[f.key(action, userID)]
	delete(f.tokens, f.key(action, userID))
	return ok && stored == token, nil
}

// fakePasscode hands out codes from a fixed cycle and remembers the last one,
// so tests know the plaintext that only the phone call would normally carry.
type fakePasscode struct {
	codes []string
	i     int
	last  string
}

func newFakePasscode(codes ...string) *fakePasscode {
	if len(codes) == 0 {
		codes = []string{"123456", "654321"}
	}
	return &fakePasscode{codes: codes}
}

func (f *fakePasscode) Generate() string {
	code := f.codes[f.i%len(f.codes)]
	f.i++
	f.last = code
	return code
}

type fakeNumberID struct{ next int64 }

func (f *fakeNumberID) Generate() int64 {
	f.next++
	return f.next
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type fakeConfig struct {
	strings map[string]string
	minutes map[string]time.Duration
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{
		strings: map[string]string{
			"app.site_name":                           "Veriphone",
			"modules.phone_factor.callback_base_url":  "https://veriphone.test",
		},
		minutes: map[string]time.Duration{},
	}
}

func (c *fakeConfig) Close() error                        { return nil }
func (c *fakeConfig) GetSecond(string) time.Duration      { return 0 }
func (c *fakeConfig) GetMinute(key string) time.Duration  { return c.minutes[key] }
func (c *fakeConfig) GetHour(string) time.Duration        { return 0 }
func (c *fakeConfig) GetDay(string) time.Duration         { return 0 }
func (c *fakeConfig) GetInt(string) int                   { return 0 }
func (c *fakeConfig) GetInt32(string) int32               { return 0 }
func (c *fakeConfig) GetInt64(string) int64               { return 0 }
func (c *fakeConfig) GetUint(string) uint                 { return 0 }
func (c *fakeConfig) GetUint16(string) uint16             { return 0 }
func (c *fakeConfig) GetUint32(string) uint32             { return 0 }
func (c *fakeConfig) GetUint64(string) uint64             { return 0 }
func (c *fakeConfig) GetFloat32(string) float32           { return 0 }
func (c *fakeConfig) GetFloat64(string) float64           { return 0 }
func (c *fakeConfig) GetBool(string) bool                 { return false }
func (c *fakeConfig) GetString(key string) string         { return c.strings[key] }
func (c *fakeConfig) GetBinary(string) []byte             { return nil }
func (c *fakeConfig) GetArray(string) []string            { return nil }
func (c *fakeConfig) GetMap(string) map[string]string     { return nil }

type fixture struct {
	uc        *Usecase
	meta      *fakeMeta
	telephony *fakeTelephony
	messaging *fakeMessaging
	nonce     *fakeNonce
	passcode  *fakePasscode
	idemp     *fakeIdempotency
	clock     *fakeClock
	cfg       *fakeConfig
	manager   *goroutine.Manager
	encryptor secrets.Encryptor
	hmac      hash.Hash
}

func newEnforcer(t *testing.T) *casbin.Enforcer {
	t.Helper()

	const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		t.Fatalf("failed to build casbin model: %v", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatalf("failed to build casbin enforcer: %v", err)
	}
	if _, err := e.AddPolicy("role_admin", "phone_factor_settings", "edit"); err != nil {
		t.Fatalf("failed to add policy: %v", err)
	}
	// User 9 is the admin in all tests below.
	if _, err := e.AddGroupingPolicy("9", "role_admin"); err != nil {
		t.Fatalf("failed to add grouping policy: %v", err)
	}
	return e
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	f := &fixture{
		meta:      newFakeMeta(),
		telephony: &fakeTelephony{},
		messaging: &fakeMessaging{},
		nonce:     newFakeNonce(),
		passcode:  newFakePasscode(),
		idemp:     &fakeIdempotency{},
		clock:     &fakeClock{now: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)},
		cfg:       newFakeConfig(),
		manager:   goroutine.NewManager(8),
		encryptor: secrets.NewAESGCMEncryptor(secrets.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{0x42}, 32)}),
		hmac:      hash.NewHMACSHA256("usecase-test-secret"),
	}

	f.uc = New(Dependency{
		RepoMeta:      f.meta,
		RepoTelephony: f.telephony,
		RepoMessaging: f.messaging,
		Idempotency:   f.idemp,
		Validator:     v10,
		Config:        f.cfg,
		HMAC:          f.hmac,
		Encryptor:     f.encryptor,
		Passcode:      f.passcode,
		Nonce:         f.nonce,
		UID:           &fakeNumberID{next: 1000},
		Clock:         f.clock,
		Instrument:    instrument.NewNoop(),
		Enforcer:      newEnforcer(t),
		Goroutine:     f.manager,
	})

	return f
}

func authCtx(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: golangjwt.RegisteredClaims{Subject: strconv.FormatInt(userID, 10)},
		UserID:           userID,
	})
}

// seedProfile stores a complete profile with the auth token encrypted the way
// SettingsUpdate would store it.
func (f *fixture) seedProfile(t *testing.T, userID int64) {
	t.Helper()

	ciphertext, err := f.encryptor.Encrypt([]byte(testAuthToken), secrets.Scope{
		UserID:  userID,
		Purpose: secrets.PurposeProviderAuthToken,
	})
	if err != nil {
		t.Fatalf("failed to encrypt test token: %v", err)
	}

	f.meta.profiles[userID] = entity.UserFactorProfile{
		AccountSID:     testAccountSID,
		AuthToken:      base64.StdEncoding.EncodeToString(ciphertext),
		SenderNumber:   testSender,
		ReceiverNumber: testReceiver,
	}
}

// issueCode runs the callback issuance path and returns the plaintext code.
func (f *fixture) issueCode(t *testing.T, userID int64) string {
	t.Helper()

	token, err := f.nonce.Issue(context.Background(), nonceAction, userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to issue nonce: %v", err)
	}
	if _, err := f.uc.IssueScript(context.Background(), IssueScriptInput{UserID: userID, Nonce: token}); err != nil {
		t.Fatalf("failed to issue script: %v", err)
	}
	return f.passcode.last
}

func assertBusinessCode(t *testing.T, err error, want goerror.Code) *goerror.Error {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %v", err)
	}
	if gerr.Code() != want {
		t.Fatalf("expected code %s, got %s", want, gerr.Code())
	}
	return gerr
}

func TestSettingsUpdate(t *testing.T) {
	validInput := func(target int64) SettingsUpdateInput {
		return SettingsUpdateInput{
			UserID:         target,
			AccountSID:     testAccountSID,
			AuthToken:      testAuthToken,
			SenderNumber:   testSender,
			ReceiverNumber: testReceiver,
		}
	}

	t.Run("SelfWriteStoresEncryptedToken", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		err := f.uc.SettingsUpdate(authCtx(7), validInput(0))

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stored := f.meta.profiles[7]
		if stored.AccountSID != testAccountSID || stored.SenderNumber != testSender || stored.ReceiverNumber != testReceiver {
			t.Fatalf("unexpected stored profile: %+v", stored)
		}
		if stored.AuthToken == testAuthToken {
			t.Fatal("auth token must not be stored as plaintext")
		}

		ciphertext, err := base64.StdEncoding.DecodeString(stored.AuthToken)
		if err != nil {
			t.Fatalf("stored token is not base64: %v", err)
		}
		plain, err := f.encryptor.Decrypt(ciphertext, secrets.Scope{UserID: 7, Purpose: secrets.PurposeProviderAuthToken})
		if err != nil {
			t.Fatalf("failed to decrypt stored token: %v", err)
		}
		if string(plain) != testAuthToken {
			t.Fatalf("expected decrypted token %q, got %q", testAuthToken, plain)
		}
	})

	t.Run("InvalidInputRejected", func(t *testing.T) {
		f := newFixture(t)

		in := validInput(0)
		in.AccountSID = "not-a-sid"

		if err := f.uc.SettingsUpdate(authCtx(7), in); err == nil {
			t.Fatal("expected validation error for malformed account sid")
		}
		if _, ok := f.meta.profiles[7]; ok {
			t.Fatal("rejected input must not be stored")
		}
	})

	t.Run("InvalidPhoneRejected", func(t *testing.T) {
		f := newFixture(t)

		in := validInput(0)
		in.SenderNumber = "0800123456"

		if err := f.uc.SettingsUpdate(authCtx(7), in); err == nil {
			t.Fatal("expected validation error for non-E.164 number")
		}
	})

	t.Run("UnauthorizedWriteIsSilentNoop", func(t *testing.T) {
		// Arrange: user 7 is not the target and holds no edit grant.
		f := newFixture(t)

		// Act
		err := f.uc.SettingsUpdate(authCtx(7), validInput(8))

		// Assert: no error surfaced, nothing written.
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := f.meta.profiles[8]; ok {
			t.Fatal("unauthorized write must not reach the store")
		}
	})

	t.Run("AdminWritesAnotherUser", func(t *testing.T) {
		f := newFixture(t)

		if err := f.uc.SettingsUpdate(authCtx(9), validInput(8)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stored, ok := f.meta.profiles[8]
		if !ok {
			t.Fatal("expected admin write to be stored")
		}

		// Encryption is scoped to the target user, not the admin.
		ciphertext, _ := base64.StdEncoding.DecodeString(stored.AuthToken)
		if _, err := f.encryptor.Decrypt(ciphertext, secrets.Scope{UserID: 8, Purpose: secrets.PurposeProviderAuthToken}); err != nil {
			t.Fatalf("expected token scoped to target user: %v", err)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		f := newFixture(t)

		err := f.uc.SettingsUpdate(context.Background(), validInput(0))
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestSettingsGet(t *testing.T) {
	t.Run("MasksStoredToken", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedProfile(t, 7)

		// Act
		out, err := f.uc.SettingsGet(authCtx(7), SettingsGetInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.AuthToken != "********" {
			t.Fatalf("expected masked token, got %q", out.AuthToken)
		}
		if out.AccountSID != testAccountSID || !out.Configured {
			t.Fatalf("unexpected output: %+v", out)
		}
	})

	t.Run("UnconfiguredUser", func(t *testing.T) {
		f := newFixture(t)

		out, err := f.uc.SettingsGet(authCtx(7), SettingsGetInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Configured || out.AuthToken != "" || out.AccountSID != "" {
			t.Fatalf("expected empty settings, got %+v", out)
		}
	})

	t.Run("OtherUserForbidden", func(t *testing.T) {
		f := newFixture(t)
		f.seedProfile(t, 8)

		_, err := f.uc.SettingsGet(authCtx(7), SettingsGetInput{UserID: 8})
		assertBusinessCode(t, err, goerror.CodeForbidden)
	})

	t.Run("AdminReadsAnotherUser", func(t *testing.T) {
		f := newFixture(t)
		f.seedProfile(t, 8)

		out, err := f.uc.SettingsGet(authCtx(9), SettingsGetInput{UserID: 8})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.Configured || out.AuthToken != "********" {
			t.Fatalf("unexpected output: %+v", out)
		}
	})
}

func TestAvailability(t *testing.T) {
	t.Run("CompleteProfile", func(t *testing.T) {
		f := newFixture(t)
		f.seedProfile(t, 7)

		out, err := f.uc.Availability(authCtx(7), AvailabilityInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.Available {
			t.Fatal("expected factor to be available")
		}
	})

	t.Run("PartialProfile", func(t *testing.T) {
		f := newFixture(t)
		f.seedProfile(t, 7)
		p := f.meta.profiles[7]
		p.ReceiverNumber = ""
		f.meta.profiles[7] = p

		out, err := f.uc.Availability(authCtx(7), AvailabilityInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Available {
			t.Fatal("expected factor to be unavailable with a missing setting")
		}
	})
}

func TestStartCall(t *testing.T) {
	t.Run("PlacesCallWithCallback", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedProfile(t, 7)

		// Act
		out, err := f.uc.StartCall(authCtx(7))

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.CallID == 0 {
			t.Fatal("expected a call id")
		}

		if len(f.telephony.calls) != 1 {
			t.Fatalf("expected one placed call, got %d", len(f.telephony.calls))
		}
		call := f.telephony.calls[0]
		if call.AccountSID != testAccountSID || call.From != testSender || call.To != testReceiver {
			t.Fatalf("unexpected call request: %+v", call)
		}
		if call.AuthToken != testAuthToken {
			t.Fatalf("expected decrypted auth token, got %q", call.AuthToken)
		}
		if !strings.Contains(call.CallbackURL, "/api/v1/phone-factor/twiml") {
			t.Fatalf("callback url missing twiml path: %q", call.CallbackURL)
		}
		if !strings.Contains(call.CallbackURL, "user=7") || !strings.Contains(call.CallbackURL, "nonce=nonce-1") {
			t.Fatalf("callback url missing user or nonce: %q", call.CallbackURL)
		}

		// Issuance is lazy: accepting the call must not mint a code.
		if _, ok := f.meta.digest(7); ok {
			t.Fatal("no digest may exist before the provider fetches the script")
		}

		if err := f.manager.Wait(); err != nil {
			t.Fatalf("goroutine error: %v", err)
		}
		if len(f.messaging.placed) != 1 || f.messaging.placed[0].UserID != 7 {
			t.Fatalf("expected one call-placed event for user 7, got %+v", f.messaging.placed)
		}
	})

	t.Run("IncompleteProfileForbidden", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.StartCall(authCtx(7))
		gerr := assertBusinessCode(t, err, goerror.CodeForbidden)
		if gerr.Msg() != "Phone factor is not available for this account" {
			t.Fatalf("unexpected message: %q", gerr.Msg())
		}
	})

	t.Run("ProviderRejectionIsGeneric", func(t *testing.T) {
		// Arrange: provider refuses, the caller must see one generic message.
		f := newFixture(t)
		f.seedProfile(t, 7)
		f.telephony.err = telephony.ErrCallRejected

		// Act
		_, err := f.uc.StartCall(authCtx(7))

		// Assert
		gerr := assertBusinessCode(t, err, goerror.CodeInvalidFormat)
		if gerr.Msg() != "An error occurred while calling" {
			t.Fatalf("unexpected message: %q", gerr.Msg())
		}
	})

	t.Run("DuplicateCallThrottled", func(t *testing.T) {
		f := newFixture(t)
		f.seedProfile(t, 7)
		f.idemp.err = idempotency.ErrAlreadyInProgress

		_, err := f.uc.StartCall(authCtx(7))
		assertBusinessCode(t, err, goerror.CodeTooManyRequest)
		if len(f.telephony.calls) != 0 {
			t.Fatal("throttled request must not reach the provider")
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.StartCall(context.Background())
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestIssueScript(t *testing.T) {
	t.Run("SpeaksIntroAndDigits", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		token, _ := f.nonce.Issue(context.Background(), nonceAction, 7, time.Minute)

		// Act
		out, err := f.uc.IssueScript(context.Background(), IssueScriptInput{UserID: 7, Nonce: token})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Voice != "alice" || out.Language != "en-US" {
			t.Fatalf("unexpected voice options: %+v", out)
		}
		want := []string{
			"Your login confirmation code for Veriphone is:",
			"one", "two", "three", "four", "five", "six",
		}
		if len(out.Phrases) != len(want) {
			t.Fatalf("expected %d phrases, got %v", len(want), out.Phrases)
		}
		for i, phrase := range want {
			if out.Phrases[i] != phrase {
				t.Fatalf("phrase %d: expected %q, got %q", i, phrase, out.Phrases[i])
			}
		}

		stored, ok := f.meta.digest(7)
		if !ok {
			t.Fatal("expected a digest to be persisted at issuance")
		}
		if stored.Digest == "123456" {
			t.Fatal("digest must not be the plaintext code")
		}
		if !stored.IssuedAt.Equal(f.clock.now) {
			t.Fatalf("expected issued-at %v, got %v", f.clock.now, stored.IssuedAt)
		}
	})

	t.Run("ConfiguredVoiceOptions", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.strings["modules.phone_factor.say_voice"] = "man"
		f.cfg.strings["modules.phone_factor.say_language"] = "de-DE"
		token, _ := f.nonce.Issue(context.Background(), nonceAction, 7, time.Minute)

		out, err := f.uc.IssueScript(context.Background(), IssueScriptInput{UserID: 7, Nonce: token})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Voice != "man" || out.Language != "de-DE" {
			t.Fatalf("unexpected voice options: %+v", out)
		}
	})

	t.Run("NonceIsSingleUse", func(t *testing.T) {
		f := newFixture(t)
		token, _ := f.nonce.Issue(context.Background(), nonceAction, 7, time.Minute)

		if _, err := f.uc.IssueScript(context.Background(), IssueScriptInput{UserID: 7, Nonce: token}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := f.uc.IssueScript(context.Background(), IssueScriptInput{UserID: 7, Nonce: token})
		if !errors.Is(err, ErrScriptRejected) {
			t.Fatalf("expected ErrScriptRejected on reuse, got %v", err)
		}
	})

	t.Run("WrongNonceRejected", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.nonce.Issue(context.Background(), nonceAction, 7, time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := f.uc.IssueScript(context.Background(), IssueScriptInput{UserID: 7, Nonce: "guessed"})
		if !errors.Is(err, ErrScriptRejected) {
			t.Fatalf("expected ErrScriptRejected, got %v", err)
		}
		if _, ok := f.meta.digest(7); ok {
			t.Fatal("rejected request must not mint a code")
		}
	})

	t.Run("InvalidUserRejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.IssueScript(context.Background(), IssueScriptInput{UserID: 0, Nonce: "anything"})
		if !errors.Is(err, ErrScriptRejected) {
			t.Fatalf("expected ErrScriptRejected, got %v", err)
		}
	})
}

func TestVerify(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		code := f.issueCode(t, 7)

		// Act
		out, err := f.uc.Verify(authCtx(7), VerifyInput{Code: code})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.Matched {
			t.Fatal("expected issued code to verify")
		}

		// A match keeps the digest; the same code verifies again until the
		// next issuance replaces it.
		out, err = f.uc.Verify(authCtx(7), VerifyInput{Code: code})
		if err != nil || !out.Matched {
			t.Fatalf("expected repeat verify to match, got %v %v", out, err)
		}

		if err := f.manager.Wait(); err != nil {
			t.Fatalf("goroutine error: %v", err)
		}
		if len(f.messaging.results) != 2 || !f.messaging.results[0].Matched {
			t.Fatalf("expected matched verification events, got %+v", f.messaging.results)
		}
	})

	t.Run("WrongGuessBurnsTheCode", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		code := f.issueCode(t, 7)
		wrong := "000000"
		if wrong == code {
			wrong = "999999"
		}

		// Act: one wrong guess.
		out, err := f.uc.Verify(authCtx(7), VerifyInput{Code: wrong})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Matched {
			t.Fatal("wrong code must not match")
		}

		// Assert: the digest is gone, so even the right code now fails.
		if _, ok := f.meta.digest(7); ok {
			t.Fatal("mismatch must delete the digest")
		}
		out, err = f.uc.Verify(authCtx(7), VerifyInput{Code: code})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Matched {
			t.Fatal("expected correct code to fail after a wrong guess")
		}
	})

	t.Run("ReissueInvalidatesOldCode", func(t *testing.T) {
		f := newFixture(t)
		first := f.issueCode(t, 7)
		second := f.issueCode(t, 7)
		if first == second {
			t.Fatalf("fixture should mint distinct codes, got %q twice", first)
		}

		out, err := f.uc.Verify(authCtx(7), VerifyInput{Code: first})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Matched {
			t.Fatal("expected the replaced code to fail")
		}
	})

	t.Run("CrossUserIsolation", func(t *testing.T) {
		// Arrange: user 8 somehow obtains user 7's digest row.
		f := newFixture(t)
		code := f.issueCode(t, 7)
		d, _ := f.meta.digest(7)
		f.meta.digests[8] = entity.CodeDigest{Digest: d.Digest, IssuedAt: d.IssuedAt}

		// Act
		out, err := f.uc.Verify(authCtx(8), VerifyInput{Code: code})

		// Assert: the digest input is user-scoped, so it cannot transfer.
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Matched {
			t.Fatal("a digest issued for one user must not verify for another")
		}
	})

	t.Run("NoActiveCode", func(t *testing.T) {
		f := newFixture(t)

		out, err := f.uc.Verify(authCtx(7), VerifyInput{Code: "123456"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Matched {
			t.Fatal("expected no match without an issued code")
		}
	})

	t.Run("ExpiredCode", func(t *testing.T) {
		// Arrange: expiry enabled, clock advanced beyond the ttl.
		f := newFixture(t)
		f.cfg.minutes["modules.phone_factor.code_ttl_minutes"] = 5 * time.Minute
		code := f.issueCode(t, 7)
		f.clock.now = f.clock.now.Add(6 * time.Minute)

		// Act
		out, err := f.uc.Verify(authCtx(7), VerifyInput{Code: code})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Matched {
			t.Fatal("expected stale code to fail")
		}
		if _, ok := f.meta.digest(7); ok {
			t.Fatal("stale digest must be deleted")
		}
	})

	t.Run("MalformedCodeRejected", func(t *testing.T) {
		f := newFixture(t)
		f.issueCode(t, 7)

		if _, err := f.uc.Verify(authCtx(7), VerifyInput{Code: "12"}); err == nil {
			t.Fatal("expected validation error for short code")
		}
		if _, err := f.uc.Verify(authCtx(7), VerifyInput{Code: "abcdef"}); err == nil {
			t.Fatal("expected validation error for non-numeric code")
		}
		// Malformed input never counts as a guess.
		if _, ok := f.meta.digest(7); !ok {
			t.Fatal("validation failure must not burn the digest")
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Verify(context.Background(), VerifyInput{Code: "123456"})
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}

func TestInvalidate(t *testing.T) {
	t.Run("DeletesDigest", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		code := f.issueCode(t, 7)

		// Act
		if err := f.uc.Invalidate(authCtx(7)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Assert
		if _, ok := f.meta.digest(7); ok {
			t.Fatal("expected digest to be deleted")
		}
		out, err := f.uc.Verify(authCtx(7), VerifyInput{Code: code})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Matched {
			t.Fatal("invalidated code must not verify")
		}
	})

	t.Run("NoopWithoutDigest", func(t *testing.T) {
		f := newFixture(t)

		if err := f.uc.Invalidate(authCtx(7)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		f := newFixture(t)

		err := f.uc.Invalidate(context.Background())
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}
