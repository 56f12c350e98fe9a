package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/veriphone/veriphone/internal/pkg/goerror"
)

// ErrScriptRejected signals that the script request failed its nonce or user
// check. The endpoint must reject silently, so this carries no detail.
var ErrScriptRejected = errors.New("usecase: script request rejected")

var digitWords = map[rune]string{
	'0': "zero",
	'1': "one",
	'2': "two",
	'3': "three",
	'4': "four",
	'5': "five",
	'6': "six",
	'7': "seven",
	'8': "eight",
	'9': "nine",
}

type (
	IssueScriptInput struct {
		UserID int64
		Nonce  string
	}

	// IssueScriptOutput is the spoken script: the intro phrase followed by
	// one word per code digit, with the voice options to speak them in.
	IssueScriptOutput struct {
		Phrases  []string
		Voice    string
		Language string
	}
)

// IssueScript is the callback contract behind the TwiML endpoint. It consumes
// the single-use nonce, mints the verification code (this is the actual
// moment of issuance, not call placement), and returns the script the
// provider should speak.
func (s *Usecase) IssueScript(ctx context.Context, in IssueScriptInput) (*IssueScriptOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueScript")
	defer span.End()

	if in.UserID <= 0 {
		return nil, ErrScriptRejected
	}

	ok, err := s.nonce.Consume(ctx, nonceAction, in.UserID, in.Nonce)
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume callback nonce", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "callback nonce rejected", "user_id", in.UserID)
		return nil, ErrScriptRejected
	}

	code, err := s.issue(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	intro := fmt.Sprintf("Your login confirmation code for %s is:", s.cfg.GetString("app.site_name"))
	words := lo.Map([]rune(code), func(digit rune, _ int) string {
		return digitWords[digit]
	})

	voice := s.cfg.GetString("modules.phone_factor.say_voice")
	if voice == "" {
		voice = "alice"
	}
	language := s.cfg.GetString("modules.phone_factor.say_language")
	if language == "" {
		language = "en-US"
	}

	return &IssueScriptOutput{
		Phrases:  append([]string{intro}, words...),
		Voice:    voice,
		Language: language,
	}, nil
}

// issue mints a fresh plaintext code and persists its digest, overwriting any
// previous one (last write wins; the older code becomes unverifiable).
func (s *Usecase) issue(ctx context.Context, userID int64) (string, error) {
	code := s.passcode.Generate()

	digest, err := s.codeDigest(userID, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest code", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	if err := s.repoMeta.SetCodeDigest(ctx, userID, digest, s.clock.Now()); err != nil {
		slog.ErrorContext(ctx, "failed to store code digest", "user_id", userID, "error", err)
		return "", goerror.NewServer(err)
	}

	return code, nil
}
