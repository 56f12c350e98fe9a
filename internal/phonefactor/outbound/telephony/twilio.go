// Package telephony places outbound verification calls through the Twilio
// Voice REST API.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veriphone/veriphone/internal/phonefactor/entity"
	"github.com/veriphone/veriphone/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// DefaultBaseURL is the production Twilio API origin.
const DefaultBaseURL = "https://api.twilio.com"

// ErrCallRejected is returned when the provider refuses the call request
// (bad credentials, malformed number, anything non-2xx). Callers must not
// surface provider detail to the end user.
var ErrCallRejected = errors.New("telephony: call rejected by provider")

// Twilio is a Caller backed by the Twilio Voice REST API.
type Twilio struct {
	baseURL string
	client  *http.Client
	ins     instrument.Instrumentation
}

// Config configures the Twilio client.
type Config struct {
	// BaseURL overrides the API origin, mainly for tests.
	BaseURL string
	// Timeout bounds a single call-placement request.
	Timeout time.Duration
}

// NewTwilio constructs a Twilio client.
func NewTwilio(cfg Config, ins instrument.Instrumentation) *Twilio {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Twilio{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		ins:     ins,
	}
}

// Call asks Twilio to place a call and fetch spoken instructions from the
// callback URL once connected. Fire-and-forget: acceptance of the request is
// the only outcome reported.
func (t *Twilio) Call(ctx context.Context, req entity.CallRequest) (err error) {
	ctx, span := t.ins.Tracer("phonefactor.outbound.telephony").Start(ctx, "Call")
	defer func() {
		if err != nil && !errors.Is(err, ErrCallRejected) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", t.baseURL, url.PathEscape(req.AccountSID))

	form := url.Values{}
	form.Set("From", req.From)
	form.Set("To", req.To)
	form.Set("Url", req.CallbackURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telephony: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(req.AccountSID, req.AuthToken)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("telephony: send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		span.SetStatus(codes.Error, resp.Status)
		return ErrCallRejected
	}

	return nil
}
