package inbound

import (
	"context"

	"github.com/veriphone/veriphone/internal/phonefactor/usecase"
	"github.com/veriphone/veriphone/internal/pkg/router"
)

type uc interface {
	SettingsGet(ctx context.Context, in usecase.SettingsGetInput) (*usecase.SettingsGetOutput, error)
	SettingsUpdate(ctx context.Context, in usecase.SettingsUpdateInput) error
	Availability(ctx context.Context, in usecase.AvailabilityInput) (*usecase.AvailabilityOutput, error)

	StartCall(ctx context.Context) (*usecase.StartCallOutput, error)
	IssueScript(ctx context.Context, in usecase.IssueScriptInput) (*usecase.IssueScriptOutput, error)

	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Invalidate(ctx context.Context) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Settings (need authenticated; editing another user needs authorization)
	r.GET("/api/v1/phone-factor/settings", end.SettingsGet)
	r.PUT("/api/v1/phone-factor/settings", end.SettingsUpdate)
	r.GET("/api/v1/phone-factor/availability", end.Availability)

	// Verification flow (need authenticated)
	r.POST("/api/v1/phone-factor/call", end.StartCall)
	r.POST("/api/v1/phone-factor/verify", end.Verify)
	r.DELETE("/api/v1/phone-factor/code", end.Invalidate)

	// Provider callback: no session, gated by the single-use nonce.
	// Twilio fetches TwiML with POST by default but can be told to GET.
	r.GETRaw("/api/v1/phone-factor/twiml", end.TwiML())
	r.POSTRaw("/api/v1/phone-factor/twiml", end.TwiML())
}
