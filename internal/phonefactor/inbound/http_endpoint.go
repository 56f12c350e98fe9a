package inbound

import (
	"github.com/veriphone/veriphone/internal/phonefactor/usecase"
	"github.com/veriphone/veriphone/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the phone verification factor.
type HTTPEndpoint struct {
	uc uc
}

// SettingsGet returns the caller's call-routing settings with the auth token masked.
// @Summary Get phone factor settings
// @Description Returns account SID, masked auth token, sender and receiver numbers. Admins with edit rights may pass user_id to read another user's settings.
// @Tags PhoneFactor, Settings
// @Produce json
// @Param user_id query int false "Target user ID (admins only)"
// @Success 200 {object} router.successResponse{data=SettingsResponse} "Current settings"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Not allowed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/phone-factor/settings [get]
func (h *HTTPEndpoint) SettingsGet(r *router.Request) (any, error) {
	userID, err := r.GetQueryInt64("user_id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.SettingsGet(r.Context(), usecase.SettingsGetInput{UserID: userID})
	if err != nil {
		return nil, err
	}

	return SettingsResponse{
		AccountSID:     resp.AccountSID,
		AuthToken:      resp.AuthToken,
		SenderNumber:   resp.SenderNumber,
		ReceiverNumber: resp.ReceiverNumber,
		Configured:     resp.Configured,
	}, nil
}

// SettingsUpdate replaces the call-routing settings.
// @Summary Update phone factor settings
// @Description Replaces all four call-routing settings. An unauthorized write to another user's settings is silently ignored.
// @Tags PhoneFactor, Settings
// @Accept json
// @Produce json
// @Param request body SettingsUpdateRequest true "Settings payload"
// @Success 204 "Settings accepted"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/phone-factor/settings [put]
func (h *HTTPEndpoint) SettingsUpdate(r *router.Request) (any, error) {
	var req SettingsUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.SettingsUpdate(r.Context(), usecase.SettingsUpdateInput{
		UserID:         req.UserID,
		AccountSID:     req.AccountSID,
		AuthToken:      req.AuthToken,
		SenderNumber:   req.SenderNumber,
		ReceiverNumber: req.ReceiverNumber,
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

// Availability reports whether the phone factor is usable for the user.
// @Summary Phone factor availability
// @Description The factor is available iff all four call-routing settings are present.
// @Tags PhoneFactor
// @Produce json
// @Param user_id query int false "Target user ID (admins only)"
// @Success 200 {object} router.successResponse{data=AvailabilityResponse} "Availability"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Not allowed"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/phone-factor/availability [get]
func (h *HTTPEndpoint) Availability(r *router.Request) (any, error) {
	userID, err := r.GetQueryInt64("user_id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Availability(r.Context(), usecase.AvailabilityInput{UserID: userID})
	if err != nil {
		return nil, err
	}

	return AvailabilityResponse{Available: resp.Available}, nil
}

// StartCall places a verification call to the caller's configured number.
// @Summary Start verification call
// @Description Asks the telephony provider to call the configured number. The code is minted when the provider fetches the spoken script, not here.
// @Tags PhoneFactor, Verification
// @Produce json
// @Success 200 {object} router.successResponse{data=StartCallResponse} "Call accepted"
// @Failure 400 {object} router.errorResponse "Provider rejected the call"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Factor not configured"
// @Failure 429 {object} router.errorResponse "Call already in progress"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/phone-factor/call [post]
func (h *HTTPEndpoint) StartCall(r *router.Request) (any, error) {
	resp, err := h.uc.StartCall(r.Context())
	if err != nil {
		return nil, err
	}

	return StartCallResponse{CallID: resp.CallID}, nil
}

// Verify checks the submitted code against the stored digest.
// @Summary Verify code
// @Description Compares the submitted code with the stored digest. A mismatch invalidates the active code.
// @Tags PhoneFactor, Verification
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Code payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verification outcome"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/phone-factor/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Matched: resp.Matched}, nil
}

// Invalidate deletes the caller's active code digest.
// @Summary Invalidate active code
// @Description Explicitly deletes the stored code digest. Deleting an absent digest is a no-op.
// @Tags PhoneFactor, Verification
// @Success 204 "Code invalidated"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/phone-factor/code [delete]
func (h *HTTPEndpoint) Invalidate(r *router.Request) (any, error) {
	if err := h.uc.Invalidate(r.Context()); err != nil {
		return nil, err
	}

	return nil, nil
}
