package inbound

type SettingsResponse struct {
	AccountSID     string `json:"account_sid" example:"ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"`
	AuthToken      string `json:"auth_token" example:"********"`
	SenderNumber   string `json:"sender_number" example:"+15005550006"`
	ReceiverNumber string `json:"receiver_number" example:"+15551234567"`
	Configured     bool   `json:"configured" example:"true"`
}

type SettingsUpdateRequest struct {
	UserID         int64  `json:"user_id,omitempty" example:"0"`
	AccountSID     string `json:"account_sid" example:"ACxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"`
	AuthToken      string `json:"auth_token" example:"secret-auth-token"`
	SenderNumber   string `json:"sender_number" example:"+15005550006"`
	ReceiverNumber string `json:"receiver_number" example:"+15551234567"`
}

type AvailabilityResponse struct {
	Available bool `json:"available" example:"true"`
}

type StartCallResponse struct {
	CallID int64 `json:"call_id,string" example:"1234567890123456789"`
}

type VerifyRequest struct {
	Code string `json:"code" example:"123456"`
}

type VerifyResponse struct {
	Matched bool `json:"matched" example:"true"`
}
