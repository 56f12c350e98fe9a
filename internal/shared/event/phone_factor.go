package event

const CallPlacedDestination string = "phone_factor_call_placed"
const VerificationResultDestination string = "phone_factor_verification_result"

type CallPlacedMessage struct {
	CallID         int64  `json:"call_id"`
	UserID         int64  `json:"user_id"`
	SenderNumber   string `json:"sender_number"`
	ReceiverNumber string `json:"receiver_number"`
}

type VerificationResultMessage struct {
	UserID  int64 `json:"user_id"`
	Matched bool  `json:"matched"`
}
