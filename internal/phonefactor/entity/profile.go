package entity

// UserFactorProfile holds the per-user call-routing settings needed to place
// a verification call. Fields are individually optional; absence is an empty
// string, not an error.
type UserFactorProfile struct {
	UserID         int64
	AccountSID     string
	AuthToken      string // plaintext only in memory; encrypted at rest
	SenderNumber   string
	ReceiverNumber string
}

// Complete reports whether all four call-routing fields are set.
// Completeness gates availability of the phone factor for the user.
func (p UserFactorProfile) Complete() bool {
	return p.AccountSID != "" && p.AuthToken != "" && p.SenderNumber != "" && p.ReceiverNumber != ""
}

// ProfilePatch carries a settings update. Empty fields are written as-is;
// a patch always replaces all four values.
type ProfilePatch struct {
	AccountSID     string
	AuthToken      string // already encrypted by the caller
	SenderNumber   string
	ReceiverNumber string
}

// CallRequest is what the telephony transport needs to place one call.
type CallRequest struct {
	AccountSID  string
	AuthToken   string
	From        string
	To          string
	CallbackURL string
}
