package secrets

// Purpose identifies what a ciphertext protects.
type Purpose string

// PurposeProviderAuthToken scopes encryption to telephony auth credentials.
const PurposeProviderAuthToken Purpose = "provider_auth_token"

// Scope binds a ciphertext to the user and purpose it was produced for.
// It is used as AAD (Additional Authenticated Data) in AES-GCM, so a value
// encrypted for one user can never decrypt for another.
type Scope struct {
	// UserID is the user identifier for scoping.
	UserID int64
	// Purpose is the encryption purpose.
	Purpose Purpose
}
