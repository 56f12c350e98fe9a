package secrets

import (
	"bytes"
	"errors"
	"testing"
)

func testEncryptor() *AESGCMEncryptor {
	key := bytes.Repeat([]byte{0xA5}, 32)
	return NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: key})
}

func TestAESGCMEncryptor(t *testing.T) {
	scope := Scope{UserID: 42, Purpose: PurposeProviderAuthToken}

	t.Run("RoundTrip", func(t *testing.T) {
		// Arrange
		enc := testEncryptor()
		plain := []byte("twilio-auth-token-value")

		// Act
		ciphertext, err := enc.Encrypt(plain, scope)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		got, err := enc.Decrypt(ciphertext, scope)

		// Assert
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if !bytes.Equal(got, plain) {
			t.Fatalf("expected %q, got %q", plain, got)
		}
		if bytes.Contains(ciphertext, plain) {
			t.Fatal("ciphertext must not contain the plaintext")
		}
	})

	t.Run("WrongUserScope", func(t *testing.T) {
		enc := testEncryptor()
		ciphertext, _ := enc.Encrypt([]byte("secret"), scope)

		_, err := enc.Decrypt(ciphertext, Scope{UserID: 43, Purpose: PurposeProviderAuthToken})
		if !errors.Is(err, ErrDecryptFailed) {
			t.Fatalf("expected ErrDecryptFailed for another user's scope, got %v", err)
		}
	})

	t.Run("WrongPurposeScope", func(t *testing.T) {
		enc := testEncryptor()
		ciphertext, _ := enc.Encrypt([]byte("secret"), scope)

		_, err := enc.Decrypt(ciphertext, Scope{UserID: 42, Purpose: Purpose("something_else")})
		if !errors.Is(err, ErrDecryptFailed) {
			t.Fatalf("expected ErrDecryptFailed for a different purpose, got %v", err)
		}
	})

	t.Run("TamperedCiphertext", func(t *testing.T) {
		enc := testEncryptor()
		ciphertext, _ := enc.Encrypt([]byte("secret"), scope)
		ciphertext[len(ciphertext)-1] ^= 0xFF

		_, err := enc.Decrypt(ciphertext, scope)
		if !errors.Is(err, ErrDecryptFailed) {
			t.Fatalf("expected ErrDecryptFailed for tampered ciphertext, got %v", err)
		}
	})

	t.Run("TruncatedCiphertext", func(t *testing.T) {
		enc := testEncryptor()

		_, err := enc.Decrypt([]byte{0x00, 0x01, 0x02}, scope)
		if !errors.Is(err, ErrCiphertextTooShort) {
			t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
		}
	})

	t.Run("EmptyPlaintext", func(t *testing.T) {
		enc := testEncryptor()

		_, err := enc.Encrypt(nil, scope)
		if !errors.Is(err, ErrPlaintextEmpty) {
			t.Fatalf("expected ErrPlaintextEmpty, got %v", err)
		}
	})

	t.Run("InvalidKeyLength", func(t *testing.T) {
		enc := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: []byte("short-key")})

		_, err := enc.Encrypt([]byte("secret"), scope)
		if !errors.Is(err, ErrInvalidKeyLength) {
			t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		enc := NewAESGCMEncryptor(StaticKeyProvider{})

		_, err := enc.Encrypt([]byte("secret"), scope)
		if !errors.Is(err, ErrMissingStaticKey) {
			t.Fatalf("expected ErrMissingStaticKey, got %v", err)
		}
	})

	t.Run("NonceVaries", func(t *testing.T) {
		enc := testEncryptor()
		a, _ := enc.Encrypt([]byte("secret"), scope)
		b, _ := enc.Encrypt([]byte("secret"), scope)
		if bytes.Equal(a, b) {
			t.Fatal("two encryptions of the same plaintext must not repeat")
		}
	})
}
