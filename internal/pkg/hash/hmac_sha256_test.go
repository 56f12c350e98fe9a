package hash

import (
	"encoding/hex"
	"testing"
)

func TestHMACSHA256(t *testing.T) {
	hasher := NewHMACSHA256("unit-test-secret")

	t.Run("DigestIsNotPlaintext", func(t *testing.T) {
		// Arrange
		plain := "123456"

		// Act
		digest, err := hasher.Hash(plain)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(digest) == plain {
			t.Fatal("digest must not equal the plaintext")
		}
		if _, err := hex.DecodeString(string(digest)); err != nil {
			t.Fatalf("expected hex-encoded digest, got %q", digest)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		a, _ := hasher.Hash("42:123456")
		b, _ := hasher.Hash("42:123456")
		if string(a) != string(b) {
			t.Fatal("same input must produce the same digest")
		}
	})

	t.Run("VerifyMatch", func(t *testing.T) {
		digest, _ := hasher.Hash("42:123456")
		if !hasher.Verify(string(digest), "42:123456") {
			t.Fatal("expected verify to succeed for matching input")
		}
	})

	t.Run("VerifyMismatch", func(t *testing.T) {
		digest, _ := hasher.Hash("42:123456")
		if hasher.Verify(string(digest), "42:654321") {
			t.Fatal("expected verify to fail for different input")
		}
	})

	t.Run("SecretChangesDigest", func(t *testing.T) {
		other := NewHMACSHA256("another-secret")
		a, _ := hasher.Hash("42:123456")
		b, _ := other.Hash("42:123456")
		if string(a) == string(b) {
			t.Fatal("different secrets must produce different digests")
		}
	})
}
