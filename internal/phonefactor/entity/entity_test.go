package entity

import (
	"testing"
	"time"
)

func TestUserFactorProfileComplete(t *testing.T) {
	full := UserFactorProfile{
		UserID:         1,
		AccountSID:     "AC00000000000000000000000000000000",
		AuthToken:      "token",
		SenderNumber:   "+15005550006",
		ReceiverNumber: "+15005550010",
	}

	if !full.Complete() {
		t.Fatal("expected profile with all four settings to be complete")
	}

	tests := []struct {
		name   string
		mutate func(p *UserFactorProfile)
	}{
		{"MissingAccountSID", func(p *UserFactorProfile) { p.AccountSID = "" }},
		{"MissingAuthToken", func(p *UserFactorProfile) { p.AuthToken = "" }},
		{"MissingSenderNumber", func(p *UserFactorProfile) { p.SenderNumber = "" }},
		{"MissingReceiverNumber", func(p *UserFactorProfile) { p.ReceiverNumber = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := full
			tc.mutate(&p)
			if p.Complete() {
				t.Fatal("expected profile to be incomplete")
			}
		})
	}
}

func TestCodeDigestAbsent(t *testing.T) {
	if !(CodeDigest{}).Absent() {
		t.Fatal("expected empty digest to be absent")
	}
	if (CodeDigest{Digest: "abc"}).Absent() {
		t.Fatal("expected non-empty digest to be present")
	}
}

func TestCodeDigestStale(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("ZeroTTLNeverExpires", func(t *testing.T) {
		c := CodeDigest{Digest: "abc", IssuedAt: now.Add(-24 * time.Hour)}
		if c.Stale(now, 0) {
			t.Fatal("zero ttl must disable expiry")
		}
	})

	t.Run("ZeroIssuedAtNeverExpires", func(t *testing.T) {
		// Digests written before issued-at tracking have no timestamp.
		c := CodeDigest{Digest: "abc"}
		if c.Stale(now, time.Minute) {
			t.Fatal("missing issued-at must disable expiry")
		}
	})

	t.Run("WithinTTL", func(t *testing.T) {
		c := CodeDigest{Digest: "abc", IssuedAt: now.Add(-5 * time.Minute)}
		if c.Stale(now, 10*time.Minute) {
			t.Fatal("expected digest inside ttl to be fresh")
		}
	})

	t.Run("BeyondTTL", func(t *testing.T) {
		c := CodeDigest{Digest: "abc", IssuedAt: now.Add(-11 * time.Minute)}
		if !c.Stale(now, 10*time.Minute) {
			t.Fatal("expected digest beyond ttl to be stale")
		}
	})
}
