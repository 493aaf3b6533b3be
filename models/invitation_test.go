package models

import (
	"testing"
	"time"
)

func ptrInt(n int) *int { return &n }

func TestInvitationCodeUsable_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(time.Hour)
	code := InvitationCode{
		IsActive:  true,
		ExpiresAt: &expires,
	}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one minute before expiry", issued.Add(59 * time.Minute), true},
		{"exactly at expiry", expires, false},
		{"one minute after expiry", issued.Add(61 * time.Minute), false},
	}
	for _, tc := range cases {
		if got := code.Usable(tc.now); got != tc.want {
			t.Errorf("%s: Usable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestInvitationCodeUsable_NoExpiry(t *testing.T) {
	code := InvitationCode{IsActive: true}
	if !code.Usable(time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("code without expiry must stay usable")
	}
}

func TestInvitationCodeUsable_OtherAxes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	revoked := InvitationCode{IsActive: false}
	if revoked.Usable(now) {
		t.Error("revoked code must not be usable")
	}

	exhausted := InvitationCode{IsActive: true, MaxUses: ptrInt(3), UsedCount: 3}
	if exhausted.Usable(now) {
		t.Error("exhausted code must not be usable")
	}

	remaining := InvitationCode{IsActive: true, MaxUses: ptrInt(3), UsedCount: 2}
	if !remaining.Usable(now) {
		t.Error("code with budget remaining must be usable")
	}
}
