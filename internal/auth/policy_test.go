package auth

import (
	"context"
	"errors"
	"testing"

	"referral-ledger-go/internal/api"
)

type fakeChecker struct {
	barred map[int64]bool
	err    error
}

func (f fakeChecker) IsBlacklisted(_ context.Context, userId int64) (bool, error) {
	return f.barred[userId], f.err
}

func TestAdminPolicy(t *testing.T) {
	p := NewAdminPolicy([]int64{30, 10, 20, 10})

	if !p.IsAdmin(10) || !p.IsAdmin(30) {
		t.Errorf("Expected allowlisted ids to be admins")
	}
	if p.IsAdmin(40) {
		t.Errorf("Did not expect 40 to be an admin")
	}
	if got := p.Admins(); len(got) != 3 || got[0] != 10 || got[2] != 30 {
		t.Errorf("Unexpected admin list %v", got)
	}

	empty := NewAdminPolicy(nil)
	if empty.IsAdmin(0) {
		t.Errorf("Expected empty policy to deny everyone")
	}
}

func TestGate_Allow(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(fakeChecker{barred: map[int64]bool{2: true}})

	if err := gate.Allow(ctx, 1); err != nil {
		t.Errorf("Expected user 1 to pass, got %v", err)
	}
	if err := gate.Allow(ctx, 2); !errors.Is(err, api.ErrBlacklisted) {
		t.Errorf("Expected ErrBlacklisted, got %v", err)
	}

	failing := NewGate(fakeChecker{err: errors.New("db down")})
	if err := failing.Allow(ctx, 1); err == nil || errors.Is(err, api.ErrBlacklisted) {
		t.Errorf("Expected lookup failure to surface, got %v", err)
	}
}

func TestTokenMatches(t *testing.T) {
	tests := []struct {
		name      string
		expected  string
		presented string
		want      bool
	}{
		{"match", "secret", "secret", true},
		{"mismatch", "secret", "other", false},
		{"empty configured", "", "", false},
		{"empty presented", "secret", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenMatches(tt.expected, tt.presented); got != tt.want {
				t.Errorf("TokenMatches() = %v, want %v", got, tt.want)
			}
		})
	}
}
