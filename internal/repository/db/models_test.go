package db

import (
	"testing"
	"time"
)

func TestSession_IsValid(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{
			name:    "active and unexpired",
			session: Session{ExpiresAt: now.Add(time.Hour)},
			want:    true,
		},
		{
			name:    "expired but not revoked",
			session: Session{ExpiresAt: now.Add(-time.Second)},
			want:    false,
		},
		{
			name:    "expires exactly now",
			session: Session{ExpiresAt: now},
			want:    false,
		},
		{
			name:    "revoked before expiry",
			session: Session{ExpiresAt: now.Add(29 * 24 * time.Hour), Revoked: true},
			want:    false,
		},
		{
			name:    "revoked and expired",
			session: Session{ExpiresAt: now.Add(-time.Hour), Revoked: true},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsValid(now); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}
