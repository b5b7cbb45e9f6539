package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		user User
		want UserState
	}{
		{"enabled no limits", User{Enabled: true}, UserActive},
		{"disabled wins over expired", User{Enabled: false, ExpiresAt: &past}, UserDisabled},
		{"disabled wins over limited", User{Enabled: false, DataLimit: 10, DataUsed: 20}, UserDisabled},
		{"expired wins over limited", User{Enabled: true, ExpiresAt: &past, DataLimit: 10, DataUsed: 20}, UserExpired},
		{"future expiry still active", User{Enabled: true, ExpiresAt: &future}, UserActive},
		{"usage at limit", User{Enabled: true, DataLimit: 10, DataUsed: 10}, UserLimited},
		{"usage over limit", User{Enabled: true, DataLimit: 10, DataUsed: 11}, UserLimited},
		{"zero limit is unlimited", User{Enabled: true, DataLimit: 0, DataUsed: 1 << 40}, UserActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.Status(now))
		})
	}
}

func TestUserExpiredIgnoresEnabled(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	u := User{Enabled: false, ExpiresAt: &past}
	assert.True(t, u.Expired(now))
	assert.Equal(t, UserDisabled, u.Status(now))
}

func TestProtocolValid(t *testing.T) {
	assert.True(t, ProtocolReality.Valid())
	assert.True(t, ProtocolWSTLS.Valid())
	assert.True(t, ProtocolHysteria2.Valid())
	assert.False(t, Protocol("vmess").Valid())
	assert.False(t, Protocol("").Valid())
}
