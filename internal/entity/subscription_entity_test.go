package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSubscriptionStatus(t *testing.T) {
	cases := []struct {
		from    SubscriptionStatus
		event   SubscriptionEvent
		want    SubscriptionStatus
		wantErr bool
	}{
		{SubscriptionStatusPendingApproval, SubscriptionEventApproved, SubscriptionStatusApprovedButUnsubscribed, false},
		{SubscriptionStatusApprovedButUnsubscribed, SubscriptionEventApproved, SubscriptionStatusApprovedButUnsubscribed, false},
		{SubscriptionStatusExpired, SubscriptionEventApproved, SubscriptionStatusApprovedButUnsubscribed, false},
		{SubscriptionStatusActive, SubscriptionEventApproved, SubscriptionStatusApprovedButUnsubscribed, false},
		{SubscriptionStatusApprovedButUnsubscribed, SubscriptionEventCheckoutStarted, SubscriptionStatusApprovedButUnsubscribed, false},
		{SubscriptionStatusExpired, SubscriptionEventCheckoutStarted, SubscriptionStatusApprovedButUnsubscribed, false},
		{SubscriptionStatusPendingApproval, SubscriptionEventCheckoutStarted, "", true},
		{SubscriptionStatusActive, SubscriptionEventCheckoutStarted, "", true},
		{SubscriptionStatusApprovedButUnsubscribed, SubscriptionEventCheckoutCompleted, SubscriptionStatusActive, false},
		{SubscriptionStatusExpired, SubscriptionEventCheckoutCompleted, SubscriptionStatusActive, false},
		{SubscriptionStatusPendingApproval, SubscriptionEventCheckoutCompleted, "", true},
		{SubscriptionStatusActive, SubscriptionEventPeriodElapsed, SubscriptionStatusExpired, false},
		{SubscriptionStatusExpired, SubscriptionEventPeriodElapsed, "", true},
		{SubscriptionStatus("active"), SubscriptionEventApproved, "", true},
		{SubscriptionStatusActive, SubscriptionEvent("refund"), "", true},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.event), func(t *testing.T) {
			got, err := NextSubscriptionStatus(tc.from, tc.event)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDemoteIfExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("active with past end date is demoted", func(t *testing.T) {
		u := &User{SubscriptionStatus: SubscriptionStatusActive, SubscriptionEndDate: &past}
		assert.True(t, u.DemoteIfExpired(now))
		assert.Equal(t, SubscriptionStatusExpired, u.SubscriptionStatus)
		assert.Equal(t, past, *u.SubscriptionEndDate)
	})

	t.Run("end date equal to now is demoted", func(t *testing.T) {
		end := now
		u := &User{SubscriptionStatus: SubscriptionStatusActive, SubscriptionEndDate: &end}
		assert.True(t, u.DemoteIfExpired(now))
	})

	t.Run("active without end date is demoted", func(t *testing.T) {
		u := &User{SubscriptionStatus: SubscriptionStatusActive}
		assert.True(t, u.DemoteIfExpired(now))
	})

	t.Run("active with future end date is kept", func(t *testing.T) {
		u := &User{SubscriptionStatus: SubscriptionStatusActive, SubscriptionEndDate: &future}
		assert.False(t, u.DemoteIfExpired(now))
		assert.Equal(t, SubscriptionStatusActive, u.SubscriptionStatus)
	})

	t.Run("non active is untouched", func(t *testing.T) {
		u := &User{SubscriptionStatus: SubscriptionStatusApprovedButUnsubscribed, SubscriptionEndDate: &past}
		assert.False(t, u.DemoteIfExpired(now))
		assert.Equal(t, SubscriptionStatusApprovedButUnsubscribed, u.SubscriptionStatus)
	})

	t.Run("is idempotent", func(t *testing.T) {
		u := &User{SubscriptionStatus: SubscriptionStatusActive, SubscriptionEndDate: &past}
		assert.True(t, u.DemoteIfExpired(now))
		assert.False(t, u.DemoteIfExpired(now))
	})
}

func TestDemoteExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	stale := &User{SubscriptionStatus: SubscriptionStatusActive, SubscriptionEndDate: &past}
	live := &User{SubscriptionStatus: SubscriptionStatusActive, SubscriptionEndDate: &future}
	pending := &User{SubscriptionStatus: SubscriptionStatusPendingApproval}

	demoted := DemoteExpired([]*User{stale, live, nil, pending}, now)

	require.Len(t, demoted, 1)
	assert.Same(t, stale, demoted[0])
	assert.Equal(t, SubscriptionStatusActive, live.SubscriptionStatus)
}

func TestIsListable(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)

	listable := func() *User {
		return &User{
			Role:                UserRoleServiceProvider,
			VerificationStatus:  VerificationStatusApproved,
			IsVerified:          true,
			SubscriptionStatus:  SubscriptionStatusActive,
			SubscriptionEndDate: &future,
		}
	}

	assert.True(t, listable().IsListable(now))

	blocked := listable()
	blocked.IsBlocked = true
	assert.False(t, blocked.IsListable(now))

	pending := listable()
	pending.VerificationStatus = VerificationStatusPending
	assert.False(t, pending.IsListable(now))

	unverified := listable()
	unverified.IsVerified = false
	assert.False(t, unverified.IsListable(now))

	expired := listable()
	assert.False(t, expired.IsListable(future.Add(time.Second)))

	admin := listable()
	admin.Role = UserRoleAdmin
	assert.False(t, admin.IsListable(now))
}

func TestEnumStorageBoundary(t *testing.T) {
	_, err := SubscriptionStatus("active").Value()
	assert.ErrorIs(t, err, ErrInvalidEnumValue)

	v, err := SubscriptionStatusExpired.Value()
	require.NoError(t, err)
	assert.Equal(t, "EXPIRED", v)

	var s SubscriptionStatus
	assert.ErrorIs(t, s.Scan("bogus"), ErrInvalidEnumValue)
	require.NoError(t, s.Scan([]byte("ACTIVE")))
	assert.Equal(t, SubscriptionStatusActive, s)

	var p PaymentStatus
	assert.ErrorIs(t, p.Scan(nil), ErrInvalidEnumValue)
	require.NoError(t, p.Scan("paid"))
	assert.Equal(t, PaymentStatusPaid, p)

	_, err = ParseVerificationStatus("blocked")
	assert.ErrorIs(t, err, ErrInvalidEnumValue)

	role, err := ParseUserRole("service_provider")
	require.NoError(t, err)
	assert.Equal(t, UserRoleServiceProvider, role)
}

func TestNewProviderDefaults(t *testing.T) {
	p := NewProvider("p@example.com", "Pat")
	assert.Equal(t, UserRoleServiceProvider, p.Role)
	assert.Equal(t, VerificationStatusPending, p.VerificationStatus)
	assert.False(t, p.IsVerified)
	assert.Equal(t, SubscriptionStatusPendingApproval, p.SubscriptionStatus)
	assert.Nil(t, p.SubscriptionStartDate)
	assert.Nil(t, p.SubscriptionEndDate)
}
