package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingReservation(t *testing.T) *Reservation {
	t.Helper()
	r, err := NewReservation(uuid.New(), uuid.New(), 5, 5000)
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	r := pendingReservation(t)
	assert.Equal(t, ReservationPending, r.Status)
	assert.Equal(t, 25000.0, r.TotalAmount)
	assert.Nil(t, r.DecidedAt)
	assert.False(t, r.Terminal())
}

func TestNewReservation_Validation(t *testing.T) {
	_, err := NewReservation(uuid.New(), uuid.New(), 0, 5000)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewReservation(uuid.New(), uuid.New(), 3, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestApplyDecision_FromPending(t *testing.T) {
	now := time.Now()

	cases := []struct {
		decision Decision
		want     ReservationStatus
	}{
		{DecisionApprove, ReservationApproved},
		{DecisionReject, ReservationRejected},
		{DecisionCancel, ReservationCancelled},
	}
	for _, tc := range cases {
		r := pendingReservation(t)
		require.NoError(t, r.ApplyDecision(tc.decision, now))
		assert.Equal(t, tc.want, r.Status)
		assert.True(t, r.Terminal())
		require.NotNil(t, r.DecidedAt)
		assert.Equal(t, now, *r.DecidedAt)
	}
}

// Every (state, event) pair outside the transition table must fail; terminal
// states accept nothing.
func TestApplyDecision_Totality(t *testing.T) {
	now := time.Now()
	terminals := []Decision{DecisionApprove, DecisionReject, DecisionCancel}
	events := append(terminals, Decision("settle"), Decision(""))

	for _, first := range terminals {
		r := pendingReservation(t)
		require.NoError(t, r.ApplyDecision(first, now))
		vBefore := r.Version
		statusBefore := r.Status

		for _, ev := range events {
			err := r.ApplyDecision(ev, now)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s then %s", first, ev)
			assert.Equal(t, statusBefore, r.Status)
			assert.Equal(t, vBefore, r.Version)
		}
	}
}

func TestApplyDecision_UnknownEventFromPending(t *testing.T) {
	r := pendingReservation(t)
	err := r.ApplyDecision(Decision("settle"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ReservationPending, r.Status)
}

func TestTotalAmount_RoundsToCents(t *testing.T) {
	r, err := NewReservation(uuid.New(), uuid.New(), 3, 1033.335)
	require.NoError(t, err)
	assert.Equal(t, 3100.01, r.TotalAmount)
}
