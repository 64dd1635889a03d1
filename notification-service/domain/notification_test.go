package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification_Transitions(t *testing.T) {
	n, err := NewNotification("order-1", "customer-1", NotificationTypeOrderCreated, "customer@example.com", "Order Created - order-1", "body")
	require.NoError(t, err)
	assert.Equal(t, NotificationStatusPending, n.Status)
	assert.False(t, n.IsTerminal())

	require.NoError(t, n.MarkSent())
	assert.Equal(t, 2, n.Version.Value)
	assert.False(t, n.SentAt.IsZero())

	assert.ErrorIs(t, n.MarkFailed("late"), ErrNotificationFinalized)
	assert.ErrorIs(t, n.MarkSent(), ErrNotificationFinalized)

	failed, err := NewNotification("order-1", "", NotificationTypePaymentFailed, "customer@example.com", "s", "b")
	require.NoError(t, err)
	require.NoError(t, failed.MarkFailed("smtp: 550 mailbox unavailable"))
	assert.True(t, failed.SentAt.IsZero())
	assert.Equal(t, "smtp: 550 mailbox unavailable", failed.FailureReason)

	_, err = NewNotification("", "", NotificationTypeOrderCreated, "", "", "")
	assert.Error(t, err)
}
