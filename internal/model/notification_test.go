package model

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestNotificationID(t *testing.T) {
	assert.Equal(t, "u1_b1_approved", NotificationID("u1", "b1", "approved"))
	assert.Equal(t, "admin_req9_scheme_request", NotificationID("admin", "req9", "scheme_request"))

	// The same transition always maps to the same id, that is what makes
	// the fan-out upserts collapse.
	assert.Equal(t,
		NotificationID("u1", "b1", "rejected"),
		NotificationID("u1", "b1", "rejected"))

	// Different decisions on the same entity must not collide.
	assert.NotEqual(t,
		NotificationID("u1", "b1", "approved"),
		NotificationID("u1", "b1", "rejected"))
}
