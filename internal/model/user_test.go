package model

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestParseUserRole(t *testing.T) {
	r, err := ParseUserRole("admin")
	assert.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseUserRole("User")
	assert.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseUserRole("superuser")
	assert.Error(t, err)
}

func TestParseUserStatus(t *testing.T) {
	s, err := ParseUserStatus("active")
	assert.NoError(t, err)
	assert.Equal(t, UserActive, s)

	s, err = ParseUserStatus(" BLOCKED ")
	assert.NoError(t, err)
	assert.Equal(t, UserBlocked, s)

	_, err = ParseUserStatus("suspended")
	assert.Error(t, err)
}

func TestUserBlocked(t *testing.T) {
	assert.True(t, User{Status: UserBlocked}.Blocked())
	assert.False(t, User{Status: UserActive}.Blocked())
	assert.False(t, User{}.Blocked())
}
