package model

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestSchemeValidate(t *testing.T) {
	s := Scheme{Title: "Gold Scheme", RequiredCoins: 200}
	assert.NoError(t, s.Validate())

	assert.Error(t, Scheme{Title: "", RequiredCoins: 200}.Validate())
	assert.Error(t, Scheme{Title: "Gold Scheme", RequiredCoins: 0}.Validate())
	assert.Error(t, Scheme{Title: "Gold Scheme", RequiredCoins: -5}.Validate())
}

func TestParseRequestStatus(t *testing.T) {
	s, err := ParseRequestStatus("approved")
	assert.NoError(t, err)
	assert.Equal(t, RequestApproved, s)

	s, err = ParseRequestStatus("Pending")
	assert.NoError(t, err)
	assert.Equal(t, RequestPending, s)

	_, err = ParseRequestStatus("done")
	assert.Error(t, err)
}

func TestSchemeRequestDecided(t *testing.T) {
	assert.False(t, SchemeRequest{Status: RequestPending}.Decided())
	assert.True(t, SchemeRequest{Status: RequestApproved}.Decided())
	assert.True(t, SchemeRequest{Status: RequestRejected}.Decided())
}
