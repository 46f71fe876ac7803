package client

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

type testLogger struct{}

func (testLogger) Debugf(string, ...any) {}
func (testLogger) Infof(string, ...any)  {}
func (testLogger) Errorf(string, ...any) {}

func TestFCMSendNotification(t *testing.T) {
	var gotAuth string
	var gotReq FCMSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":1,"failure":1,"results":[{},{"error":"NotRegistered"}]}`))
	}))
	defer srv.Close()

	c := Client{
		Client:      srv.Client(),
		FCMKey:      "test-key",
		FCMEndpoint: srv.URL,
		Logger:      testLogger{},
	}

	req := FCMSendRequest{
		Notification:    FCMNotification{Title: "Bill Approved", Body: "You received 50 coins."},
		Data:            FCMData{Type: "bill_approved", Coins: "50"},
		RegistrationIDs: []string{"token-a", "token-b"},
	}
	resp, err := c.FCMSendNotification(req)
	require.NoError(t, err)

	assert.Equal(t, "key=test-key", gotAuth)
	assert.Equal(t, req.RegistrationIDs, gotReq.RegistrationIDs)
	assert.Equal(t, "Bill Approved", gotReq.Notification.Title)
	assert.Equal(t, 1, resp.Success)
	assert.Equal(t, 1, resp.Failure)
	require.Len(t, resp.Results, 2)

	invalid := FCMInvalidTokens(req, resp)
	assert.Equal(t, []string{"token-b"}, invalid)
}

func TestFCMInvalidTokens(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	req := FCMSendRequest{RegistrationIDs: []string{"a", "b", "c", "d"}}
	resp := FCMSendResponse{Results: []FCMSendResult{
		{Error: nil},
		{Error: strPtr("NotRegistered")},
		{Error: strPtr("Unavailable")},
		{Error: strPtr("InvalidRegistration")},
	}}
	assert.Equal(t, []string{"b", "d"}, FCMInvalidTokens(req, resp))

	// More results than tokens must not panic or index past the request.
	resp.Results = append(resp.Results, FCMSendResult{Error: strPtr("NotRegistered")})
	assert.Equal(t, []string{"b", "d"}, FCMInvalidTokens(req, resp))

	assert.Nil(t, FCMInvalidTokens(FCMSendRequest{}, FCMSendResponse{}))
}
