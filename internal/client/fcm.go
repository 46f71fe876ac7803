package client

import (
	"bytes"
	"encoding/json"
	"github.com/pkg/errors"
	"io"
	"net/http"
	"strings"
)

const fcmSendURL = "https://fcm.googleapis.com/fcm/send"

type FCMSendResponse struct {
	Success int             `json:"success"`
	Failure int             `json:"failure"`
	Results []FCMSendResult `json:"results"`
}

type FCMSendResult struct {
	Error *string `json:"error"`
}

type FCMSendRequest struct {
	Notification    FCMNotification `json:"notification"`
	Data            FCMData         `json:"data"`
	RegistrationIDs []string        `json:"registration_ids"`
}

type FCMNotification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	ClickAction string `json:"click_action"`
	Sound       string `json:"sound"`
}

type FCMData struct {
	Type            string `json:"type"`
	UID             string `json:"uid,omitempty"`
	BillID          string `json:"bill_id,omitempty"`
	SchemeRequestID string `json:"scheme_request_id,omitempty"`
	SchemeID        string `json:"scheme_id,omitempty"`
	Decision        string `json:"decision,omitempty"`
	Coins           string `json:"coins,omitempty"`
}

func (c Client) FCMSendNotification(fcmReqBody FCMSendRequest) (FCMSendResponse, error) {
	reqBody, err := json.Marshal(fcmReqBody)
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: FCMSendRequest JSON marshalling error, req: %+v", fcmReqBody)
	}

	sendURL := c.FCMEndpoint
	if sendURL == "" {
		sendURL = fcmSendURL
	}
	req, err := newRequest(http.MethodPost, sendURL, bytes.NewReader(reqBody))
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: error creating HTTP request from body: %s", reqBody)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.FCMKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return FCMSendResponse{}, errors.Wrapf(err, "FCMSendNotification: error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("FCMSendNotification: error closing response body, req: %+v, err: %v", req, err)
		}
	}()

	fcmSendResp := FCMSendResponse{}
	respBody, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300000))
	if err != nil {
		return fcmSendResp, errors.Wrapf(err,
			"FCMSendNotification: error reading FCMSendAPI response body, req: %+v, response body: %s", req, respBody)
	}
	err = json.Unmarshal(respBody, &fcmSendResp)
	return fcmSendResp, errors.Wrapf(err,
		"FCMSendNotification: error unmarshalling FCMSendAPI response body, req: %+v, response body: %s", req, respBody)
}

// FCMInvalidTokens pairs the per-token results of a send with the tokens of
// the request and returns those the provider reported as gone for good.
// Transient errors (Unavailable, InternalServerError) are not included.
func FCMInvalidTokens(req FCMSendRequest, resp FCMSendResponse) []string {
	var invalid []string
	for i, res := range resp.Results {
		if i >= len(req.RegistrationIDs) {
			break
		}
		if res.Error == nil {
			continue
		}
		switch {
		case strings.Contains(*res.Error, "NotRegistered"),
			strings.Contains(*res.Error, "InvalidRegistration"),
			strings.Contains(*res.Error, "MismatchSenderId"):
			invalid = append(invalid, req.RegistrationIDs[i])
		}
	}
	return invalid
}
