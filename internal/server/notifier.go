package server

import (
	"coinloyalty/internal/client"
	"coinloyalty/internal/database"
	"coinloyalty/internal/misc"
	"context"
)

const (
	pushTitleLimit = 100
	pushBodyLimit  = 240
)

// pushToUser sends a push to every enabled device of one user. Failures are
// logged, never surfaced: the durable Notification document is the source of
// truth, the push is best-effort on top of it.
func (s Server) pushToUser(ctx context.Context, uid string, title string, body string, data client.FCMData) {
	s.push(ctx, database.CollectionUserFcmTokens, uid, title, body, data)
}

// pushToAdmins broadcasts to every enabled admin device.
func (s Server) pushToAdmins(ctx context.Context, title string, body string, data client.FCMData) {
	s.push(ctx, database.CollectionAdminFcmTokens, "", title, body, data)
}

func (s Server) push(ctx context.Context, collection string, uid string, title string, body string, data client.FCMData) {
	tokens, err := s.DB.FCMTokensFindEnabled(ctx, collection, uid)
	if err != nil {
		s.Logger.Errorf("push: Error finding FCMTokens in %s for UID: %s, err: %v", collection, uid, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	req := client.FCMSendRequest{
		Notification: client.FCMNotification{
			Title: misc.StringLimit(title, pushTitleLimit),
			Body:  misc.StringLimit(body, pushBodyLimit),
			Sound: "default",
		},
		Data:            data,
		RegistrationIDs: tokens,
	}
	resp, err := s.Client.FCMSendNotification(req)
	if err != nil {
		s.Logger.Errorf("push: Error sending FCM notification to %d tokens in %s, err: %v", len(tokens), collection, err)
		return
	}
	s.Logger.Debugf("push: Sent FCM notification, success: %d, failure: %d, collection: %s",
		resp.Success, resp.Failure, collection)

	if invalid := client.FCMInvalidTokens(req, resp); len(invalid) > 0 {
		n, err := s.DB.FCMTokensDelete(ctx, collection, invalid)
		if err != nil {
			s.Logger.Errorf("push: Error pruning %d invalid FCMTokens from %s, err: %v", len(invalid), collection, err)
			return
		}
		s.Logger.Infof("push: Pruned %d invalid FCMTokens from %s", n, collection)
	}
}
