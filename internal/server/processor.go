package server

import (
	"coinloyalty/internal/client"
	"coinloyalty/internal/database"
	"coinloyalty/internal/misc"
	"coinloyalty/internal/model"
	"context"
	"fmt"
	"github.com/pkg/errors"
	"strconv"
)

// ProcessBillInsert fans a freshly uploaded bill out to the admins: one
// durable notification per admin plus a broadcast push. Notification ids are
// deterministic, so reprocessing the same insert is a no-op.
func (s Server) ProcessBillInsert(ctx context.Context, b model.Bill) error {
	billID := b.ID.Hex()
	admins, err := s.DB.UsersFindAdmins(ctx, 100)
	if err != nil {
		return errors.Wrapf(err, "error finding admins for Bill ID: %s", billID)
	}

	body := fmt.Sprintf("Bill ID: %s", billID)
	for _, admin := range admins {
		if err = s.DB.NotificationUpsert(ctx, model.Notification{
			NotificationID: model.NotificationID(admin.UID, billID, "bill_uploaded"),
			UID:            admin.UID,
			Title:          "New Bill Uploaded",
			Body:           body,
			Type:           model.NotifyBillUploaded,
			BillID:         billID,
			CreatedBy:      b.UID,
		}); err != nil {
			return errors.Wrapf(err, "error upserting Notification for admin UID: %s, Bill ID: %s", admin.UID, billID)
		}
	}

	s.pushToAdmins(ctx, "New Bill Uploaded", body, client.FCMData{
		Type:   model.NotifyBillUploaded,
		UID:    b.UID,
		BillID: billID,
	})
	return nil
}

// ProcessBillDecision applies the monetary and fan-out side effects of a
// decided bill. The decision marker is claimed first: whoever wins the claim
// credits the wallet, everyone else backs off, so the credit happens at most
// once no matter how many times the change stream or the sweeper hands us
// the same bill.
func (s Server) ProcessBillDecision(ctx context.Context, b model.Bill) error {
	if !b.Decided() {
		return nil
	}
	billID := b.ID.Hex()

	markerColl := database.CollectionRejectedBills
	var coins int64
	if b.Status == model.BillApproved {
		markerColl = database.CollectionApprovedBills
		if b.ApprovedCoins == nil {
			return errors.Errorf("approved Bill ID: %s has no approved coins", billID)
		}
		coins = *b.ApprovedCoins
	}

	err := s.DB.DecisionMarkerClaim(ctx, markerColl, model.DecisionMarker{
		EntityID:  billID,
		UID:       b.UID,
		Coins:     coins,
		DecidedBy: b.DecidedBy,
	})
	if err != nil {
		if errors.Is(err, database.ErrAlreadyProcessed) {
			s.Logger.Debugf("ProcessBillDecision: Bill ID: %s already processed", billID)
			return nil
		}
		return err
	}

	var title, body, notifyType, suffix string
	if b.Status == model.BillApproved {
		if _, err = s.DB.WalletCredit(ctx, b.UID, coins, model.HistoryEntry{
			EntryID:     model.NotificationID(b.UID, billID, "bill_approved"),
			UID:         b.UID,
			Title:       "Bill Approved",
			Type:        model.HistoryBillApproved,
			CoinsDelta:  coins,
			BillID:      billID,
			TotalAmount: b.TotalAmount,
			CreatedBy:   b.DecidedBy,
		}); err != nil {
			return errors.Wrapf(err, "error crediting Wallet for approved Bill ID: %s", billID)
		}
		title = "Bill Approved"
		body = fmt.Sprintf("You received %d coins.", coins)
		notifyType = model.NotifyBillApproved
		suffix = "approved"
	} else {
		if err = s.DB.HistoryInsert(ctx, model.HistoryEntry{
			EntryID:     model.NotificationID(b.UID, billID, "bill_rejected"),
			UID:         b.UID,
			Title:       "Bill Rejected",
			Type:        model.HistoryBillRejected,
			BillID:      billID,
			TotalAmount: b.TotalAmount,
			CreatedBy:   b.DecidedBy,
		}); err != nil {
			return errors.Wrapf(err, "error inserting HistoryEntry for rejected Bill ID: %s", billID)
		}
		title = "Bill Rejected"
		body = "Your bill was rejected."
		notifyType = model.NotifyBillRejected
		suffix = "rejected"
	}

	if err = s.DB.NotificationUpsert(ctx, model.Notification{
		NotificationID: model.NotificationID(b.UID, billID, suffix),
		UID:            b.UID,
		Title:          title,
		Body:           body,
		Type:           notifyType,
		Coins:          coins,
		BillID:         billID,
		Decision:       string(b.Status),
		DecidedBy:      b.DecidedBy,
	}); err != nil {
		return errors.Wrapf(err, "error upserting Notification for decided Bill ID: %s", billID)
	}

	s.pushToUser(ctx, b.UID, title, body, client.FCMData{
		Type:     notifyType,
		UID:      b.UID,
		BillID:   billID,
		Decision: string(b.Status),
		Coins:    strconv.FormatInt(coins, 10),
	})
	s.Logger.Infof("ProcessBillDecision: Processed Bill ID: %s, status: %s, coins: %d", billID, b.Status, coins)
	return nil
}

// ProcessSchemeRequestInsert notifies the admins about a new redemption
// request.
func (s Server) ProcessSchemeRequestInsert(ctx context.Context, r model.SchemeRequest) error {
	requestID := r.ID.Hex()
	admins, err := s.DB.UsersFindAdmins(ctx, 100)
	if err != nil {
		return errors.Wrapf(err, "error finding admins for SchemeRequest ID: %s", requestID)
	}

	body := fmt.Sprintf("Scheme: %s (%d coins)", misc.StringLimit(r.SchemeTitle, 60), r.RequiredCoins)
	for _, admin := range admins {
		if err = s.DB.NotificationUpsert(ctx, model.Notification{
			NotificationID:  model.NotificationID(admin.UID, requestID, "scheme_request"),
			UID:             admin.UID,
			Title:           "New Scheme Request",
			Body:            body,
			Type:            model.NotifySchemeRequest,
			SchemeRequestID: requestID,
			SchemeID:        r.SchemeID.Hex(),
			CreatedBy:       r.UID,
		}); err != nil {
			return errors.Wrapf(err, "error upserting Notification for admin UID: %s, SchemeRequest ID: %s",
				admin.UID, requestID)
		}
	}

	s.pushToAdmins(ctx, "New Scheme Request", body, client.FCMData{
		Type:            model.NotifySchemeRequest,
		UID:             r.UID,
		SchemeRequestID: requestID,
		SchemeID:        r.SchemeID.Hex(),
	})
	return nil
}

// ProcessSchemeRequestDecision fans a decided request back to its owner. No
// coins move here: the debit happened at request creation and a rejection
// does not refund it. The notification upsert makes reprocessing idempotent.
func (s Server) ProcessSchemeRequestDecision(ctx context.Context, r model.SchemeRequest) error {
	if !r.Decided() {
		return nil
	}
	requestID := r.ID.Hex()

	var title, body, suffix, historyType string
	if r.Status == model.RequestApproved {
		title = "Scheme Request Approved"
		body = fmt.Sprintf("Your request for %s has been approved.", misc.StringLimit(r.SchemeTitle, 60))
		suffix = "scheme_approved"
		historyType = model.HistorySchemeApproved
	} else {
		title = "Scheme Request Rejected"
		body = fmt.Sprintf("Your request for %s has been rejected.", misc.StringLimit(r.SchemeTitle, 60))
		suffix = "scheme_rejected"
		historyType = model.HistorySchemeRejected
	}

	if err := s.DB.HistoryInsert(ctx, model.HistoryEntry{
		EntryID:         model.NotificationID(r.UID, requestID, suffix),
		UID:             r.UID,
		Title:           title,
		Type:            historyType,
		SchemeRequestID: requestID,
		SchemeID:        r.SchemeID.Hex(),
		CreatedBy:       r.DecidedBy,
	}); err != nil {
		return errors.Wrapf(err, "error inserting HistoryEntry for decided SchemeRequest ID: %s", requestID)
	}

	if err := s.DB.NotificationUpsert(ctx, model.Notification{
		NotificationID:  model.NotificationID(r.UID, requestID, suffix),
		UID:             r.UID,
		Title:           title,
		Body:            body,
		Type:            model.NotifySchemeDecision,
		SchemeRequestID: requestID,
		SchemeID:        r.SchemeID.Hex(),
		Decision:        string(r.Status),
		DecidedBy:       r.DecidedBy,
	}); err != nil {
		return errors.Wrapf(err, "error upserting Notification for decided SchemeRequest ID: %s", requestID)
	}

	s.pushToUser(ctx, r.UID, title, body, client.FCMData{
		Type:            model.NotifySchemeDecision,
		UID:             r.UID,
		SchemeRequestID: requestID,
		SchemeID:        r.SchemeID.Hex(),
		Decision:        string(r.Status),
	})
	s.Logger.Infof("ProcessSchemeRequestDecision: Processed SchemeRequest ID: %s, status: %s", requestID, r.Status)
	return nil
}
