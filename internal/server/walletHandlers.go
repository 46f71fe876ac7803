package server

import (
	"coinloyalty/internal/client"
	"coinloyalty/internal/database"
	"coinloyalty/internal/model"
	"encoding/json"
	"fmt"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"net/http"
	"strconv"
)

func (s Server) walletGet() http.HandlerFunc {
	type response struct {
		Wallet model.Wallet `json:"wallet"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("walletGet: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		wallet, err := s.DB.WalletFind(r.Context(), uc.user.UID)
		if errors.Is(err, database.ErrWalletNotFound) {
			// Wallets are created with the account, but self-heal here in
			// case the account predates that.
			if err = s.DB.WalletEnsure(r.Context(), uc.user.UID); err == nil {
				wallet, err = s.DB.WalletFind(r.Context(), uc.user.UID)
			}
		}
		if err != nil {
			s.Logger.Errorf("walletGet: Error finding Wallet for UID: %s, err: %v", uc.user.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Wallet: wallet}, http.StatusOK)
	}
}

func (s Server) adminWalletGet() http.HandlerFunc {
	type response struct {
		Wallet model.Wallet `json:"wallet"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uid := mux.Vars(r)["uid"]
		wallet, err := s.DB.WalletFind(r.Context(), uid)
		if err != nil {
			if errors.Is(err, database.ErrWalletNotFound) {
				s.writeErrorResponse(w, "Wallet not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("adminWalletGet: Error finding Wallet for UID: %s, err: %v", uid, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Wallet: wallet}, http.StatusOK)
	}
}

// adminWalletAdjust applies a signed coin delta to a user's wallet. The
// applied delta can be smaller than the requested one when the balance would
// go negative.
func (s Server) adminWalletAdjust() http.HandlerFunc {
	type request struct {
		UID    string `json:"uid"`
		Delta  int64  `json:"delta"`
		Reason string `json:"reason"`
	}
	type response struct {
		BeforeCoins  int64 `json:"before_coins"`
		AfterCoins   int64 `json:"after_coins"`
		AppliedDelta int64 `json:"applied_delta"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("adminWalletAdjust: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("adminWalletAdjust: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Delta == 0 {
			s.writeErrorResponse(w, "delta must be non-zero", http.StatusBadRequest)
			return
		}

		target, err := s.DB.UserFindByUID(r.Context(), req.UID)
		if err != nil {
			s.writeErrorResponse(w, "User not found", http.StatusNotFound)
			return
		}

		adjustmentID := primitive.NewObjectID().Hex()
		before, after, applied, err := s.DB.WalletAdjust(r.Context(), target.UID, req.Delta, model.HistoryEntry{
			EntryID:   model.NotificationID(target.UID, adjustmentID, "wallet_adjust"),
			UID:       target.UID,
			Title:     "Wallet Adjusted",
			Type:      model.HistoryAdminWalletAdjust,
			Reason:    req.Reason,
			CreatedBy: uc.user.UID,
		})
		if err != nil {
			s.Logger.Errorf("adminWalletAdjust: Error adjusting Wallet for UID: %s, err: %v", target.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		body := fmt.Sprintf("Your wallet was adjusted by %+d coins.", applied)
		if err = s.DB.NotificationUpsert(r.Context(), model.Notification{
			NotificationID: model.NotificationID(target.UID, adjustmentID, "wallet_adjust"),
			UID:            target.UID,
			Title:          "Wallet Adjusted",
			Body:           body,
			Type:           model.NotifyWalletAdjusted,
			Coins:          applied,
			CreatedBy:      uc.user.UID,
		}); err != nil {
			s.Logger.Errorf("adminWalletAdjust: Error upserting Notification for UID: %s, err: %v", target.UID, err)
		}
		s.pushToUser(r.Context(), target.UID, "Wallet Adjusted", body, client.FCMData{
			Type:  model.NotifyWalletAdjusted,
			UID:   target.UID,
			Coins: strconv.FormatInt(applied, 10),
		})

		s.Logger.Infof("adminWalletAdjust: UID: %s adjusted by %d (applied %d) by admin UID: %s",
			target.UID, req.Delta, applied, uc.user.UID)
		s.writeJsonResponse(w, response{BeforeCoins: before, AfterCoins: after, AppliedDelta: applied}, http.StatusOK)
	}
}
