package server

import (
	"coinloyalty/internal/database"
	"coinloyalty/internal/model"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"net/http"
	"net/mail"
)

func (s Server) adminCounts() http.HandlerFunc {
	type response struct {
		Users          int64 `json:"users"`
		Bills          int64 `json:"bills"`
		SchemeRequests int64 `json:"scheme_requests"`
		Products       int64 `json:"products"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var resp response
		var err error
		if resp.Users, err = s.DB.UsersCount(r.Context()); err != nil {
			s.Logger.Errorf("adminCounts: Error counting Users, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if resp.Bills, err = s.DB.BillsCount(r.Context()); err != nil {
			s.Logger.Errorf("adminCounts: Error counting Bills, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if resp.SchemeRequests, err = s.DB.SchemeRequestsCount(r.Context()); err != nil {
			s.Logger.Errorf("adminCounts: Error counting SchemeRequests, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if resp.Products, err = s.DB.ProductsCount(r.Context()); err != nil {
			s.Logger.Errorf("adminCounts: Error counting Products, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, resp, http.StatusOK)
	}
}

// adminUserCreate provisions an account: the user document, its zero wallet,
// the welcome notification, and the account_created history entry. Accounts
// are only ever created by an admin, there is no self-signup.
func (s Server) adminUserCreate() http.HandlerFunc {
	type request struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		FullName     string `json:"full_name"`
		MobileNumber string `json:"mobile_number"`
		Role         string `json:"role"`
	}
	type response struct {
		UID string `json:"uid"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("adminUserCreate: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("adminUserCreate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		if _, err := mail.ParseAddress(req.Email); err != nil {
			s.writeErrorResponse(w, "invalid email address", http.StatusBadRequest)
			return
		}
		if len(req.Password) < 8 {
			s.writeErrorResponse(w, "password must be at least 8 characters", http.StatusBadRequest)
			return
		}
		role := model.RoleUser
		if req.Role != "" {
			var err error
			if role, err = model.ParseUserRole(req.Role); err != nil {
				s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.Logger.Errorf("adminUserCreate: Error generating bcrypt hash, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		uid, err := s.DB.UserInsert(r.Context(), model.User{
			Email:        req.Email,
			Password:     hashedPassword,
			FullName:     req.FullName,
			MobileNumber: req.MobileNumber,
			Role:         role,
			IsAdmin:      role == model.RoleAdmin,
			Status:       model.UserActive,
		})
		if err != nil {
			s.Logger.Debugf("adminUserCreate: Error inserting User with email: %s, err: %v", req.Email, err)
			s.writeErrorResponse(w, "email is already registered", http.StatusConflict)
			return
		}

		if err = s.DB.WalletEnsure(r.Context(), uid); err != nil {
			s.Logger.Errorf("adminUserCreate: Error creating Wallet for UID: %s, err: %v", uid, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err = s.DB.NotificationUpsert(r.Context(), model.Notification{
			NotificationID: fmt.Sprintf("%s_welcome", uid),
			UID:            uid,
			Title:          "Welcome",
			Body:           "Your account has been created. Upload bills to start earning coins.",
			Type:           model.NotifyWelcome,
			CreatedBy:      uc.user.UID,
		}); err != nil {
			s.Logger.Errorf("adminUserCreate: Error upserting welcome Notification for UID: %s, err: %v", uid, err)
		}
		if err = s.DB.HistoryInsert(r.Context(), model.HistoryEntry{
			EntryID:   fmt.Sprintf("%s_account_created", uid),
			UID:       uid,
			Title:     "Account Created",
			Type:      model.HistoryAccountCreated,
			CreatedBy: uc.user.UID,
		}); err != nil {
			s.Logger.Errorf("adminUserCreate: Error inserting HistoryEntry for UID: %s, err: %v", uid, err)
		}

		s.Logger.Infof("adminUserCreate: Created User with UID: %s, role: %s, by admin UID: %s", uid, role, uc.user.UID)
		s.writeJsonResponse(w, response{UID: uid}, http.StatusCreated)
	}
}

func (s Server) adminUserUpdate() http.HandlerFunc {
	type request struct {
		UID          string `json:"uid"`
		Email        string `json:"email"`
		FullName     string `json:"full_name"`
		MobileNumber string `json:"mobile_number"`
		Role         string `json:"role"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("adminUserUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		if _, err := mail.ParseAddress(req.Email); err != nil {
			s.writeErrorResponse(w, "invalid email address", http.StatusBadRequest)
			return
		}
		role, err := model.ParseUserRole(req.Role)
		if err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = s.DB.UserUpdateProfile(r.Context(), model.User{
			UID:          req.UID,
			Email:        req.Email,
			FullName:     req.FullName,
			MobileNumber: req.MobileNumber,
			Role:         role,
		})
		if err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				s.writeErrorResponse(w, "User not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("adminUserUpdate: Error updating User with UID: %s, err: %v", req.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) adminUserSetStatus() http.HandlerFunc {
	type request struct {
		UID    string `json:"uid"`
		Status string `json:"status"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("adminUserSetStatus: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("adminUserSetStatus: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.UID == uc.user.UID {
			s.writeErrorResponse(w, "You cannot change your own status", http.StatusBadRequest)
			return
		}
		status, err := model.ParseUserStatus(req.Status)
		if err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err = s.DB.UserSetStatus(r.Context(), req.UID, status, uc.user.UID); err != nil {
			if errors.Is(err, database.ErrNoDocumentsModified) {
				s.writeErrorResponse(w, "User not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("adminUserSetStatus: Error setting status on User with UID: %s, err: %v", req.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.Logger.Infof("adminUserSetStatus: UID: %s set to %s by admin UID: %s", req.UID, status, uc.user.UID)
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

// adminUserDelete removes the account and everything scoped to it, and
// reports how many documents each collection lost. Deleted wallets take any
// remaining coins with them.
func (s Server) adminUserDelete() http.HandlerFunc {
	type request struct {
		UID string `json:"uid"`
	}
	type response struct {
		DeletedCounts map[string]int64 `json:"deleted_counts"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("adminUserDelete: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("adminUserDelete: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.UID == uc.user.UID {
			s.writeErrorResponse(w, "You cannot delete your own account.", http.StatusBadRequest)
			return
		}

		if _, err := s.DB.UserFindByUID(r.Context(), req.UID); err != nil {
			s.writeErrorResponse(w, "User not found", http.StatusNotFound)
			return
		}

		counts, err := s.DB.UserDataDelete(r.Context(), req.UID)
		if err != nil {
			s.Logger.Errorf("adminUserDelete: Error deleting data for UID: %s, partial counts: %v, err: %v",
				req.UID, counts, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.Logger.Infof("adminUserDelete: Deleted UID: %s by admin UID: %s, counts: %v", req.UID, uc.user.UID, counts)
		s.writeJsonResponse(w, response{DeletedCounts: counts}, http.StatusOK)
	}
}

func (s Server) adminUserList() http.HandlerFunc {
	type response struct {
		Users []model.User `json:"users"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		us, err := s.DB.UsersFindPage(r.Context(), r.URL.Query().Get("after"), pageSize(r, 100))
		if err != nil {
			s.Logger.Errorf("adminUserList: Error finding Users, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if us == nil {
			us = []model.User{}
		}
		s.writeJsonResponse(w, response{Users: us}, http.StatusOK)
	}
}
