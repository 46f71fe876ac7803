package server

import (
	"coinloyalty/internal/database"
	"coinloyalty/internal/model"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
	"net/http"
	"time"
)

func (s Server) userLogin() http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FCMToken string `json:"fcm_token"`
		Platform string `json:"platform"`
	}
	type response struct {
		LoginToken string     `json:"login_token"`
		User       model.User `json:"user"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("userLogin: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		u, err := s.DB.UserFindByEmail(r.Context(), req.Email)
		if err != nil {
			s.Logger.Debugf("userLogin: Error finding User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if err = bcrypt.CompareHashAndPassword(u.Password, []byte(req.Password)); err != nil {
			s.Logger.Debugf("userLogin: Error comparing hash and password for User with email: %s, err: %v", u.Email, err)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if u.Blocked() {
			s.Logger.Debugf("userLogin: Blocked User with UID: %s attempted login", u.UID)
			s.writeErrorResponse(w, "Your account has been blocked", http.StatusForbidden)
			return
		}

		lt, tokenID, exp, tokenHash, err := s.createLoginTokenAndHash(u.UID)
		if err != nil {
			s.Logger.Errorf("userLogin: Error creating login token for User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err = s.DB.UserAddLoginToken(r.Context(), u.UID, model.LoginToken{
			TokenID:    tokenID,
			Token:      tokenHash,
			Expiration: primitive.NewDateTimeFromTime(exp),
		}); err != nil {
			s.Logger.Errorf("userLogin: Error adding login token to User, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if req.FCMToken != "" {
			if err = s.registerFCMToken(r.Context(), u, req.FCMToken, req.Platform); err != nil {
				s.Logger.Errorf("userLogin: Error registering FCM token for UID: %s, err: %v", u.UID, err)
			}
		}

		s.writeJsonResponse(w, response{LoginToken: lt, User: u}, http.StatusOK)
	}
}

func (s Server) userLogout() http.HandlerFunc {
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("userLogout: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err := s.DB.UserRemoveLoginToken(r.Context(), uc.user.UID, uc.tokenID); err != nil {
			s.Logger.Errorf("userLogout: Error removing login token, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) userInfo() http.HandlerFunc {
	type response struct {
		User                model.User `json:"user"`
		UnreadNotifications int64      `json:"unread_notifications"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("userInfo: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		unread, err := s.DB.NotificationsCountUnread(r.Context(), uc.user.UID)
		if err != nil {
			s.Logger.Errorf("userInfo: Error counting unread Notifications, err: %v", err)
		}
		s.writeJsonResponse(w, response{User: uc.user, UnreadNotifications: unread}, http.StatusOK)
	}
}

func (s Server) fcmTokenRegister() http.HandlerFunc {
	type request struct {
		FCMToken string `json:"fcm_token"`
		Platform string `json:"platform"`
		Enabled  *bool  `json:"enabled"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("fcmTokenRegister: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("fcmTokenRegister: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.FCMToken == "" {
			s.writeErrorResponse(w, "fcm_token is required", http.StatusBadRequest)
			return
		}

		enabled := true
		if req.Enabled != nil {
			enabled = *req.Enabled
		}
		collection := database.CollectionUserFcmTokens
		if uc.user.IsAdmin {
			collection = database.CollectionAdminFcmTokens
		}
		if err := s.DB.FCMTokenUpsert(r.Context(), collection, model.FCMToken{
			Token:    req.FCMToken,
			UID:      uc.user.UID,
			Platform: model.TokenPlatform(req.Platform),
			Enabled:  enabled,
		}); err != nil {
			s.Logger.Errorf("fcmTokenRegister: Error upserting FCMToken for UID: %s, err: %v", uc.user.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) registerFCMToken(ctx context.Context, u model.User, token string, platform string) error {
	collection := database.CollectionUserFcmTokens
	if u.IsAdmin {
		collection = database.CollectionAdminFcmTokens
	}
	return s.DB.FCMTokenUpsert(ctx, collection, model.FCMToken{
		Token:    token,
		UID:      u.UID,
		Platform: model.TokenPlatform(platform),
		Enabled:  true,
	})
}

func (s Server) createLoginTokenAndHash(uid string) (lt string, tokenID string, exp time.Time, hash []byte, err error) {
	exp = time.Now().AddDate(0, 0, 90)
	tokenID = uuid.NewString()
	salt := make([]byte, 128)
	if _, err = rand.Read(salt); err != nil {
		return "", "", exp, nil, errors.Wrapf(err, "error generating salt for login token for UID: %s", uid)
	}
	t, err := jwt.NewBuilder().
		Subject(uid).
		JwtID(tokenID).
		Issuer("coin-loyalty-app").
		Expiration(exp).
		Claim("s", base64.StdEncoding.EncodeToString(salt)).
		Build()
	if err != nil {
		return "", "", exp, nil, errors.Wrapf(err, "error creating login token for UID: %s", uid)
	}
	signed, err := jwt.Sign(t, jwt.WithKey(jwa.HS256, s.AuthSecretKey))
	if err != nil {
		return "", "", exp, nil, errors.Wrapf(err, "error signing login token for UID: %s", uid)
	}
	tokenHash := sha256.New()
	tokenHash.Write(signed)
	bcryptTokenHash, err := bcrypt.GenerateFromPassword(tokenHash.Sum(nil), bcrypt.DefaultCost-3)
	if err != nil {
		return "", "", exp, nil, errors.Wrapf(err, "error generating bcrypt from login token hash for UID: %s", uid)
	}
	return string(signed), tokenID, t.Expiration(), bcryptTokenHash, nil
}
