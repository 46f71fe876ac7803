package server

import (
	"coinloyalty/internal/database"
	"coinloyalty/internal/model"
	"coinloyalty/internal/storage"
	"encoding/json"
	"github.com/go-redis/redis/v9"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"io"
	"net/http"
)

const schemeCacheKey = "schemes"

// schemeGetAll serves the scheme catalog through the Redis cache. A cache
// miss or a cache error falls through to the database.
func (s Server) schemeGetAll() http.HandlerFunc {
	type response struct {
		Schemes []model.Scheme `json:"schemes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, err := s.Cache.Get(r.Context(), schemeCacheKey).Bytes(); err == nil {
			var ss []model.Scheme
			if err = json.Unmarshal(cached, &ss); err == nil {
				s.writeJsonResponse(w, response{Schemes: ss}, http.StatusOK)
				return
			}
			s.Logger.Errorf("schemeGetAll: Error unmarshalling cached Schemes, err: %v", err)
		} else if !errors.Is(err, redis.Nil) {
			s.Logger.Errorf("schemeGetAll: Error getting Schemes from cache, err: %v", err)
		}

		ss, err := s.DB.SchemesFindAll(r.Context())
		if err != nil {
			s.Logger.Errorf("schemeGetAll: Error finding Schemes, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if ss == nil {
			ss = []model.Scheme{}
		}

		if data, err := json.Marshal(ss); err == nil {
			if err = s.Cache.Set(r.Context(), schemeCacheKey, data, s.SchemeCacheTTL).Err(); err != nil {
				s.Logger.Errorf("schemeGetAll: Error caching Schemes, err: %v", err)
			}
		}
		s.writeJsonResponse(w, response{Schemes: ss}, http.StatusOK)
	}
}

func (s Server) invalidateSchemeCache(r *http.Request) {
	if err := s.Cache.Del(r.Context(), schemeCacheKey).Err(); err != nil {
		s.Logger.Errorf("Error invalidating Scheme cache, err: %v", err)
	}
}

func (s Server) schemeRequest() http.HandlerFunc {
	type request struct {
		SchemeID string `json:"scheme_id"`
	}
	type response struct {
		SchemeRequest model.SchemeRequest `json:"scheme_request"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("schemeRequest: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("schemeRequest: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		scheme, err := s.DB.SchemeFindByID(r.Context(), req.SchemeID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				s.writeErrorResponse(w, "Scheme not found", http.StatusNotFound)
			} else {
				s.Logger.Debugf("schemeRequest: Error finding Scheme with ID: %s, err: %v", req.SchemeID, err)
				s.writeErrorResponse(w, "invalid scheme_id", http.StatusBadRequest)
			}
			return
		}

		sr, err := s.DB.SchemeRequestCreate(r.Context(), model.SchemeRequest{
			UID:           uc.user.UID,
			SchemeID:      scheme.ID,
			SchemeTitle:   scheme.Title,
			RequiredCoins: scheme.RequiredCoins,
			RewardItems:   scheme.RewardItems,
		})
		if err != nil {
			switch {
			case errors.Is(err, database.ErrRequestAlreadyActive):
				s.writeErrorResponse(w, "You have already requested this scheme", http.StatusConflict)
			case errors.Is(err, database.ErrNotEnoughCoins):
				s.writeErrorResponse(w, "Not enough coins", http.StatusUnprocessableEntity)
			case errors.Is(err, database.ErrWalletNotFound):
				s.writeErrorResponse(w, "Wallet not found", http.StatusNotFound)
			default:
				s.Logger.Errorf("schemeRequest: Error creating SchemeRequest for UID: %s, err: %v", uc.user.UID, err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
			return
		}

		s.Logger.Infof("schemeRequest: UID: %s requested Scheme ID: %s for %d coins",
			uc.user.UID, req.SchemeID, scheme.RequiredCoins)
		s.writeJsonResponse(w, response{SchemeRequest: sr}, http.StatusCreated)
	}
}

func (s Server) schemeRequestGetMine() http.HandlerFunc {
	type response struct {
		SchemeRequests []model.SchemeRequest `json:"scheme_requests"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("schemeRequestGetMine: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		rs, err := s.DB.SchemeRequestsFindByUID(r.Context(), uc.user.UID, pageSize(r, 50))
		if err != nil {
			s.Logger.Errorf("schemeRequestGetMine: Error finding SchemeRequests for UID: %s, err: %v", uc.user.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if rs == nil {
			rs = []model.SchemeRequest{}
		}
		s.writeJsonResponse(w, response{SchemeRequests: rs}, http.StatusOK)
	}
}

func (s Server) adminSchemeRequestList() http.HandlerFunc {
	type response struct {
		SchemeRequests []model.SchemeRequest `json:"scheme_requests"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var status model.RequestStatus
		if q := r.URL.Query().Get("status"); q != "" {
			var err error
			if status, err = model.ParseRequestStatus(q); err != nil {
				s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		rs, err := s.DB.SchemeRequestsFindByStatus(r.Context(), status, pageSize(r, 100))
		if err != nil {
			s.Logger.Errorf("adminSchemeRequestList: Error finding SchemeRequests with status: %s, err: %v", status, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if rs == nil {
			rs = []model.SchemeRequest{}
		}
		s.writeJsonResponse(w, response{SchemeRequests: rs}, http.StatusOK)
	}
}

func (s Server) schemeRequestDecide() http.HandlerFunc {
	type request struct {
		RequestID string `json:"request_id"`
		Decision  string `json:"decision"`
	}
	type response struct {
		SchemeRequest model.SchemeRequest `json:"scheme_request"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("schemeRequestDecide: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("schemeRequestDecide: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		decision, err := model.ParseRequestStatus(req.Decision)
		if err != nil || decision == model.RequestPending {
			s.writeErrorResponse(w, "decision must be approved or rejected", http.StatusBadRequest)
			return
		}
		if _, err := primitive.ObjectIDFromHex(req.RequestID); err != nil {
			s.writeErrorResponse(w, "invalid request_id", http.StatusBadRequest)
			return
		}

		sr, err := s.DB.SchemeRequestMarkDecided(r.Context(), req.RequestID, decision, uc.user.UID)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrAlreadyDecided):
				s.writeErrorResponse(w, "already decided", http.StatusConflict)
			case errors.Is(err, mongo.ErrNoDocuments):
				s.writeErrorResponse(w, "Scheme request not found", http.StatusNotFound)
			default:
				s.Logger.Errorf("schemeRequestDecide: Error deciding SchemeRequest with ID: %s, err: %v", req.RequestID, err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
			return
		}

		s.Logger.Infof("schemeRequestDecide: SchemeRequest ID: %s %s by UID: %s", req.RequestID, decision, uc.user.UID)
		s.writeJsonResponse(w, response{SchemeRequest: sr}, http.StatusOK)
	}
}

func (s Server) schemeCreate() http.HandlerFunc {
	type request struct {
		Title         string             `json:"title"`
		RequiredCoins int64              `json:"required_coins"`
		RewardItems   []model.RewardItem `json:"reward_items"`
	}
	type response struct {
		SchemeID string `json:"scheme_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("schemeCreate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		sc := model.Scheme{
			Title:         req.Title,
			RequiredCoins: req.RequiredCoins,
			RewardItems:   req.RewardItems,
		}
		if err := sc.Validate(); err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := s.DB.SchemeInsert(r.Context(), sc)
		if err != nil {
			s.Logger.Errorf("schemeCreate: Error inserting Scheme: %s, err: %v", req.Title, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.invalidateSchemeCache(r)
		s.writeJsonResponse(w, response{SchemeID: id}, http.StatusCreated)
	}
}

func (s Server) schemeUpdate() http.HandlerFunc {
	type request struct {
		SchemeID      string             `json:"scheme_id"`
		Title         string             `json:"title"`
		RequiredCoins int64              `json:"required_coins"`
		RewardItems   []model.RewardItem `json:"reward_items"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("schemeUpdate: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		existing, err := s.DB.SchemeFindByID(r.Context(), req.SchemeID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				s.writeErrorResponse(w, "Scheme not found", http.StatusNotFound)
			} else {
				s.writeErrorResponse(w, "invalid scheme_id", http.StatusBadRequest)
			}
			return
		}

		existing.Title = req.Title
		existing.RequiredCoins = req.RequiredCoins
		existing.RewardItems = req.RewardItems
		if err := existing.Validate(); err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.DB.SchemeUpdate(r.Context(), existing); err != nil {
			s.Logger.Errorf("schemeUpdate: Error updating Scheme with ID: %s, err: %v", req.SchemeID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.invalidateSchemeCache(r)
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) schemeDelete() http.HandlerFunc {
	type request struct {
		SchemeID string `json:"scheme_id"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("schemeDelete: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		existing, err := s.DB.SchemeFindByID(r.Context(), req.SchemeID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				s.writeErrorResponse(w, "Scheme not found", http.StatusNotFound)
			} else {
				s.writeErrorResponse(w, "invalid scheme_id", http.StatusBadRequest)
			}
			return
		}

		if err := s.DB.SchemeDelete(r.Context(), req.SchemeID); err != nil {
			s.Logger.Errorf("schemeDelete: Error deleting Scheme with ID: %s, err: %v", req.SchemeID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if existing.PosterURL != "" {
			if err := s.Storage.Delete(existing.PosterURL); err != nil {
				s.Logger.Errorf("schemeDelete: Error deleting poster for Scheme ID: %s, err: %v", req.SchemeID, err)
			}
		}

		s.invalidateSchemeCache(r)
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) schemePosterUpload() http.HandlerFunc {
	type response struct {
		PosterURL string `json:"poster_url"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		schemeID := mux.Vars(r)["schemeID"]
		scheme, err := s.DB.SchemeFindByID(r.Context(), schemeID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				s.writeErrorResponse(w, "Scheme not found", http.StatusNotFound)
			} else {
				s.writeErrorResponse(w, "invalid scheme id", http.StatusBadRequest)
			}
			return
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			s.Logger.Debugf("schemePosterUpload: Error parsing multipart form, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		f, fh, err := r.FormFile("poster")
		if err != nil {
			s.writeErrorResponse(w, "poster file is required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			s.Logger.Debugf("schemePosterUpload: Error reading poster for Scheme ID: %s, err: %v", schemeID, err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		path := storage.SchemePosterPath(schemeID, storage.CleanExt(fh.Filename))
		if err = s.Storage.Save(path, content); err != nil {
			s.Logger.Errorf("schemePosterUpload: Error saving poster for Scheme ID: %s, err: %v", schemeID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		scheme.PosterURL = path
		if err = s.DB.SchemeUpdate(r.Context(), scheme); err != nil {
			s.Logger.Errorf("schemePosterUpload: Error updating Scheme with ID: %s, err: %v", schemeID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		s.invalidateSchemeCache(r)
		s.writeJsonResponse(w, response{PosterURL: path}, http.StatusOK)
	}
}
