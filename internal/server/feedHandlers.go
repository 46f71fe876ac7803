package server

import (
	"coinloyalty/internal/model"
	"coinloyalty/internal/storage"
	"encoding/json"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"io"
	"net/http"
	"strconv"
	"time"
)

func (s Server) historyGet() http.HandlerFunc {
	type response struct {
		History []model.HistoryEntry `json:"history"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("historyGet: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		var before time.Time
		if q := r.URL.Query().Get("before"); q != "" {
			var err error
			if before, err = time.Parse(time.RFC3339, q); err != nil {
				s.writeErrorResponse(w, "before must be an RFC 3339 timestamp", http.StatusBadRequest)
				return
			}
		}

		hs, err := s.DB.HistoryFindByUID(r.Context(), uc.user.UID, before, pageSize(r, 50))
		if err != nil {
			s.Logger.Errorf("historyGet: Error finding History for UID: %s, err: %v", uc.user.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if hs == nil {
			hs = []model.HistoryEntry{}
		}
		s.writeJsonResponse(w, response{History: hs}, http.StatusOK)
	}
}

func (s Server) notificationGet() http.HandlerFunc {
	type response struct {
		Notifications []model.Notification `json:"notifications"`
		UnreadCount   int64                `json:"unread_count"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("notificationGet: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ns, err := s.DB.NotificationsFindByUID(r.Context(), uc.user.UID, pageSize(r, 50))
		if err != nil {
			s.Logger.Errorf("notificationGet: Error finding Notifications for UID: %s, err: %v", uc.user.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if ns == nil {
			ns = []model.Notification{}
		}

		unread, err := s.DB.NotificationsCountUnread(r.Context(), uc.user.UID)
		if err != nil {
			s.Logger.Errorf("notificationGet: Error counting unread Notifications for UID: %s, err: %v", uc.user.UID, err)
		}
		s.writeJsonResponse(w, response{Notifications: ns, UnreadCount: unread}, http.StatusOK)
	}
}

func (s Server) notificationMarkRead() http.HandlerFunc {
	type request struct {
		NotificationIDs []string `json:"notification_ids"`
	}
	type response struct {
		MarkedRead int64 `json:"marked_read"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("notificationMarkRead: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("notificationMarkRead: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		n, err := s.DB.NotificationsMarkRead(r.Context(), uc.user.UID, req.NotificationIDs)
		if err != nil {
			s.Logger.Errorf("notificationMarkRead: Error marking Notifications read for UID: %s, err: %v", uc.user.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{MarkedRead: n}, http.StatusOK)
	}
}

func (s Server) posterGetAll() http.HandlerFunc {
	type response struct {
		Posters []model.Poster `json:"posters"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := s.DB.PostersFindAll(r.Context())
		if err != nil {
			s.Logger.Errorf("posterGetAll: Error finding Posters, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if ps == nil {
			ps = []model.Poster{}
		}
		s.writeJsonResponse(w, response{Posters: ps}, http.StatusOK)
	}
}

func (s Server) productGetAll() http.HandlerFunc {
	type response struct {
		Products []model.Product `json:"products"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := s.DB.ProductsFindAll(r.Context())
		if err != nil {
			s.Logger.Errorf("productGetAll: Error finding Products, err: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if ps == nil {
			ps = []model.Product{}
		}
		s.writeJsonResponse(w, response{Products: ps}, http.StatusOK)
	}
}

func (s Server) productCreate() http.HandlerFunc {
	type response struct {
		Product model.Product `json:"product"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			s.Logger.Debugf("productCreate: Error parsing multipart form, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		price, err := strconv.ParseInt(r.FormValue("price"), 10, 64)
		if err != nil {
			s.writeErrorResponse(w, "price must be an integer", http.StatusBadRequest)
			return
		}

		p := model.Product{
			ID:    primitive.NewObjectID(),
			Name:  r.FormValue("name"),
			Price: price,
		}
		if err := p.Validate(); err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}

		f, fh, err := r.FormFile("image")
		if err != nil {
			s.writeErrorResponse(w, "image file is required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			s.Logger.Debugf("productCreate: Error reading image, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		p.ImageURL = storage.ProductImagePath(p.ID.Hex(), storage.CleanExt(fh.Filename))
		if err = s.Storage.Save(p.ImageURL, content); err != nil {
			s.Logger.Errorf("productCreate: Error saving image for Product: %s, err: %v", p.Name, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if _, err = s.DB.ProductInsert(r.Context(), p); err != nil {
			s.Logger.Errorf("productCreate: Error inserting Product: %s, err: %v", p.Name, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Product: p}, http.StatusCreated)
	}
}

func (s Server) productDelete() http.HandlerFunc {
	type request struct {
		ProductID string `json:"product_id"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("productDelete: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		p, err := s.DB.ProductDelete(r.Context(), req.ProductID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				s.writeErrorResponse(w, "Product not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("productDelete: Error deleting Product with ID: %s, err: %v", req.ProductID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if p.ImageURL != "" {
			if err = s.Storage.Delete(p.ImageURL); err != nil {
				s.Logger.Errorf("productDelete: Error deleting image for Product ID: %s, err: %v", req.ProductID, err)
			}
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}

func (s Server) posterCreate() http.HandlerFunc {
	type response struct {
		Poster model.Poster `json:"poster"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			s.Logger.Debugf("posterCreate: Error parsing multipart form, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		f, fh, err := r.FormFile("image")
		if err != nil {
			s.writeErrorResponse(w, "image file is required", http.StatusBadRequest)
			return
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			s.Logger.Debugf("posterCreate: Error reading image, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		p := model.Poster{
			ID:    primitive.NewObjectID(),
			Title: r.FormValue("title"),
		}
		p.ImageURL = storage.PosterPath(p.ID.Hex(), storage.CleanExt(fh.Filename))
		if err = s.Storage.Save(p.ImageURL, content); err != nil {
			s.Logger.Errorf("posterCreate: Error saving image for Poster: %s, err: %v", p.Title, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if _, err = s.DB.PosterInsert(r.Context(), p); err != nil {
			s.Logger.Errorf("posterCreate: Error inserting Poster: %s, err: %v", p.Title, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Poster: p}, http.StatusCreated)
	}
}

func (s Server) posterDelete() http.HandlerFunc {
	type request struct {
		PosterID string `json:"poster_id"`
	}
	type response struct {
		Success bool `json:"success"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("posterDelete: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		p, err := s.DB.PosterDelete(r.Context(), req.PosterID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				s.writeErrorResponse(w, "Poster not found", http.StatusNotFound)
				return
			}
			s.Logger.Errorf("posterDelete: Error deleting Poster with ID: %s, err: %v", req.PosterID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if p.ImageURL != "" {
			if err = s.Storage.Delete(p.ImageURL); err != nil {
				s.Logger.Errorf("posterDelete: Error deleting image for Poster ID: %s, err: %v", req.PosterID, err)
			}
		}
		s.writeJsonResponse(w, response{Success: true}, http.StatusOK)
	}
}
