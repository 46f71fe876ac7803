package server

import (
	"coinloyalty/internal/database"
	"coinloyalty/internal/misc"
	"coinloyalty/internal/model"
	"coinloyalty/internal/storage"
	"encoding/json"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
)

const maxBillImages = 5

func (s Server) billUpload() http.HandlerFunc {
	type response struct {
		Bill model.Bill `json:"bill"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("billUpload: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			s.Logger.Debugf("billUpload: Error parsing multipart form, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		totalAmount, err := strconv.ParseInt(r.FormValue("total_amount"), 10, 64)
		if err != nil {
			s.writeErrorResponse(w, "total_amount must be an integer", http.StatusBadRequest)
			return
		}

		files := r.MultipartForm.File["images"]
		if len(files) == 0 {
			s.writeErrorResponse(w, "at least 1 bill image is required", http.StatusBadRequest)
			return
		}
		if len(files) > maxBillImages {
			s.writeErrorResponse(w, "too many bill images", http.StatusBadRequest)
			return
		}

		b := model.Bill{
			ID:           primitive.NewObjectID(),
			UID:          uc.user.UID,
			BillNumber:   r.FormValue("bill_number"),
			CustomerName: r.FormValue("customer_name"),
			TotalAmount:  totalAmount,
		}
		for i, fh := range files {
			b.Images = append(b.Images, storage.BillImagePath(b.UID, b.ID.Hex(), i, storage.CleanExt(fh.Filename)))
		}
		if err := b.Validate(); err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}

		for i, fh := range files {
			content, err := readMultipartFile(fh.Open)
			if err != nil {
				s.Logger.Debugf("billUpload: Error reading bill image %d for UID: %s, err: %v", i, b.UID, err)
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			if err = s.Storage.Save(b.Images[i], content); err != nil {
				s.Logger.Errorf("billUpload: Error saving bill image %d for UID: %s, err: %v", i, b.UID, err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}

		billID, err := s.DB.BillInsert(r.Context(), b)
		if err != nil {
			s.Logger.Errorf("billUpload: Error inserting Bill for UID: %s, err: %v", b.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err = s.DB.HistoryInsert(r.Context(), model.HistoryEntry{
			EntryID:     model.NotificationID(b.UID, billID, "bill_upload"),
			UID:         b.UID,
			Title:       "Bill Uploaded",
			Type:        model.HistoryBillUpload,
			BillID:      billID,
			TotalAmount: b.TotalAmount,
		}); err != nil {
			s.Logger.Errorf("billUpload: Error inserting HistoryEntry for Bill ID: %s, err: %v", billID, err)
		}

		inserted, err := s.DB.BillFindByID(r.Context(), billID)
		if err != nil {
			s.Logger.Errorf("billUpload: Error finding inserted Bill with ID: %s, err: %v", billID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.writeJsonResponse(w, response{Bill: inserted}, http.StatusCreated)
	}
}

func (s Server) billGetMine() http.HandlerFunc {
	type response struct {
		Bills []model.Bill `json:"bills"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("billGetMine: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		bs, err := s.DB.BillsFindByUID(r.Context(), uc.user.UID, pageSize(r, 50))
		if err != nil {
			s.Logger.Errorf("billGetMine: Error finding Bills for UID: %s, err: %v", uc.user.UID, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if bs == nil {
			bs = []model.Bill{}
		}
		s.writeJsonResponse(w, response{Bills: bs}, http.StatusOK)
	}
}

func (s Server) adminBillList() http.HandlerFunc {
	type response struct {
		Bills []model.Bill `json:"bills"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var status model.BillStatus
		if q := r.URL.Query().Get("status"); q != "" {
			var err error
			if status, err = model.ParseBillStatus(q); err != nil {
				s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		bs, err := s.DB.BillsFindByStatus(r.Context(), status, pageSize(r, 100))
		if err != nil {
			s.Logger.Errorf("adminBillList: Error finding Bills with status: %s, err: %v", status, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if bs == nil {
			bs = []model.Bill{}
		}
		s.writeJsonResponse(w, response{Bills: bs}, http.StatusOK)
	}
}

func (s Server) billApprove() http.HandlerFunc {
	type request struct {
		BillID string `json:"bill_id"`
		Coins  int64  `json:"coins"`
	}
	type response struct {
		Bill model.Bill `json:"bill"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("billApprove: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("billApprove: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if req.Coins <= 0 {
			s.writeErrorResponse(w, "coins must be a positive integer", http.StatusBadRequest)
			return
		}
		if _, err := primitive.ObjectIDFromHex(req.BillID); err != nil {
			s.writeErrorResponse(w, "invalid bill_id", http.StatusBadRequest)
			return
		}

		b, err := s.DB.BillMarkDecided(r.Context(), req.BillID, model.BillApproved, &req.Coins, uc.user.UID)
		if err != nil {
			s.writeBillDecisionError(w, req.BillID, err)
			return
		}
		s.Logger.Infof("billApprove: Bill ID: %s approved for %d coins by UID: %s", req.BillID, req.Coins, uc.user.UID)
		s.writeJsonResponse(w, response{Bill: b}, http.StatusOK)
	}
}

func (s Server) billReject() http.HandlerFunc {
	type request struct {
		BillID string `json:"bill_id"`
	}
	type response struct {
		Bill model.Bill `json:"bill"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uc, ok := getUserContext(r.Context())
		if !ok {
			s.Logger.Errorf("billReject: Error getting userContext")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		req := request{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Logger.Debugf("billReject: Error decoding JSON, err: %v", err)
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if _, err := primitive.ObjectIDFromHex(req.BillID); err != nil {
			s.writeErrorResponse(w, "invalid bill_id", http.StatusBadRequest)
			return
		}

		b, err := s.DB.BillMarkDecided(r.Context(), req.BillID, model.BillRejected, nil, uc.user.UID)
		if err != nil {
			s.writeBillDecisionError(w, req.BillID, err)
			return
		}
		s.Logger.Infof("billReject: Bill ID: %s rejected by UID: %s", req.BillID, uc.user.UID)
		s.writeJsonResponse(w, response{Bill: b}, http.StatusOK)
	}
}

func (s Server) writeBillDecisionError(w http.ResponseWriter, billID string, err error) {
	switch {
	case errors.Is(err, database.ErrAlreadyDecided):
		s.writeErrorResponse(w, "already decided", http.StatusConflict)
	case errors.Is(err, mongo.ErrNoDocuments):
		s.writeErrorResponse(w, "Bill not found", http.StatusNotFound)
	default:
		s.Logger.Errorf("Error deciding Bill with ID: %s, err: %v", billID, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func readMultipartFile(open func() (multipart.File, error)) ([]byte, error) {
	f, err := open()
	if err != nil {
		return nil, errors.Wrap(err, "error opening multipart file")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	return content, errors.Wrap(err, "error reading multipart file")
}

// pageSize reads the limit query parameter, clamped to [1, max].
func pageSize(r *http.Request, max int64) int64 {
	n, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if err != nil || n <= 0 {
		return max
	}
	return misc.Min(n, max)
}
