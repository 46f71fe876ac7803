package server

import (
	"encoding/json"
	"net/http"
)

func (s Server) writeJsonResponse(w http.ResponseWriter, response any, statusCode int) {
	if resp, err := json.Marshal(response); err != nil {
		s.Logger.Errorf("Error encoding response: %+v, err: %v", response, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		if _, err = w.Write(resp); err != nil {
			s.Logger.Errorf("Error writing JSON response: %s, err: %v", resp, err)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeErrorResponse sends the human-readable error strings the app shows
// directly to the user ("Not enough coins", "already decided", ...).
func (s Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJsonResponse(w, errorResponse{Error: message}, statusCode)
}
