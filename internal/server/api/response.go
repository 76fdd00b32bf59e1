package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/lookup"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
)

// ErrorBody is written for every non-2xx response.
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type MessageBody struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type CardList struct {
	Cards []models.Card `json:"cards"`
	Total int           `json:"total"`
}

func cardList(cs []models.Card) CardList {
	if cs == nil {
		cs = []models.Card{}
	}
	return CardList{Cards: cs, Total: len(cs)}
}

// JSONResponse writes v as the JSON body with the given status.
func JSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an ErrorBody; the error field is the status text.
func Error(w http.ResponseWriter, status int, detail string) {
	JSONResponse(w, status, ErrorBody{Error: http.StatusText(status), Detail: detail})
}

// StatusFor maps an error chain onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrUnsupported), errors.Is(err, common.ErrConfig), errors.Is(err, lookup.ErrDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, common.ErrStorageUnavailable), errors.Is(err, lookup.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// detailFor keeps user-facing messages for client errors and hides the
// internals of server errors.
func detailFor(err error, status int) string {
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented && status != http.StatusServiceUnavailable {
		return "internal error"
	}
	return err.Error()
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	Error(w, status, detailFor(err, status))
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.InvalidField("", "Invalid request body: "+err.Error())
	}
	return nil
}
