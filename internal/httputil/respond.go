package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors for the pipeline's failure taxonomy. Usecases return these
// (wrapped); the handler layer maps them to status codes.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrFormat             = errors.New("malformed input file")
)

type errorResponse struct {
	Error string `json:"error"`
}

func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, errorResponse{Error: message})
}

// RespondFromError maps a usecase error onto the HTTP surface.
func RespondFromError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrFormat):
		RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrPreconditionFailed):
		RespondError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, ErrNotFound):
		RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		RespondError(w, http.StatusConflict, err.Error())
	default:
		RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
