package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, detail)
}

// decodeJSON reads a single JSON object. Any problem with the body is a
// validation error.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return common.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// writeServiceError is the single place service errors become statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Field+": "+ve.Msg)
	case errors.Is(err, common.ErrConflict):
		writeError(w, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, common.ErrUnauthorized):
		writeUnauthorized(w, "Invalid credentials")
	case errors.Is(err, common.ErrInvalidToken):
		writeUnauthorized(w, "Could not validate credentials")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
