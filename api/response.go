package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// bodyError carries a message that is returned to the caller as is.
type bodyError struct {
	message string
}

func (e *bodyError) Error() string {
	return e.message
}

var (
	errNotJSON   = &bodyError{message: "Content-Type must be application/json"}
	errEmptyBody = &bodyError{message: "Request body is required"}
	errBadJSON   = &bodyError{message: "Invalid JSON in request body"}
)

// decodeJSONBody reads a bounded JSON body into dst. The returned error's text
// is safe to show to the caller.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errNotJSON
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errBadJSON
	}
	if strings.TrimSpace(string(data)) == "" {
		return errEmptyBody
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return errBadJSON
	}
	return nil
}
