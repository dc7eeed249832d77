// Package respond writes JSON responses. Error bodies always have the
// shape {"detail": "..."}.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorBody is the error payload returned by every endpoint.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// internalErrorBody is written when v cannot be encoded.
var internalErrorBody = []byte(`{"detail":"Internal server error"}` + "\n")

// JSON encodes v with the given status code. v is marshalled before
// anything is written, so an unencodable value turns into a 500 instead
// of a truncated body. The marshal or write error is returned for the
// caller to log; the request logger also records write failures.
func JSON(w http.ResponseWriter, statusCode int, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		Raw(w, http.StatusInternalServerError, internalErrorBody)
		return fmt.Errorf("encode response: %w", err)
	}
	return Raw(w, statusCode, append(body, '\n'))
}

// Raw writes an already encoded JSON body unchanged.
func Raw(w http.ResponseWriter, statusCode int, body []byte) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Error writes {"detail": detail}.
func Error(w http.ResponseWriter, statusCode int, detail string) error {
	return JSON(w, statusCode, ErrorBody{Detail: detail})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
