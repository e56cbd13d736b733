package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// failureResponse is the body of every non-2xx auth response.
type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, failureResponse{Success: false, Error: msg, Code: code})
}

// decodeJSON decodes a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	return decodeBody(w, r, maxBytes, dst, true)
}

// decodeLooseJSON accepts unknown fields; provider payloads carry far more
// than we read.
func decodeLooseJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	return decodeBody(w, r, maxBytes, dst, false)
}

func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any, strict bool) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure there is no extra data after the first JSON value.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
