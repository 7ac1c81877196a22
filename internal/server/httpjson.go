// Package server wires the HTTP surface: routing, request decoding, and the
// mapping from the error taxonomy to status codes.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"parish-platform/internal/apperr"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: response encode failed: %v", err)
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Denial kinds get
// fixed bodies: a denied read must be byte-identical to a true miss, so the
// server-side detail stays in logs and audit entries. Validation kinds echo
// their detail so clients can correct the request. Transient errors collapse
// to a generic 503 so store internals never leak.
func respondError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "sign in required"})
	case apperr.KindForbidden:
		respondJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case apperr.KindNotFound:
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case apperr.KindInvalid:
		respondJSON(w, http.StatusBadRequest, errorBody{Error: clientDetail(err)})
	case apperr.KindConflict:
		respondJSON(w, http.StatusConflict, errorBody{Error: clientDetail(err)})
	default:
		log.Printf("server: internal error: %v", err)
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: "temporarily unavailable"})
	}
}

func clientDetail(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return "request failed"
}

// decodeJSON reads the request body into v with a size cap. Unknown fields
// are left to each handler's own validation.
func decodeJSON(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer io.Copy(io.Discard, body) //nolint:errcheck
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return apperr.Wrap(apperr.KindInvalid, "malformed JSON body", err)
	}
	return nil
}
