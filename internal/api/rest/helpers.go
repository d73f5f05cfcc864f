package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/pressbox/internal/espn"
	"github.com/fortuna/pressbox/internal/store"
)

// listResponse is the envelope for paginated collections.
type listResponse struct {
	Count   int         `json:"count"`
	Results interface{} `json:"results"`
}

// errorBody is the envelope for every non-2xx response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a structured error response
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: message, Status: status},
	})
}

// respondServiceError maps service and upstream errors onto HTTP statuses.
// Unknown ids are 404s, ESPN failures surface as gateway errors, anything
// unclassified is a 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var statusErr *espn.StatusError

	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, espn.ErrNotFound):
		respondError(w, http.StatusNotFound, "espn_not_found", "ESPN has no such resource")
	case errors.Is(err, espn.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, "espn_rate_limit", "ESPN rate limit hit, retry later")
	case errors.Is(err, espn.ErrTimeout):
		respondError(w, http.StatusGatewayTimeout, "espn_timeout", "ESPN did not respond in time")
	case errors.Is(err, espn.ErrMalformed):
		respondError(w, http.StatusBadGateway, "espn_error", "ESPN returned an unreadable response")
	case errors.As(err, &statusErr):
		respondError(w, http.StatusBadGateway, "espn_error", fmt.Sprintf("ESPN returned status %d", statusErr.StatusCode))
	default:
		log.Printf("[api] ❌ Internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// readJSON decodes a request body into dst, capping the body at 1MB and
// rejecting unknown fields. Decode failures return a message suitable for
// a 400 response.
func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("body contains malformed JSON (at position %d)", syntaxErr.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains malformed JSON")
		case errors.As(err, &typeErr):
			if typeErr.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", typeErr.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at position %d)", typeErr.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown field %s", field)
		case errors.As(err, &maxBytesErr):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesErr.Limit)
		default:
			return err
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain a single JSON value")
	}

	return nil
}

// queryInt parses an optional integer query parameter, returning 0 when
// absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return value, nil
}

// parseDateParam parses an optional YYYY-MM-DD query parameter, returning
// the zero time when absent.
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be formatted YYYY-MM-DD", name)
	}
	return date, nil
}
