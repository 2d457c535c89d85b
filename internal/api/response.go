package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/imaging"
	"github.com/erazemk/logistika/internal/store"
)

// Error kinds returned in the "error" field.
const (
	kindValidation        = "validation_error"
	kindNotFound          = "not_found"
	kindConflict          = "conflict"
	kindInvalidTransition = "invalid_transition"
	kindInternal          = "internal_error"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type envelope struct {
	Data any `json:"data"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Error("encoding response", zap.Error(err))
		}
	}
}

// jsonData wraps data in the {"data": ...} envelope.
func jsonData(w http.ResponseWriter, status int, data any) {
	jsonResponse(w, status, envelope{Data: data})
}

// jsonDeleted answers a delete with the removed row.
func jsonDeleted(w http.ResponseWriter, message string, data any) {
	jsonResponse(w, http.StatusOK, map[string]any{"message": message, "data": data})
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, kind, message string) {
	jsonResponse(w, status, errorBody{Error: kind, Message: message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body required")
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

// decodeValid decodes and validates a request body, writing a 400 response
// on failure. It reports whether the handler should continue.
func decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeJSON(w, r, target); err != nil {
		jsonError(w, http.StatusBadRequest, kindValidation, err.Error())
		return false
	}
	if err := validateStruct(target); err != nil {
		jsonError(w, http.StatusBadRequest, kindValidation, err.Error())
		return false
	}
	return true
}

// pathID parses the {id} path value, writing a 400 response on failure.
func pathID(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, kindValidation, "invalid "+entity+" id")
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter. Absent
// parameters yield 0.
func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, kindValidation, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, false, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		jsonError(w, http.StatusBadRequest, kindValidation, "invalid "+name)
		return 0, false, false
	}
	return n, true, true
}

// writeStoreError maps store errors onto HTTP responses. Unexpected errors
// are logged and answered with 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	switch {
	case errors.Is(err, store.ErrForeignKey):
		jsonError(w, http.StatusNotFound, kindNotFound, "referenced entity not found")
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, kindNotFound, entity+" not found")
	case errors.Is(err, store.ErrDuplicate):
		jsonError(w, http.StatusConflict, kindConflict, entity+" already exists")
	case errors.Is(err, store.ErrConstraint):
		jsonError(w, http.StatusBadRequest, kindValidation, "constraint violation")
	case errors.Is(err, store.ErrInvalidTransition):
		jsonError(w, http.StatusConflict, kindInvalidTransition, err.Error())
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusBadRequest, kindValidation, err.Error())
	default:
		loggerFrom(r.Context()).Error("request failed",
			zap.String("entity", entity),
			zap.Error(err),
		)
		jsonError(w, http.StatusInternalServerError, kindInternal, "internal server error")
	}
}
