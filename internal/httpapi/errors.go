package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"traind/internal/builder"
	"traind/internal/device"
	"traind/internal/registry"
	"traind/internal/training"
	"traind/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// mapError translates service errors into HTTP status codes. Anything
// unrecognized becomes a 500.
func mapError(err error) int {
	switch {
	case device.IsNotFound(err),
		device.IsUnknownPreference(err),
		registry.IsNotFound(err),
		training.IsNotFound(err):
		return http.StatusNotFound
	case device.IsPreferenceUnsatisfiable(err),
		registry.IsConflict(err),
		training.IsAlreadyTraining(err):
		return http.StatusConflict
	case builder.IsUnsupportedType(err),
		builder.IsInvalidArchitecture(err),
		registry.IsInvalidRequest(err),
		registry.IsUnsupportedFormat(err):
		return http.StatusBadRequest
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeError maps a service error and writes the JSON error payload.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, mapError(err), err.Error())
}
