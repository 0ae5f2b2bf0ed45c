package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/musicdash/internal/shared"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// gatewayMessage is shown for failures the user cannot fix.
const gatewayMessage = "The music service is unavailable, please try again"

type fieldBody struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error  string      `json:"error"`
	Fields []fieldBody `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrPlaylistNotFound), errors.Is(err, shared.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrSessionEnded),
		errors.Is(err, shared.ErrAuthFailed),
		errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrAccountExists):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// writeError answers with the status for err. Gateway failures are logged and hidden behind a
// generic message; everything else is the user's to fix and is not logged.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var verr *shared.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Error = verr.Error()
		for _, f := range verr.Fields {
			body.Fields = append(body.Fields, fieldBody{Field: f.Field, Message: f.Message})
		}
	case status == http.StatusNotFound:
		body.Error = "Not found"
	case status == http.StatusUnauthorized:
		body.Error = "Please log in"
		if errors.Is(err, shared.ErrAuthFailed) || errors.Is(err, shared.ErrInvalidCredentials) {
			body.Error = "Invalid email or password"
		}
	case status == http.StatusConflict:
		body.Error = "An account with this email already exists"
	case status == http.StatusBadGateway:
		logger.Error("gateway failure", "error", err)
		body.Error = gatewayMessage
	}

	writeJSON(w, status, body)
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return shared.Invalid("body", "request body is required")
		}
		return shared.Invalid("body", "malformed JSON: %v", err)
	}
	return nil
}

// requirePath returns the named path value or a validation error.
func requirePath(r *http.Request, name string) (string, error) {
	v := r.PathValue(name)
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, name)
	}
	return v, nil
}
