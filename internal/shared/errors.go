package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication & session errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionEnded     = fmt.Errorf("session ended")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrAccountExists    = fmt.Errorf("account already exists")

	// Gateway errors
	ErrGateway            = fmt.Errorf("gateway request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDocumentNotFound   = fmt.Errorf("document not found")
	ErrRevisionConflict   = fmt.Errorf("revision conflict")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
