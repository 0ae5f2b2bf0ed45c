// HTTP transport shared by the remote document and account clients
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/musicdash/internal/shared"
)

const projectHeader = "X-Appwrite-Project"

// TransportOptions configures a [Transport].
type TransportOptions struct {
	Endpoint          string
	ProjectID         string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	FailureThreshold  uint32
	OpenTimeout       time.Duration
	Logger            *log.Logger
}

// Transport sends JSON requests to the hosted API.
//
// Every request waits on a rate limiter and runs inside a circuit breaker; only transport failures
// and 5xx responses count against the breaker.
type Transport struct {
	endpoint string
	project  string
	logger   *log.Logger
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]

	base *http.Client

	mu     sync.RWMutex
	client *http.Client
}

// NewTransport creates a [Transport]. The authenticated client starts as the plain client.
func NewTransport(opts TransportOptions) *Transport {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	t := &Transport{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		project:  opts.ProjectID,
		logger:   opts.Logger,
		limiter:  rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		base:     &http.Client{Timeout: opts.Timeout},
	}
	t.client = t.base

	threshold := opts.FailureThreshold
	t.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "remote-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			t.logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return t
}

// Endpoint returns the API base URL.
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// BaseClient returns the unauthenticated HTTP client.
func (t *Transport) BaseClient() *http.Client {
	return t.base
}

// SetClient swaps the client used for authenticated requests. A nil client restores the plain one.
func (t *Transport) SetClient(c *http.Client) {
	if c == nil {
		c = t.base
	}
	t.mu.Lock()
	t.client = c
	t.mu.Unlock()
}

func (t *Transport) current() *http.Client {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.client
}

// State reports the circuit breaker state.
func (t *Transport) State() string {
	return t.breaker.State().String()
}

// StatusError is a non-2xx response. It unwraps to the sentinel matching its status.
type StatusError struct {
	Code    int
	Type    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote API error: status %d", e.Code)
	}
	return fmt.Sprintf("remote API error: status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusNotFound:
		return shared.ErrDocumentNotFound
	case e.Code == http.StatusUnauthorized, e.Code == http.StatusForbidden:
		return shared.ErrNotAuthenticated
	case e.Code >= http.StatusInternalServerError:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrGateway
	}
}

// do sends one request. body and result may be nil.
func (t *Transport) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", shared.ErrGateway, err)
	}

	client := t.current()
	data, err := t.breaker.Execute(func() ([]byte, error) {
		return t.send(ctx, client, method, path, query, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	if err != nil {
		return err
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %w", shared.ErrGateway, err)
		}
	}
	return nil
}

func (t *Transport) send(ctx context.Context, client *http.Client, method, path string, query url.Values, body any) ([]byte, error) {
	u := t.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request: %w", shared.ErrInvalidInput, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", shared.ErrGateway, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.project != "" {
		req.Header.Set(projectHeader, t.project)
	}

	resp, err := client.Do(req)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, &StatusError{Code: http.StatusUnauthorized, Message: shared.ErrTokenExpired.Error()}
		}
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Code: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		}
		if json.Unmarshal(data, &payload) == nil {
			se.Message = payload.Message
			se.Type = payload.Type
		}
		t.logger.Debug("remote request failed", "method", method, "path", path, "status", resp.StatusCode)
		return nil, se
	}

	return data, nil
}
