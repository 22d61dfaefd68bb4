// Package backend is the typed client for the external Harris Vale REST API,
// which owns products, categories, cart persistence, and invoice generation.
// Every response arrives in a {success, data, message} envelope; this package
// unwraps it and maps failures onto the application error taxonomy.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/BadarHossain1/harris-vale-storefront/pkg/errors"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/httpclient"
)

// ErrMalformed indicates the backend answered with a body that does not match
// the envelope contract. Callers generally degrade to an empty result set.
var ErrMalformed = errors.New("backend: malformed response")

// envelope is the wire format every backend endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// Client issues requests against the backend through a circuit-broken HTTP
// client. Reads retry transient failures; mutations are sent exactly once so
// a failed call surfaces to the user, who may retry deliberately.
type Client struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// New creates a backend client for the given base URL.
func New(baseURL string, http *httpclient.CircuitBreakerClient, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		logger:  logger,
	}
}

// url joins the base URL with a path.
func (c *Client) url(path string) string {
	return c.baseURL + path
}

// decodeEnvelope unwraps a backend response into its data payload.
//
// Non-2xx statuses and {success:false} envelopes become AppErrors carrying
// the backend's own message so it can be surfaced to the user. Bodies that
// do not parse as an envelope yield ErrMalformed.
func (c *Client) decodeEnvelope(ctx context.Context, resp *http.Response) (json.RawMessage, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.WarnContext(ctx, "backend response does not match envelope",
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return nil, apperrors.Backend(env.Message)
	}

	return env.Data, nil
}

// getJSON issues a GET and decodes the envelope data into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.http.Get(ctx, c.url(path))
	if err != nil {
		return fmt.Errorf("backend GET %s: %w", path, err)
	}
	data, err := c.decodeEnvelope(ctx, resp)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrMalformed, err)
	}
	return nil
}

// sendJSON issues a request with a JSON body and decodes the envelope data
// into out (which may be nil when only confirmation matters).
func (c *Client) sendJSON(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = strings.NewReader(string(data))
	}

	var resp *http.Response
	var err error
	switch method {
	case http.MethodPost:
		resp, err = c.http.Post(ctx, c.url(path), "application/json", payload)
	case http.MethodPut:
		resp, err = c.http.Put(ctx, c.url(path), "application/json", payload)
	case http.MethodDelete:
		resp, err = c.http.Delete(ctx, c.url(path))
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}

	data, err := c.decodeEnvelope(ctx, resp)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrMalformed, err)
	}
	return nil
}
