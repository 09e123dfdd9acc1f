// Package engine is the HTTP client for the k.LAB engine's public API:
// sessions, context and observation requests, ticket polling and exports.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/reoring/goklab/internal/logging"
	"github.com/reoring/goklab/internal/wire"
)

// Version is the k.LAB release this client speaks to.
const Version = "0.11.0"

// UserAgent is sent with every request.
const UserAgent = "k.LAB/" + Version + " (client:klab-api)"

// Endpoints relative to the engine URL. Braced segments are path variables.
const (
	EndpointPing             = "/ping"
	EndpointAuthenticateUser = apiBase + "/users/log-in"
	EndpointDeauthenticate   = apiBase + "/users/log-out"
	EndpointCreateContext    = publicBase + "/submit/context"
	EndpointObserveInContext = publicBase + "/submit/observation/" + pathContext
	EndpointSubmitEstimate   = publicBase + "/submit/estimate/" + pathEstimate
	EndpointExportData       = publicBase + "/export/" + pathExport + "/" + pathObservation
	EndpointTicketInfo       = publicBase + "/ticket/info/" + pathTicket
)

const (
	apiBase    = "/api/v2"
	publicBase = apiBase + "/public"

	pathContext     = "{context}"
	pathEstimate    = "{estimate}"
	pathExport      = "{export}"
	pathObservation = "{observation}"
	pathTicket      = "{ticket}"

	headerAuthorization = "Authorization"
	headerAccept        = "Accept"
	headerUserAgent     = "User-Agent"
	headerContentType   = "Content-Type"
	mediaJSON           = "application/json"

	defaultPollInterval = 5 * time.Second
	defaultPollTimeout  = 900 * time.Second
	maxErrorBody        = 512
)

// Client talks to one engine. It is safe for concurrent use once
// authenticated.
type Client struct {
	url          string
	http         *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration

	mu     sync.RWMutex
	token  string
	remote bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPollInterval sets how often tickets are polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithPollTimeout bounds how long a ticket is waited for.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}

// New returns a client for the engine at engineURL. Trailing slashes are
// dropped. The client is offline until Authenticate or Login succeeds.
func New(engineURL string, opts ...Option) *Client {
	c := &Client{
		url:          strings.TrimRight(engineURL, "/"),
		http:         http.DefaultClient,
		logger:       logging.Discard(),
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL returns the engine base URL.
func (c *Client) URL() string { return c.url }

// IsOnline reports whether the client holds a session token.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// Token returns the session token, empty when offline.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Authenticate opens the default session of a local engine. No credentials
// are needed; the engine hands out its local session id.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	var resp struct {
		LocalSessionID string `json:"localSessionId"`
	}
	if err := c.call(ctx, http.MethodGet, EndpointPing, nil, &resp, false); err != nil {
		return "", err
	}
	if resp.LocalSessionID == "" {
		return "", fmt.Errorf("%w: engine at %s did not grant a local session", ErrNotOnline, c.url)
	}
	c.setToken(resp.LocalSessionID, false)
	c.logger.Info("engine session opened", "url", c.url, "local", true)
	return resp.LocalSessionID, nil
}

// Login authenticates with a remote engine.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}
	var resp struct {
		Session        string `json:"session"`
		Authentication struct {
			TokenString string `json:"tokenString"`
		} `json:"authentication"`
	}
	if err := c.call(ctx, http.MethodPost, EndpointAuthenticateUser, req, &resp, false); err != nil {
		return "", err
	}
	token := resp.Session
	if token == "" {
		token = resp.Authentication.TokenString
	}
	if token == "" {
		return "", fmt.Errorf("%w: login for %q returned no session", ErrNotOnline, username)
	}
	c.setToken(token, true)
	c.logger.Info("engine session opened", "url", c.url, "user", username)
	return token, nil
}

// Logout closes the session. Local sessions survive on the engine and are
// only forgotten by the client.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.RLock()
	remote, online := c.remote, c.token != ""
	c.mu.RUnlock()
	if !online {
		return nil
	}
	if remote {
		if err := c.call(ctx, http.MethodPost, EndpointDeauthenticate, struct{}{}, nil, true); err != nil {
			return err
		}
	}
	c.setToken("", false)
	c.logger.Info("engine session closed", "url", c.url)
	return nil
}

// SubmitContext posts a context request and returns the ticket id.
func (c *Client) SubmitContext(ctx context.Context, req *ContextRequest) (string, error) {
	var t Ticket
	if err := c.call(ctx, http.MethodPost, EndpointCreateContext, req, &t, true); err != nil {
		return "", err
	}
	return ticketID(&t)
}

// SubmitObservation posts an observation request for an existing context.
func (c *Client) SubmitObservation(ctx context.Context, req *ObservationRequest) (string, error) {
	endpoint := strings.Replace(EndpointObserveInContext, pathContext, url.PathEscape(req.ContextID), 1)
	var t Ticket
	if err := c.call(ctx, http.MethodPost, endpoint, req, &t, true); err != nil {
		return "", err
	}
	return ticketID(&t)
}

// SubmitEstimate accepts a previous estimate and starts the estimated task.
func (c *Client) SubmitEstimate(ctx context.Context, estimateID string) (string, error) {
	endpoint := strings.Replace(EndpointSubmitEstimate, pathEstimate, url.PathEscape(estimateID), 1)
	var t Ticket
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &t, true); err != nil {
		return "", err
	}
	return ticketID(&t)
}

// GetTicket fetches the current state of a ticket.
func (c *Client) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	endpoint := strings.Replace(EndpointTicketInfo, pathTicket, url.PathEscape(id), 1)
	var t Ticket
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &t, true); err != nil {
		return nil, err
	}
	if t.ID == "" {
		return nil, fmt.Errorf("%w: ticket %s not found", ErrRemote, id)
	}
	return &t, nil
}

// GetObservation fetches the structure of an observation.
func (c *Client) GetObservation(ctx context.Context, id string) (*ObservationReference, error) {
	endpoint := exportEndpoint(ExportStructure, id)
	var ref ObservationReference
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &ref, true); err != nil {
		return nil, err
	}
	if ref.ID == "" {
		return nil, fmt.Errorf("%w: observation %s not found", ErrRemote, id)
	}
	return &ref, nil
}

// StreamExport copies an export of the observation to w and returns the
// number of bytes written.
func (c *Client) StreamExport(ctx context.Context, observationID string, target Export, format ExportFormat, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, exportEndpoint(target, observationID), format.MediaType(), nil, true)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("engine: export %s of %s: %w", target, observationID, err)
	}
	c.logger.Debug("export streamed", "observation", observationID, "target", target.String(), "format", format.String(), "bytes", n)
	return n, nil
}

// ---- transport ----

// call sends a JSON request and decodes a JSON response into out (when
// non-nil).
func (c *Client) call(ctx context.Context, method, endpoint string, in, out any, auth bool) error {
	var body []byte
	if in != nil {
		b, err := wire.Marshal(in)
		if err != nil {
			return fmt.Errorf("engine: encode %s request: %w", endpoint, err)
		}
		body = b
	}
	resp, err := c.send(ctx, method, endpoint, mediaJSON, body, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := wire.Decode(resp.Body, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrRemote, method, endpoint, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint, accept string, body []byte, auth bool) (*http.Response, error) {
	token := c.Token()
	if auth && token == "" {
		return nil, fmt.Errorf("%w: %s %s", ErrNotOnline, method, endpoint)
	}
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+endpoint, r)
	if err != nil {
		return nil, fmt.Errorf("engine: build request: %w", err)
	}
	req.Header.Set(headerUserAgent, UserAgent)
	req.Header.Set(headerAccept, accept)
	if body != nil {
		req.Header.Set(headerContentType, mediaJSON)
	}
	if token != "" {
		req.Header.Set(headerAuthorization, token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine: %s %s: %w", method, endpoint, err)
	}
	c.logger.Debug("engine request", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method:   method,
			Endpoint: endpoint,
			Code:     resp.StatusCode,
			Status:   resp.Status,
			Body:     strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

func (c *Client) setToken(token string, remote bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.remote = remote
}

func exportEndpoint(target Export, id string) string {
	r := strings.NewReplacer(pathExport, target.String(), pathObservation, url.PathEscape(id))
	return r.Replace(EndpointExportData)
}

func ticketID(t *Ticket) (string, error) {
	if t.ID == "" {
		return "", fmt.Errorf("%w: engine returned no ticket", ErrRemote)
	}
	return t.ID, nil
}
