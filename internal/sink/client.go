package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ayusman/neurosprint/internal/server/api"
	"github.com/ayusman/neurosprint/internal/store"
)

// DefaultTimeout bounds every replica request.
const DefaultTimeout = 5 * time.Second

// Client talks to a leaderboard replica over its HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the replica at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the replica address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks that the replica answers.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

// EnsureUser registers u on the replica. An existing user is not an error.
func (c *Client) EnsureUser(ctx context.Context, u *store.User) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/users", api.CreateUserRequest{
		Username: u.Username,
		Age:      u.Age,
		Gender:   u.Gender,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusCreated, http.StatusConflict)
}

// PushSession sends a stored session. Pushing the same session twice is
// acknowledged by the replica without duplicating it.
func (c *Client) PushSession(ctx context.Context, username string, sess *store.Session) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/sessions", api.NewSessionRequest(username, sess))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusCreated, http.StatusOK)
}

// Leaderboard fetches the replica leaderboard.
func (c *Client) Leaderboard(ctx context.Context, f store.LeaderboardFilter) ([]store.LeaderboardEntry, error) {
	path := "/api/leaderboard?" + api.EncodeLeaderboardQuery(f).Encode()
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	var entries []store.LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, goerr.Wrap(err, "decode leaderboard", goerr.V("url", c.baseURL))
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, goerr.Wrap(err, "encode request", goerr.V("path", path))
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, goerr.Wrap(err, "build request", goerr.V("path", path))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "replica request failed", goerr.V("method", method), goerr.V("url", req.URL.String()))
	}
	return resp, nil
}

func expectStatus(resp *http.Response, ok ...int) error {
	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}

	var e api.ErrorResponse
	json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
	return goerr.New("unexpected replica status",
		goerr.V("status", resp.StatusCode),
		goerr.V("url", resp.Request.URL.String()),
		goerr.V("error", e.Error))
}
