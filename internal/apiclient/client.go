package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mind-engage/plant-eval/internal/evaluation"
)

// Client talks to the evaluation API. One request is outstanding per call;
// nothing is queued or retried.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base: strings.TrimSuffix(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Token is the bearer token from the last successful login.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

// Logout forgets the bearer token.
func (c *Client) Logout() { c.setToken("") }

func (c *Client) Login(ctx context.Context, username, password string) (evaluation.User, error) {
	var out struct {
		Token string          `json:"token"`
		User  evaluation.User `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &out); err != nil {
		return evaluation.User{}, err
	}
	if out.Token == "" || out.User.ID == "" {
		return evaluation.User{}, fmt.Errorf("%w: login response incomplete", evaluation.ErrNetwork)
	}
	c.setToken(out.Token)
	return out.User, nil
}

func (c *Client) BlockStatus(ctx context.Context, userID string) (evaluation.BlockStatus, error) {
	var out evaluation.BlockStatus
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/exam-block", nil, &out)
	return out, err
}

func (c *Client) HasPermission(ctx context.Context, userID string, t evaluation.Type) (bool, error) {
	var out struct {
		Allowed bool `json:"allowed"`
	}
	path := "/api/users/" + url.PathEscape(userID) + "/permissions/" + url.PathEscape(string(t))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Allowed, nil
}

func (c *Client) Template(ctx context.Context, t evaluation.Type) (evaluation.Evaluation, error) {
	var out evaluation.Evaluation
	err := c.do(ctx, http.MethodGet, "/api/evaluations/"+url.PathEscape(string(t)), nil, &out)
	return out, err
}

// SaveResult posts a finished attempt. userID travels in the token.
func (c *Client) SaveResult(ctx context.Context, userID string, r evaluation.Result) error {
	var out struct {
		ID string `json:"id"`
	}
	return c.do(ctx, http.MethodPost, "/api/results", r, &out)
}

func (c *Client) Companies(ctx context.Context) ([]evaluation.CompanyStats, error) {
	var out []evaluation.CompanyStats
	err := c.do(ctx, http.MethodGet, "/api/companies", nil, &out)
	return out, err
}

// do performs one request. Transport and decode failures become ErrNetwork;
// status codes map onto the error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", evaluation.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", evaluation.ErrNetwork, method, path, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return evaluation.ErrAuth
	case res.StatusCode == http.StatusForbidden:
		return evaluation.ErrAccessDenied
	case res.StatusCode == http.StatusLocked:
		return evaluation.ErrExamBlocked
	case res.StatusCode == http.StatusNotFound:
		return evaluation.ErrNotFound
	case res.StatusCode/100 != 2:
		return fmt.Errorf("%w: %s %s: %s", evaluation.ErrNetwork, method, path, res.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", evaluation.ErrNetwork, path, err)
	}
	return nil
}
