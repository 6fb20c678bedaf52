package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-pairs/internal/scoring"

	"github.com/gorilla/websocket"
)

// APIError is a non-2xx response from the ranking server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("leaderboard: server returned %d: %s", e.Status, e.Message)
}

// Client talks to a ranking server. It carries only a player token, never
// the signing secret.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for baseURL. token may be empty when the
// server does not require one.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &body); err != nil {
		return err
	}
	if body.Status != "OK" {
		return fmt.Errorf("leaderboard: unhealthy server status %q", body.Status)
	}
	return nil
}

// Submit posts a finished game.
func (c *Client) Submit(ctx context.Context, playerName string, r scoring.Result) error {
	return c.do(ctx, http.MethodPost, "/api/ranking", SubmissionFromResult(playerName, r), nil)
}

// Global fetches the global ranking, optionally for one difficulty.
func (c *Client) Global(ctx context.Context, difficulty string, limit int) ([]Entry, error) {
	q := url.Values{}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/ranking/global"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var entries []Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Player fetches the entries matching a player name.
func (c *Client) Player(ctx context.Context, name string) ([]Entry, error) {
	var entries []Entry
	if err := c.do(ctx, http.MethodGet, "/api/ranking/player/"+url.PathEscape(name), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Watch subscribes to the live feed and calls fn for every new entry until
// ctx is done or the connection drops.
func (c *Client) Watch(ctx context.Context, fn func(Entry)) error {
	u, err := url.Parse(c.baseURL + "/api/ranking/ws")
	if err != nil {
		return fmt.Errorf("leaderboard: bad server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("leaderboard: cannot connect to feed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg RankingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("leaderboard: feed closed: %w", err)
		}
		if msg.Type == "ranking" {
			fn(msg.Entry)
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("leaderboard: cannot encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("leaderboard: cannot build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("leaderboard: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("leaderboard: cannot decode response: %w", err)
	}
	return nil
}
