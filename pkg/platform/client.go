// Package platform implements the HTTP client for the discussion platform.
//
// Write endpoints are gated by an anti-automation check: the server may
// answer 403 with an embedded arithmetic challenge, and the request only
// succeeds when resubmitted with the solved answer. The client handles that
// handshake transparently through an injected ChallengeSolver.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/murmurbot/murmur/pkg/types"
)

// ChallengeSolver answers one obfuscated arithmetic challenge.
type ChallengeSolver interface {
	Solve(ctx context.Context, challenge string) (string, error)
}

// Config configures the platform client.
type Config struct {
	BaseURL    string
	Token      string
	AgentName  string
	Solver     ChallengeSolver
	HTTPClient *http.Client
}

// Client talks to the platform's REST API.
type Client struct {
	baseURL string
	token   string
	agent   string
	solver  ChallengeSolver
	http    *http.Client
}

// NewClient creates a platform client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("platform base URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("platform token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		agent:   cfg.AgentName,
		solver:  cfg.Solver,
		http:    httpClient,
	}, nil
}

// FetchFeed returns posts matching the filter.
func (c *Client) FetchFeed(ctx context.Context, filter types.FeedFilter) ([]*types.Post, error) {
	q := url.Values{}
	if filter.Sort != "" {
		q.Set("sort", filter.Sort)
	}
	if filter.Topic != "" {
		q.Set("topic", filter.Topic)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	path := "/api/feed"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Posts []*types.Post `json:"posts"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// FetchPost returns one post with its full comment tree.
func (c *Client) FetchPost(ctx context.Context, id string) (*types.Post, error) {
	var post types.Post
	if err := c.get(ctx, "/api/posts/"+url.PathEscape(id), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes a new top-level post.
func (c *Client) CreatePost(ctx context.Context, title, content, topic string) (*types.Post, error) {
	payload := map[string]any{
		"title":   title,
		"content": content,
		"topic":   topic,
	}
	var post types.Post
	if err := c.write(ctx, "/api/posts", payload, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// CreateComment adds a top-level comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID, content string) (*types.Comment, error) {
	payload := map[string]any{"content": content}
	var comment types.Comment
	path := "/api/posts/" + url.PathEscape(postID) + "/comments"
	if err := c.write(ctx, path, payload, &comment); err != nil {
		return nil, fmt.Errorf("create comment on %s: %w", postID, err)
	}
	return &comment, nil
}

// CreateReply adds a reply under an existing comment.
func (c *Client) CreateReply(ctx context.Context, postID, parentID, content string) (*types.Comment, error) {
	payload := map[string]any{
		"post_id": postID,
		"content": content,
	}
	var comment types.Comment
	path := "/api/comments/" + url.PathEscape(parentID) + "/replies"
	if err := c.write(ctx, path, payload, &comment); err != nil {
		return nil, fmt.Errorf("create reply under %s: %w", parentID, err)
	}
	return &comment, nil
}

// Vote casts a vote on a post.
func (c *Client) Vote(ctx context.Context, postID string, dir types.VoteDirection) error {
	payload := map[string]any{"direction": string(dir)}
	path := "/api/posts/" + url.PathEscape(postID) + "/votes"
	if err := c.write(ctx, path, payload, nil); err != nil {
		return fmt.Errorf("vote on %s: %w", postID, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.decode(resp, out)
}

// write POSTs a payload. On a 403 challenge response it solves the embedded
// challenge and retries exactly once, reusing the idempotency key.
func (c *Client) write(ctx context.Context, path string, payload map[string]any, out any) error {
	key := uuid.NewString()

	resp, err := c.post(ctx, path, payload, key)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		return c.decode(resp, out)
	}

	var gate struct {
		ChallengeID string `json:"challenge_id"`
		Challenge   string `json:"challenge"`
	}
	body, _ := io.ReadAll(resp.Body)
	if jsonErr := json.Unmarshal(body, &gate); jsonErr != nil || gate.Challenge == "" {
		return fmt.Errorf("platform returned 403: %s", body)
	}
	if c.solver == nil {
		return fmt.Errorf("challenge received but no solver configured")
	}

	answer, err := c.solver.Solve(ctx, gate.Challenge)
	if err != nil {
		return fmt.Errorf("solve challenge: %w", err)
	}

	payload["challenge_id"] = gate.ChallengeID
	payload["challenge_answer"] = answer
	retry, err := c.post(ctx, path, payload, key)
	if err != nil {
		return err
	}
	defer retry.Body.Close()

	return c.decode(retry, out)
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any, idempotencyKey string) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, idempotencyKey)
	req.Header.Set("Content-Type", "application/json")

	return c.http.Do(req)
}

func (c *Client) setHeaders(req *http.Request, idempotencyKey string) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.agent != "" {
		req.Header.Set("X-Agent-Name", c.agent)
	}
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}
}

func (c *Client) decode(resp *http.Response, out any) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("platform returned %d: %s", resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
