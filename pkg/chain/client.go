// Package chain reads public state from the game's chain indexer. Read-only;
// the agent uses it to ground posts in what actually happened on chain.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Round is one completed game round.
type Round struct {
	Number  int       `json:"number"`
	Winner  string    `json:"winner"`
	Pot     float64   `json:"pot"`
	EndedAt time.Time `json:"ended_at"`
}

// Player is one leaderboard entry.
type Player struct {
	Address string  `json:"address"`
	Name    string  `json:"name,omitempty"`
	Wins    int     `json:"wins"`
	Score   float64 `json:"score"`
}

// Client queries the chain indexer's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an indexer client. baseURL must be non-empty.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("chain base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// LatestRound returns the most recently completed round.
func (c *Client) LatestRound(ctx context.Context) (*Round, error) {
	var round Round
	if err := c.get(ctx, "/api/rounds/latest", &round); err != nil {
		return nil, fmt.Errorf("latest round: %w", err)
	}
	return &round, nil
}

// TopPlayers returns up to limit leaderboard entries, best first.
func (c *Client) TopPlayers(ctx context.Context, limit int) ([]Player, error) {
	path := "/api/players/top"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Players []Player `json:"players"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("top players: %w", err)
	}
	return out.Players, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("indexer returned %d: %s", resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
