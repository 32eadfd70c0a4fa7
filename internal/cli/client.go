package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mcoot/competitive-sudoku-go/internal/api/apierr"
	"github.com/mcoot/competitive-sudoku-go/internal/api/middleware"
	"github.com/mcoot/competitive-sudoku-go/internal/api/response"
	"github.com/mcoot/competitive-sudoku-go/internal/model"
)

// APIClient is an HTTP client for the JSON API. The line protocol carries
// game play; the API covers results, health and the watch stream.
type APIClient struct {
	baseURL    string
	playerID   model.PlayerID
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetPlayer sets the identity sent with each request
func (c *APIClient) SetPlayer(id model.PlayerID) {
	c.playerID = id
}

// APIError is an error response from the API
type APIError struct {
	Status int
	apierr.APIError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Do performs an HTTP request
func (c *APIClient) Do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.playerID != "" {
		req.Header.Set(middleware.PlayerHeader, string(c.playerID))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp apierr.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return &APIError{Status: resp.StatusCode, APIError: errResp.Error}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// Get performs a GET request
func (c *APIClient) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Watch streams snapshots of a game to fn until the server closes the
// stream, fn returns an error or ctx ends
func (c *APIClient) Watch(ctx context.Context, gameID model.GameID, fn func(response.GameSnapshot) error) error {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/v1/games/" + string(gameID) + "/watch"

	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{middleware.PlayerHeader: {string(c.playerID)}},
	})
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			var errResp apierr.ErrorResponse
			if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error.Code != "" {
				return &APIError{Status: resp.StatusCode, APIError: errResp.Error}
			}
			return fmt.Errorf("watch refused: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("watch failed: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		var snap response.GameSnapshot
		if err := wsjson.Read(ctx, conn, &snap); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("watch stream: %w", err)
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}
