// internal/client/presence_client.go

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campus-client/internal/model"
)

// PresenceClient talks to the presence endpoints of the campus API.
type PresenceClient interface {
	GetUserPresence(ctx context.Context, userID string) (*model.PresenceInfo, error)
	CheckUserOnline(ctx context.Context, userID string) (*model.OnlineStatus, error)
	GetBulkPresence(ctx context.Context, userIDs []string) (map[string]model.PresenceInfo, error)
	GetConversationOnlineUsers(ctx context.Context, conversationID string) ([]model.PresenceInfo, error)
}

type presenceClient struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewPresenceClient(baseURL string, tokens TokenSource, timeout time.Duration) PresenceClient {
	return &presenceClient{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *presenceClient) GetUserPresence(ctx context.Context, userID string) (*model.PresenceInfo, error) {
	url := fmt.Sprintf("%s/presence/%s", c.baseURL, userID)

	var result model.PresenceInfo
	if err := c.get(ctx, url, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *presenceClient) CheckUserOnline(ctx context.Context, userID string) (*model.OnlineStatus, error) {
	url := fmt.Sprintf("%s/presence/%s/online", c.baseURL, userID)

	var result model.OnlineStatus
	if err := c.get(ctx, url, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *presenceClient) GetBulkPresence(ctx context.Context, userIDs []string) (map[string]model.PresenceInfo, error) {
	url := fmt.Sprintf("%s/presence/bulk", c.baseURL)

	jsonBody, err := json.Marshal(model.BulkPresenceRequest{UserIDs: userIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result model.BulkPresenceResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	if result.Presences == nil {
		result.Presences = map[string]model.PresenceInfo{}
	}
	return result.Presences, nil
}

func (c *presenceClient) GetConversationOnlineUsers(ctx context.Context, conversationID string) ([]model.PresenceInfo, error) {
	url := fmt.Sprintf("%s/presence/conversation/%s/online", c.baseURL, conversationID)

	var result model.ConversationOnlineResponse
	if err := c.get(ctx, url, &result); err != nil {
		return nil, err
	}
	return result.OnlineUsers, nil
}

func (c *presenceClient) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *presenceClient) do(req *http.Request, out interface{}) error {
	if c.tokens != nil {
		token, err := c.tokens.Token(req.Context())
		if err != nil {
			return fmt.Errorf("failed to get auth token: %w", err)
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("presence request failed: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
