// internal/push/registrar.go
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"campus-client/internal/client"
)

// restRegistrar posts the webpush subscription to the campus API.
type restRegistrar struct {
	baseURL    string
	tokens     client.TokenSource
	httpClient *http.Client
}

func NewRESTRegistrar(baseURL string, tokens client.TokenSource, timeout time.Duration) Registrar {
	return &restRegistrar{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (r *restRegistrar) Register(ctx context.Context, sub *webpush.Subscription) error {
	jsonBody, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	url := fmt.Sprintf("%s/push/subscriptions", r.baseURL)
	return r.send(ctx, "POST", url, jsonBody)
}

func (r *restRegistrar) Unregister(ctx context.Context, endpoint string) error {
	jsonBody, err := json.Marshal(map[string]string{"endpoint": endpoint})
	if err != nil {
		return fmt.Errorf("failed to marshal unregister body: %w", err)
	}

	url := fmt.Sprintf("%s/push/subscriptions/delete", r.baseURL)
	return r.send(ctx, "POST", url, jsonBody)
}

func (r *restRegistrar) send(ctx context.Context, method, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if r.tokens != nil {
		token, err := r.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to get auth token: %w", err)
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("subscription request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}
	return nil
}
