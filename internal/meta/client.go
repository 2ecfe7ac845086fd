package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/vendebot/vende/pkg/cache"
)

// Client talks to the Meta Graph API for WhatsApp Cloud and Instagram messaging.
// Profile name lookups are cached in Redis to stay under Graph rate limits.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient creates a Graph API client. cache may be nil.
func NewClient(baseURL string, c *cache.Cache) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: c,
	}
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	MessageID string `json:"message_id"`
	Error     *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendWhatsApp sends a text message through the WhatsApp Cloud API and
// returns the provider message ID.
func (c *Client) SendWhatsApp(ctx context.Context, phoneNumberID, accessToken, to, body string) (string, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text": map[string]interface{}{
			"preview_url": false,
			"body":        body,
		},
	}

	respBody, err := c.post(ctx, fmt.Sprintf("/%s/messages", phoneNumberID), accessToken, payload)
	if err != nil {
		return "", err
	}

	var resp sendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("graph decode response: %w", err)
	}
	if len(resp.Messages) > 0 {
		return resp.Messages[0].ID, nil
	}
	return "", nil
}

// SendInstagram sends a text message to an Instagram-scoped user through the
// page messaging endpoint.
func (c *Client) SendInstagram(ctx context.Context, pageID, accessToken, recipientID, body string) (string, error) {
	payload := map[string]interface{}{
		"recipient": map[string]string{"id": recipientID},
		"message":   map[string]string{"text": body},
	}

	respBody, err := c.post(ctx, fmt.Sprintf("/%s/messages", pageID), accessToken, payload)
	if err != nil {
		return "", err
	}

	var resp sendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("graph decode response: %w", err)
	}
	return resp.MessageID, nil
}

// GetProfileName resolves the display name of a platform user. Results are
// cached for 24h; lookups that fail fall back to an empty name.
func (c *Client) GetProfileName(ctx context.Context, userID, accessToken, platform string) (string, error) {
	cacheKey := "profile:" + platform + ":" + userID
	if c.cache != nil {
		if name, err := c.cache.GetString(ctx, cacheKey); err == nil && name != "" {
			return name, nil
		}
	}

	field := "name"
	if platform == "instagram" {
		field = "username"
	}

	url := fmt.Sprintf("%s/%s?fields=%s&access_token=%s", c.baseURL, userID, field, accessToken)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("graph profile request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("graph read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("graph profile %s returned %d: %s", userID, resp.StatusCode, string(body))
	}

	var profile struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", fmt.Errorf("graph decode profile: %w", err)
	}

	name := profile.Name
	if name == "" {
		name = profile.Username
	}

	if c.cache != nil && name != "" {
		if err := c.cache.SetString(ctx, cacheKey, name, 24*time.Hour); err != nil {
			log.Printf("[Meta] Failed to cache profile name for %s: %v", userID, err)
		}
	}

	return name, nil
}

func (c *Client) post(ctx context.Context, path, accessToken string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("graph marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("graph read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph API %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	return body, nil
}
