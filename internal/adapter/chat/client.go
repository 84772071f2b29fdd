// Package chat provides the outbound messaging transport: plain text
// replies and interactive choice prompts for disambiguation.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client sends messages through the messaging platform's graph API.
type Client struct {
	baseURL     string
	phoneID     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates an outbound messaging client.
func NewClient(baseURL, phoneID, accessToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		phoneID:     phoneID,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	return c.post(ctx, payload)
}

// SendChoiceList sends an interactive list prompt. Items beyond the cap were
// already truncated by the caller.
func (c *Client) SendChoiceList(ctx context.Context, to, prompt string, items []ChoiceItem) error {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		row := map[string]string{
			"id":    item.ID,
			"title": item.Title,
		}
		if item.Description != "" {
			row["description"] = item.Description
		}
		rows = append(rows, row)
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]interface{}{
			"type":   "list",
			"header": map[string]string{"type": "text", "text": "Selection"},
			"body":   map[string]string{"text": prompt},
			"footer": map[string]string{"text": "Please tap to select"},
			"action": map[string]interface{}{
				"button": "Select",
				"sections": []map[string]interface{}{
					{"title": "Matches", "rows": rows},
				},
			},
		},
	}
	return c.post(ctx, payload)
}

// SendChoiceButtons sends an interactive reply-button prompt.
func (c *Client) SendChoiceButtons(ctx context.Context, to, prompt string, items []ChoiceItem) error {
	buttons := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		buttons = append(buttons, map[string]interface{}{
			"type": "reply",
			"reply": map[string]string{
				"id":    item.ID,
				"title": item.Title,
			},
		})
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]interface{}{
			"type":   "button",
			"body":   map[string]string{"text": prompt},
			"action": map[string]interface{}{"buttons": buttons},
		},
	}
	return c.post(ctx, payload)
}

func (c *Client) post(ctx context.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message payload: %w", err)
	}

	u := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build message request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("message send failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("message API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
