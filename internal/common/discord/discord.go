package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type WebhookMessage struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       int       `json:"color"`
	Timestamp   time.Time `json:"timestamp"`
	Fields      []Field   `json:"fields,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type Client struct {
	webhookURL string
	httpClient *http.Client
}

func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether the client has a webhook to post to.
func (c *Client) Enabled() bool {
	return c != nil && c.webhookURL != ""
}

func (c *Client) SendMessage(ctx context.Context, msg WebhookMessage) error {
	if !c.Enabled() {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status: %d", resp.StatusCode)
	}

	return nil
}

// SendServiceNotice posts a plain lifecycle message, used for startup and
// shutdown announcements.
func (c *Client) SendServiceNotice(ctx context.Context, title, message string) error {
	embed := Embed{
		Title:       title,
		Description: message,
		Color:       colorNotice,
		Timestamp:   time.Now().UTC(),
	}

	return c.SendMessage(ctx, WebhookMessage{Embeds: []Embed{embed}})
}

const (
	colorNotice   = 0x808080 // Gray
	colorSlight   = 0xFFD700 // Gold
	colorModerate = 0xFFA500 // Orange
	colorSevere   = 0xFF0000 // Red
)

// SeverityColor maps a OneBusAway situation severity to an embed color.
func SeverityColor(severity string) int {
	switch severity {
	case "verySevere", "severe":
		return colorSevere
	case "moderate":
		return colorModerate
	case "slight":
		return colorSlight
	default:
		return colorNotice
	}
}
